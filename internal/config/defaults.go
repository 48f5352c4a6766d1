package config

const (
	defaultStateDir                = "~/.local/share/autounzip"
	defaultLogDir                  = "~/.local/share/autounzip/logs"
	defaultAPIBind                 = "127.0.0.1:7489"
	defaultWatchFolder             = "~/Downloads"
	defaultPollIntervalSeconds     = 2.0
	defaultDeleteAfterExtract      = true
	defaultNotifyRequestTimeout    = 10
	defaultProgressMilestone       = 50
	defaultMinProgressIntervalSecs = 1
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 30
	defaultLogMaxSizeMB            = 20
	defaultLogMaxBackups           = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Watch: Watch{
			Folders:             []string{defaultWatchFolder},
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PersistSeen:         true,
		},
		Extraction: Extraction{
			DeleteArchivesAfterExtract: defaultDeleteAfterExtract,
		},
		Notifications: Notifications{
			RequestTimeout:             defaultNotifyRequestTimeout,
			Startup:                    true,
			Progress:                   true,
			Completion:                 true,
			ProgressMilestone:          defaultProgressMilestone,
			MinProgressIntervalSeconds: defaultMinProgressIntervalSecs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
