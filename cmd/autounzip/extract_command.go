package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"autounzip/internal/api"
	"autounzip/internal/config"
	"autounzip/internal/extract"
	"autounzip/internal/ipc"
	"autounzip/internal/notifications"
	"autounzip/internal/workflow"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var targetDir string
	var deleteAfter bool
	var viaDaemon bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract a single archive now",
		Long: "Extract a single archive into a sibling directory named after it.\n" +
			"By default the extraction runs in this process; --daemon hands it to the running daemon so it is recorded in history.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target := ""
			if targetDir != "" {
				if target, err = config.ExpandPath(targetDir); err != nil {
					return err
				}
			}

			var result api.ExtractResult
			if viaDaemon {
				req := ipc.ExtractRequest{Path: archive, TargetDir: target}
				if cmd.Flags().Changed("delete") {
					req.Delete = &deleteAfter
				}
				err = ctx.withClient(func(client *ipc.Client) error {
					resp, callErr := client.Extract(req)
					if callErr != nil {
						return callErr
					}
					result = resp.Result
					return nil
				})
				if err != nil {
					return err
				}
			} else {
				result, err = runLocalExtract(cmd, ctx, archive, target, deleteAfter, !asJSON)
				if err != nil {
					return err
				}
			}

			if asJSON {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				printExtractResult(cmd.OutOrStdout(), result)
			}
			if !result.Success {
				return fmt.Errorf("extract %s failed: %s", result.ArchiveName, result.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetDir, "to", "", "Extract into this directory instead of the sibling directory")
	cmd.Flags().BoolVar(&deleteAfter, "delete", false, "Delete the archive after a successful extraction")
	cmd.Flags().BoolVar(&viaDaemon, "daemon", false, "Run the extraction inside the running daemon")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	return cmd
}

func runLocalExtract(cmd *cobra.Command, ctx *commandContext, archive, target string, deleteAfter, showProgress bool) (api.ExtractResult, error) {
	info, err := os.Stat(archive)
	if err != nil {
		return api.ExtractResult{}, fmt.Errorf("inspect archive %q: %w", archive, err)
	}
	if info.IsDir() {
		return api.ExtractResult{}, fmt.Errorf("%s is a directory", archive)
	}

	cfg := ctx.configValue()
	logger := ctx.logger()
	dispatcher := extract.NewDispatcher(
		extract.WithLogger(logger),
		extract.WithCabHelper(cfg.CabHelperBinary()),
	)
	processor := workflow.New(dispatcher, notifications.NewNop(), func() bool { return deleteAfter },
		workflow.WithLogger(logger),
		workflow.WithMinFreeSpace(uint64(cfg.Extraction.MinFreeSpaceMB)*1024*1024),
	)

	req := workflow.Request{Path: archive, TargetDir: target}
	var bar *progressbar.ProgressBar
	if showProgress && isTerminal(cmd.ErrOrStderr()) {
		bar = newExtractProgressBar(cmd.ErrOrStderr(), extract.ArchiveName(archive))
		req.Progress = func(percent float64) {
			_ = bar.Set(int(percent))
		}
	}

	out := processor.Run(cmd.Context(), req)
	if bar != nil {
		if out.Success {
			_ = bar.Finish()
		}
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return api.FromOutcome(out), nil
}

func newExtractProgressBar(w io.Writer, name string) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "█", SaucerHead: "█", SaucerPadding: "░",
			BarStart: "[", BarEnd: "]",
		}),
	)
}

func printExtractResult(out io.Writer, result api.ExtractResult) {
	if !result.Success {
		kind := result.ErrorKind
		if kind == "" {
			kind = "error"
		}
		fmt.Fprintf(out, "Failed to extract %s (%s)\n", result.ArchiveName, kind)
		return
	}
	fmt.Fprintf(out, "Extracted %s: %d file(s), %s to %s\n",
		result.ArchiveName,
		result.Files,
		humanize.IBytes(uint64(max(result.Bytes, 0))),
		result.TargetDir,
	)
	if result.Deleted {
		fmt.Fprintf(out, "Deleted %s\n", result.Archive)
	}
}
