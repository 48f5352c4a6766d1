package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	structRules   *validator.Validate
)

func rules() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("toml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(fl.Field().String()) {
			case "debug", "info", "warn", "error":
				return true
			default:
				return false
			}
		})
		_ = v.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(fl.Field().String()) {
			case "console", "json":
				return true
			default:
				return false
			}
		})
		structRules = v
	})
	return structRules
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFields(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFields() error {
	err := rules().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	name := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be set", name)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "loglevel":
		return fmt.Sprintf("%s must be one of debug, info, warn, error (got %q)", name, fe.Value())
	case "logformat":
		return fmt.Sprintf("%s must be console or json (got %q)", name, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port (got %q)", name, fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a full URL such as https://ntfy.sh/topic (got %q)", name, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", name, fe.Tag())
	}
}

func (c *Config) validateWatch() error {
	seen := make(map[string]struct{}, len(c.Watch.Folders))
	for _, folder := range c.Watch.Folders {
		if !filepath.IsAbs(folder) {
			return fmt.Errorf("watch.folders: %q must be an absolute path", folder)
		}
		if _, dup := seen[folder]; dup {
			return fmt.Errorf("watch.folders: %q listed more than once", folder)
		}
		seen[folder] = struct{}{}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.APIToken != "" && c.Paths.APIBind == "" {
		return errors.New("paths.api_token is set but paths.api_bind is empty; the API is disabled")
	}
	for _, folder := range c.Watch.Folders {
		if folder == c.Paths.StateDir {
			return fmt.Errorf("watch.folders: %q must not be the state directory", folder)
		}
	}
	return nil
}
