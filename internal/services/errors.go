package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupported       = errors.New("unsupported archive")
	ErrCorrupt           = errors.New("corrupt archive")
	ErrEmptyArchive      = errors.New("empty archive")
	ErrCapabilityMissing = errors.New("capability missing")
	ErrDestination       = errors.New("destination error")
	ErrCanceled          = errors.New("canceled")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrCorrupt
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short stable label for err, suitable for persistence and
// metric labels. A nil error is "ok".
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCanceled), errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrEmptyArchive):
		return "empty"
	case errors.Is(err, ErrCapabilityMissing):
		return "capability_missing"
	case errors.Is(err, ErrDestination):
		return "destination"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "corrupt"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "extraction failure"
	}
	return strings.Join(parts, ": ")
}
