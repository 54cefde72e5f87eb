package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks failures detected before any lifecycle
	// transition; nothing was stopped and nothing will be relaunched.
	ErrPrecondition = errors.New("precondition error")
	// ErrValidation marks rejected input (bad ids, positions, names).
	ErrValidation = errors.New("validation error")
	// ErrStructural marks document edits that failed after the soundboard
	// was already stopped; the coordinator still relaunches it.
	ErrStructural = errors.New("structural error")
	// ErrUnavailable marks control-channel failures against the soundboard.
	ErrUnavailable = errors.New("soundboard unavailable")
	ErrTimeout     = errors.New("timeout")
	ErrTransient   = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPrecondition reports whether the failure happened before the lifecycle
// machine touched the soundboard process.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
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
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
