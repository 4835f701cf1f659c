package action

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for consistent error handling.
var (
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrEffectFailed     = errors.New("effect failed")
	ErrTimeout          = errors.New("effect timed out")
	ErrHandlerNotFound  = errors.New("handler not found")
	ErrInvalidAction    = errors.New("invalid action definition")
)

// Kind classifies invocation failures. Values are stable strings suitable
// for callers to switch on.
type Kind string

const (
	KindUnknownAction    Kind = "unknown_action"
	KindInvalidArguments Kind = "invalid_arguments"
	KindEffectFailed     Kind = "effect_failed"
)

// Violation describes one argument that failed validation.
type Violation struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

// Error is returned by Registry.Invoke.
type Error struct {
	Kind       Kind
	Action     string
	Violations []Violation
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownAction:
		return fmt.Sprintf("%s: %s", ErrUnknownAction, e.Action)
	case KindInvalidArguments:
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.Parameter + ": " + v.Message
		}
		return fmt.Sprintf("%s for %s: %s", ErrInvalidArguments, e.Action, strings.Join(parts, "; "))
	case KindEffectFailed:
		return fmt.Sprintf("%s for %s: %v", ErrEffectFailed, e.Action, e.Cause)
	default:
		return fmt.Sprintf("action %s failed: %v", e.Action, e.Cause)
	}
}

// Unwrap returns the handler cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnknownAction:
		return e.Kind == KindUnknownAction
	case ErrInvalidArguments:
		return e.Kind == KindInvalidArguments
	case ErrEffectFailed:
		return e.Kind == KindEffectFailed
	}
	return false
}

// Parameters returns the names of the parameters that failed validation.
func (e *Error) Parameters() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Parameter
	}
	return out
}
