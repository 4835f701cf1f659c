package router

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by *Failure through errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrUnknownAction    = errors.New("unknown action")
	ErrEffectFailed     = errors.New("effect failed")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInternal         = errors.New("internal error")
)

// FailureKind is the stable classification of a routed failure.
type FailureKind string

const (
	KindNotFound         FailureKind = "not_found"
	KindInvalidArguments FailureKind = "invalid_arguments"
	KindUnknownAction    FailureKind = "unknown_action"
	KindEffectFailed     FailureKind = "effect_failed"
	KindUnknownTool      FailureKind = "unknown_tool"
	KindInternal         FailureKind = "internal"
)

var kindSentinels = map[FailureKind]error{
	KindNotFound:         ErrNotFound,
	KindInvalidArguments: ErrInvalidArguments,
	KindUnknownAction:    ErrUnknownAction,
	KindEffectFailed:     ErrEffectFailed,
	KindUnknownTool:      ErrUnknownTool,
	KindInternal:         ErrInternal,
}

// Failure is the only error type returned by Router methods. Persona is
// set on every failure the router returns.
type Failure struct {
	Kind    FailureKind    `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Persona *PersonaStamp  `json:"persona,omitempty"`

	cause error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying cause, if any.
func (f *Failure) Unwrap() error { return f.cause }

// Is matches the sentinel for the failure's kind.
func (f *Failure) Is(target error) bool {
	return kindSentinels[f.Kind] == target
}

func failure(kind FailureKind, cause error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}
