package document

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument is matched by every *ConfigError.
var ErrInvalidDocument = errors.New("invalid configuration document")

const rootPath = "document"

// Violation is one problem found in a document.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Message
}

// ConfigError lists every problem found while loading a document, in
// document order.
type ConfigError struct {
	Errors []Violation
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		parts[i] = v.String()
	}
	noun := "problems"
	if len(e.Errors) == 1 {
		noun = "problem"
	}
	return fmt.Sprintf("%s: %d %s: %s", ErrInvalidDocument, len(e.Errors), noun, strings.Join(parts, "; "))
}

// Is reports whether target is ErrInvalidDocument.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Has reports whether a violation exists at path whose message contains
// substr.
func (e *ConfigError) Has(path, substr string) bool {
	for _, v := range e.Errors {
		if v.Path == path && strings.Contains(v.Message, substr) {
			return true
		}
	}
	return false
}
