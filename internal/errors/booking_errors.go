package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages. Step is 0 for input that does not
// belong to a wizard step.
type ValidationError struct {
	Step   int
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	if e.Step == 0 {
		return fmt.Sprintf("invalid input (%s)", strings.Join(parts, "; "))
	}
	return fmt.Sprintf("step %d is invalid (%s)", e.Step, strings.Join(parts, "; "))
}

// FetchError is returned by the contact directory client on transport failures
// and unexpected status codes.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same idempotent request may succeed.
func (e *FetchError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// PersistenceError describes an unreadable persisted booking draft. It is logged
// and recovered from by the store, never returned to callers.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("booking storage %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
