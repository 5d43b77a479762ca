package resource

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotConfirmed is returned by ConfirmDelete when no delete is pending.
	ErrNotConfirmed = errors.New("resource: delete not confirmed")
	// ErrNoModal is returned by Submit and SetForm when no form is open.
	ErrNoModal = errors.New("resource: no form open")
	// ErrBusy is returned when a submit or delete is already in flight.
	ErrBusy = errors.New("resource: operation in progress")
)

// ValidationError lists per-field problems found before any backend call.
type ValidationError struct {
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
		parts = append(parts, fmt.Sprintf("%s %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr, true
	}
	return nil, false
}
