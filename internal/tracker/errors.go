package tracker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRelation is wrapped by EntityType.Relation for undeclared names.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrUnknownEvent is returned for lifecycle event names other than create, update and destroy.
	ErrUnknownEvent = errors.New("unknown lifecycle event")
	// ErrConflictingOptions is wrapped when a type is registered twice with different options.
	ErrConflictingOptions = errors.New("tracking already enabled with different options")
)

// ConfigurationError is returned by Registry.Track when options cannot be
// resolved for an entity type. Nothing is registered when it occurs.
type ConfigurationError struct {
	EntityType string
	Field      string // option that failed: "include", "on", ...
	Err        error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tracking %s: %v", e.EntityType, e.Err)
	}
	return fmt.Sprintf("tracking %s: %s: %v", e.EntityType, e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// CaptureError aborts a traversal when a derived method, an association
// lookup or a custom change detector fails. No history entry is stored.
type CaptureError struct {
	EntityType string
	Event      EventKind
	Source     string // e.g. "method summary", "association comments"
	Err        error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capturing %s history for %s: %s: %v", e.Event, e.EntityType, e.Source, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// StorageError is reported when a Store fails to persist a history entry.
// The recorder does not retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
