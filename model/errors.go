package model

import (
	"errors"
	"fmt"
)

// ErrArtifactExists is returned when an upload would replace an existing object
// and overwriting is disabled.
var ErrArtifactExists = errors.New("artifact already exists")

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// EnrichmentError wraps a failed call to the text-generation service.
type EnrichmentError struct {
	Target string // summary, use_cases, report
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s: %v", e.Target, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed object-storage operation.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failed record-store operation. The message keeps the
// backend detail.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
