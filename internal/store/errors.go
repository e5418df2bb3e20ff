package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	ErrStorage  = errors.New("storage")
	ErrParse    = errors.New("parse")
)

// ValidationError reports a missing or unusable input field. It satisfies
// errors.Is(err, ErrInvalid).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e == nil || strings.TrimSpace(e.Msg) == "" {
		return "invalid"
	}
	return e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

// DuplicateError names the ticket number that collided with an existing
// task. It satisfies errors.Is(err, ErrConflict).
type DuplicateError struct {
	TicketNumber string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("a task with ticket number %q already exists", e.TicketNumber)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrConflict }

// NotFoundError reports an unknown task id. It satisfies
// errors.Is(err, ErrNotFound).
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StorageError wraps a failed write to the key-value backend. The
// in-memory change that triggered the write is kept; Quota reports
// whether the backend ran out of space.
type StorageError struct {
	Key   string
	Quota bool
	Err   error
}

func (e *StorageError) Error() string {
	if e.Quota {
		return fmt.Sprintf("failed to save %s: storage quota exceeded", e.Key)
	}
	return fmt.Sprintf("failed to save %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ParseError wraps a decode failure of an import file or a stored value.
// Source names what was being read.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
