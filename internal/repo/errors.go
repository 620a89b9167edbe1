// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file defines the storage error kinds and the mapping
// from driver errors onto them.
//
// Every exported repository function returns errors that satisfy errors.Is
// against exactly one of:
//
//   - ErrNotFound:           the addressed row does not exist
//   - ErrDuplicate:          a primary key or unique index rejected the write
//   - ErrMissingReference:   a foreign key rejected the write
//   - ErrStorageUnavailable: the engine could not be reached or failed otherwise
//
// Context cancellation errors are passed through untouched so callers can
// still match context.Canceled and context.DeadlineExceeded.
package repo

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

const (
	// ErrDuplicate signals a violated primary key or unique constraint.
	ErrDuplicate = errors.Sentinel("repo: duplicate key")

	// ErrMissingReference signals a violated foreign key: either the
	// referenced row is absent or a referenced row was about to be removed.
	ErrMissingReference = errors.Sentinel("repo: foreign key violation")

	// ErrStorageUnavailable signals a connectivity or engine failure.
	ErrStorageUnavailable = errors.Sentinel("repo: storage unavailable")
)

// StoreError pairs an error kind with the driver error that caused it.
type StoreError struct {
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StoreError) Unwrap() []error { return []error{e.Kind, e.Err} }

// driver messages used when the dialector does not translate errors itself
var (
	duplicateMarkers = []string{
		"unique constraint failed",
		"duplicate key value",
		"duplicate entry",
		"constraint failed: primary key",
	}
	foreignKeyMarkers = []string{
		"foreign key constraint failed",
		"violates foreign key constraint",
		"a foreign key constraint fails",
	}
)

// Classify maps err onto one of the package error kinds. It returns nil for
// nil, returns not-found and context errors unchanged, and leaves already
// classified errors alone.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	kind := ErrStorageUnavailable
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey) || containsAny(msg, duplicateMarkers):
		kind = ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated) || containsAny(msg, foreignKeyMarkers):
		kind = ErrMissingReference
	}
	return errors.WithStackIf(&StoreError{Kind: kind, Err: err})
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether err is a duplicate-key error.
func IsDuplicate(err error) bool { return errors.Is(Classify(err), ErrDuplicate) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorageUnavailable reports whether err is a connectivity or engine failure.
func IsStorageUnavailable(err error) bool {
	return errors.Is(Classify(err), ErrStorageUnavailable)
}
