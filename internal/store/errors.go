package store

import (
	"errors"
	"fmt"
)

// MigrationErrorCode categorizes schema upgrade failures.
type MigrationErrorCode string

const (
	// ErrCodeMissingStep indicates no upgrade step exists for a source version.
	ErrCodeMissingStep MigrationErrorCode = "MISSING_STEP"

	// ErrCodeStepFailed indicates an upgrade step returned an error.
	ErrCodeStepFailed MigrationErrorCode = "STEP_FAILED"

	// ErrCodeTooNew indicates the database was written by a newer version.
	ErrCodeTooNew MigrationErrorCode = "TOO_NEW"

	// ErrCodeUnversioned indicates an existing database without a version row.
	ErrCodeUnversioned MigrationErrorCode = "UNVERSIONED"
)

// MigrationError reports why the schema could not be brought current.
// The database is left at the last version that completed.
type MigrationError struct {
	Code    MigrationErrorCode
	Message string
	From    int // source version of the failing step, if any
	To      int // target version of the run, if any
	Err     error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying step error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// IsMigrationError reports whether err is a MigrationError.
// Uses errors.As to handle wrapped errors.
func IsMigrationError(err error) bool {
	var me *MigrationError
	return errors.As(err, &me)
}

// MigrationErrorCodeOf returns the code of a wrapped MigrationError, or "".
func MigrationErrorCodeOf(err error) MigrationErrorCode {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}
