// Package errs provides the error codes and helpers shared by the inodefs
// packages.
package errs

import (
	"fmt"
	"io/fs"

	platformerrors "github.com/jmgilman/go/errors"
)

// Error codes specific to the inode filesystem. They extend the codes
// predefined by the platform errors package.
const (
	// CodeAllocationExhausted indicates no free inode, or no contiguous run
	// of free blocks of the requested length.
	CodeAllocationExhausted platformerrors.ErrorCode = "ALLOCATION_EXHAUSTED"

	// CodeTypeMismatch indicates an entry has the wrong kind for the operation.
	CodeTypeMismatch platformerrors.ErrorCode = "TYPE_MISMATCH"

	// CodeIndexOutOfRange indicates a handle outside the table or bitmap capacity.
	CodeIndexOutOfRange platformerrors.ErrorCode = "INDEX_OUT_OF_RANGE"

	// CodeInvalidName indicates a name that cannot be stored in a directory.
	CodeInvalidName platformerrors.ErrorCode = "INVALID_NAME"

	// CodeNameTooLong indicates a name longer than the name field allows.
	CodeNameTooLong platformerrors.ErrorCode = "NAME_TOO_LONG"

	// CodeCorruptSnapshot indicates a snapshot that cannot be decoded.
	CodeCorruptSnapshot platformerrors.ErrorCode = "CORRUPT_SNAPSHOT"
)

// Codes reused from the platform errors package.
const (
	CodeNotFound       = platformerrors.CodeNotFound
	CodeInvalidInput   = platformerrors.CodeInvalidInput
	CodeConflict       = platformerrors.CodeConflict
	CodeInternal       = platformerrors.CodeInternal
	CodeNotImplemented = platformerrors.CodeNotImplemented
)

// New creates an error with the given code and message.
func New(code platformerrors.ErrorCode, message string) error {
	return platformerrors.New(code, message)
}

// Newf creates an error with the given code and a formatted message.
func Newf(code platformerrors.ErrorCode, format string, args ...interface{}) error {
	return platformerrors.Newf(code, format, args...)
}

// Wrap wraps err with a code and message. Returns nil if err is nil.
func Wrap(err error, code platformerrors.ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return platformerrors.Wrap(err, code, message)
}

// Wrapf wraps err with a code and a formatted message. Returns nil if err is nil.
func Wrapf(err error, code platformerrors.ErrorCode, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return platformerrors.Wrapf(err, code, format, args...)
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code platformerrors.ErrorCode) bool {
	return err != nil && platformerrors.GetCode(err) == code
}

// Translate converts inodefs errors to stdlib fs errors so io/fs callers can
// use errors.Is with fs.ErrNotExist and friends.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	switch platformerrors.GetCode(err) {
	case CodeNotFound:
		return fmt.Errorf("%w: %v", fs.ErrNotExist, err)
	case CodeTypeMismatch, CodeInvalidName, CodeNameTooLong, CodeInvalidInput:
		return fmt.Errorf("%w: %v", fs.ErrInvalid, err)
	}

	return err
}

// PathError wraps an error in a fs.PathError for the given operation and path.
// If the error is nil, returns nil.
func PathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &fs.PathError{Op: op, Path: path, Err: Translate(err)}
}
