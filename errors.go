package inodefs

import (
	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

// Error codes returned by filesystem operations. Every error returned by this
// package carries one of them; use IsCode or errors.GetCode to branch.
const (
	CodeAllocationExhausted = errs.CodeAllocationExhausted
	CodeNotFound            = errs.CodeNotFound
	CodeTypeMismatch        = errs.CodeTypeMismatch
	CodeIndexOutOfRange     = errs.CodeIndexOutOfRange
	CodeInvalidName         = errs.CodeInvalidName
	CodeNameTooLong         = errs.CodeNameTooLong
	CodeCorruptSnapshot     = errs.CodeCorruptSnapshot
	CodeInvalidInput        = errs.CodeInvalidInput
	CodeConflict            = errs.CodeConflict
	CodeInternal            = errs.CodeInternal
	CodeNotImplemented      = errs.CodeNotImplemented
)

// IsCode reports whether err carries code.
func IsCode(err error, code platformerrors.ErrorCode) bool {
	return errs.Is(err, code)
}

// withPath attaches the path expression an operation failed on.
func withPath(err error, path string) error {
	if err == nil {
		return nil
	}
	return platformerrors.WithContext(err, "path", path)
}
