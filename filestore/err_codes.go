package filestore

import (
	"fmt"

	"github.com/code19m/errx"
)

// Error codes for filestore operations.
const (
	// CodeFileNotFound is returned when no object exists for a reference.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeInvalidRef is returned when a reference does not belong to the store.
	CodeInvalidRef = "INVALID_FILE_REF"

	// CodeStoreFailed is returned when the backend fails to read or write.
	CodeStoreFailed = "MEDIA_STORE_FAILED"
)

// ErrNotFound builds the not-found error for ref.
func ErrNotFound(ref string) error {
	return errx.New(
		fmt.Sprintf("file %q not found", ref),
		errx.WithCode(CodeFileNotFound),
		errx.WithType(errx.T_NotFound),
		errx.WithDetails(errx.D{"ref": ref}),
	)
}

// ErrInvalidRef builds the error for references the store cannot resolve.
func ErrInvalidRef(ref string) error {
	return errx.New(
		fmt.Sprintf("file reference %q is not valid for this store", ref),
		errx.WithCode(CodeInvalidRef),
		errx.WithType(errx.T_Validation),
		errx.WithDetails(errx.D{"ref": ref}),
	)
}

// WrapStoreErr marks a backend failure as an internal media store error.
func WrapStoreErr(err error, details errx.D) error {
	return errx.Wrap(err,
		errx.WithCode(CodeStoreFailed),
		errx.WithType(errx.T_Internal),
		errx.WithDetails(details),
	)
}

// IsNotFound reports whether err carries CodeFileNotFound.
func IsNotFound(err error) bool {
	return errx.IsCodeIn(err, CodeFileNotFound)
}
