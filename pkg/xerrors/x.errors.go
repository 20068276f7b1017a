package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	return ParsePGErrorCode(err) == pgUniqueViolation
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
	ErrDuplicate      = errors.New("duplicate record")
	ErrBusy           = errors.New("operation already in progress")
)

// Profile form
var (
	ErrNameRequired = errors.New("please enter your name")
	ErrRoleRequired = errors.New("please enter your role")
)

// Photo
var (
	ErrNotAnImage    = errors.New("please upload an image file")
	ErrPhotoTooLarge = errors.New("image size must be less than 5MB")
	ErrMissingFile   = errors.New("missing file")
)

// Capture / export
var (
	ErrCaptureUnavailable = errors.New("capture browser unavailable")
	ErrCaptureFailed      = errors.New("card capture failed")
	ErrUnknownFormat      = errors.New("unknown export format")
)
