package uploader

import "errors"

// ErrUploadFailed is matched by every error the uploader returns.
var ErrUploadFailed = errors.New("failed to upload offline conversions")

// Error wraps whatever went wrong while building, sending or reading back a
// request. The original error is kept as the cause.
type Error struct {
	Op  string // "define" or "upload"
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return ErrUploadFailed.Error()
	}
	return ErrUploadFailed.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUploadFailed }
