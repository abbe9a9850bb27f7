package archive

import "errors"

var (
	ErrInvalidConfig      = errors.New("archive: bucket and region are required")
	ErrFailedToLoadConfig = errors.New("archive: failed to load aws config")
	ErrMissingEventID     = errors.New("archive: event id is required")
	ErrBucketNotFound     = errors.New("archive: bucket not found")
	ErrAccessDenied       = errors.New("archive: access denied")
	ErrUnavailable        = errors.New("archive: storage unavailable")
	ErrWriteFailed        = errors.New("archive: write failed")
)
