package jobs

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrQueueClosed          = errors.New("work queue is closed")
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrUnsupportedScheme    = errors.New("unsupported url scheme")
	ErrStorageNotConfigured = errors.New("s3 storage is not configured")
)
