package pipeline

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnreadableFile      = errors.New("unreadable file")
	ErrNoHeaderFound       = errors.New("no valid header row found")
	ErrEmptyResult         = errors.New("no valid rows")
	ErrExternalService     = errors.New("external service failure")
	ErrMissingGoal         = errors.New("plan name required for generated import")
)
