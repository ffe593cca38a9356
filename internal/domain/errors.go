package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyJobID     = errors.New("job id is required")
	ErrEmptyPrompt    = errors.New("prompt is required")
	ErrMissingImage   = errors.New("image id is required")
	ErrMissingSource  = errors.New("extend jobs need a source video id or an uploaded media id")
	ErrMissingFrames  = errors.New("transition jobs need both first and last frame images")
	ErrSeedOutOfRange = errors.New("seed must be between 0 and 2147483647")
	ErrUnknownJobType = errors.New("unknown job type")
)
