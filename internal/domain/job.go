package domain

import "time"

// JobType enumerates supported generation job categories.
type JobType string

const (
	JobTypeText       JobType = "text-to-video"
	JobTypeImage      JobType = "image-to-video"
	JobTypeExtend     JobType = "extend-video"
	JobTypeTransition JobType = "transition-video"
)

// NormalizeType maps legacy tags onto the canonical set. Older history
// documents recorded extend jobs under the bare "extend" tag.
func NormalizeType(t JobType) JobType {
	if t == "extend" {
		return JobTypeExtend
	}
	return t
}

// StatusCode mirrors the coarse job states reported by the PixVerse API.
type StatusCode int

const (
	StatusUnqueried StatusCode = 0
	StatusCompleted StatusCode = 1
	StatusRunning   StatusCode = 5
	StatusRejected  StatusCode = 7
	StatusFailed    StatusCode = 8

	// StatusUnknown covers unmapped codes and failed queries. It is never
	// written to the history store.
	StatusUnknown StatusCode = -1
)

// ParseStatus maps a raw upstream code onto the known set.
func ParseStatus(code int) StatusCode {
	switch StatusCode(code) {
	case StatusCompleted, StatusRunning, StatusRejected, StatusFailed:
		return StatusCode(code)
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further polling can change the status.
func (s StatusCode) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Label returns a short human-readable tag for logs and the CLI.
func (s StatusCode) Label() string {
	switch s {
	case StatusUnqueried:
		return "unqueried"
	case StatusCompleted:
		return "completed"
	case StatusRunning:
		return "running"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MaxSeed is the largest seed the generation API accepts.
const MaxSeed = 2147483647

// JobRecord is the unit of the history store: one submitted generation job
// tracked from submission to terminal resolution.
type JobRecord struct {
	ID         string     `json:"id"`
	Type       JobType    `json:"type"`
	Prompt     string     `json:"prompt"`
	Style      string     `json:"style,omitempty"`
	Seed       *int       `json:"seed,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastStatus StatusCode `json:"lastStatusCode"`
	URL        string     `json:"url,omitempty"`
}

// JobSpec carries the inputs for one generation request. Only the fields
// relevant to the given Type are consulted.
type JobSpec struct {
	Type           JobType
	Prompt         string
	NegativePrompt string
	Style          string
	Seed           *int
	Duration       int
	Model          string
	Quality        string
	MotionMode     string
	AspectRatio    string
	TemplateID     int

	// image-to-video
	ImageID int64

	// extend-video: at least one of the two must be set
	SourceVideoID string
	MediaID       int64

	// transition-video: both are required
	FirstFrameID int64
	LastFrameID  int64
}

// Validate checks the job inputs before any network call is made.
func (s JobSpec) Validate() error {
	if s.Prompt == "" {
		return ErrEmptyPrompt
	}
	if s.Seed != nil && (*s.Seed < 0 || *s.Seed > MaxSeed) {
		return ErrSeedOutOfRange
	}
	switch NormalizeType(s.Type) {
	case JobTypeText:
	case JobTypeImage:
		if s.ImageID <= 0 {
			return ErrMissingImage
		}
	case JobTypeExtend:
		if s.SourceVideoID == "" && s.MediaID <= 0 {
			return ErrMissingSource
		}
	case JobTypeTransition:
		if s.FirstFrameID <= 0 || s.LastFrameID <= 0 {
			return ErrMissingFrames
		}
	default:
		return ErrUnknownJobType
	}
	return nil
}

// StatusResult is the normalized answer of one status query.
type StatusResult struct {
	Code StatusCode
	URL  string
	Seed *int
}

// Balance reports the remaining upstream credits.
type Balance struct {
	MonthlyCredit int64
	PackageCredit int64
}
