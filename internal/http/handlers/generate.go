package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
)

// generateRequest is the browser-facing submission payload. Field names match
// the upstream API so the page can post the same shape it would send directly.
type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	Duration       int    `json:"duration"`
	Model          string `json:"model"`
	MotionMode     string `json:"motion_mode"`
	Quality        string `json:"quality"`
	Seed           *int   `json:"seed"`
	Style          string `json:"style"`
	TemplateID     int    `json:"template_id"`
	ImgID          int64  `json:"img_id"`
	SourceVideoID  string `json:"source_video_id"`
	VideoMediaID   int64  `json:"video_media_id"`
	FirstFrameImg  int64  `json:"first_frame_img"`
	LastFrameImg   int64  `json:"last_frame_img"`
}

func (req generateRequest) spec(t domain.JobType) domain.JobSpec {
	return domain.JobSpec{
		Type:           t,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Duration:       req.Duration,
		Model:          req.Model,
		MotionMode:     req.MotionMode,
		Quality:        req.Quality,
		Seed:           req.Seed,
		Style:          req.Style,
		TemplateID:     req.TemplateID,
		ImageID:        req.ImgID,
		SourceVideoID:  req.SourceVideoID,
		MediaID:        req.VideoMediaID,
		FirstFrameID:   req.FirstFrameImg,
		LastFrameID:    req.LastFrameImg,
	}
}

// TextToVideo validates and submits a text generation job, answering with the
// raw upstream envelope.
func (a *App) TextToVideo(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, domain.JobTypeText, "text-to-video generation failed")
}

// ImageToVideo submits an image generation job; the image must already be
// uploaded so an img_id is available.
func (a *App) ImageToVideo(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, domain.JobTypeImage, "image-to-video generation failed")
}

// ExtendVideo continues an existing clip, referenced either by its upstream
// video id or an uploaded media id.
func (a *App) ExtendVideo(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, domain.JobTypeExtend, "video extension failed")
}

// TransitionVideo submits a first-to-last-frame transition job.
func (a *App) TransitionVideo(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, domain.JobTypeTransition, "transition generation failed")
}

func (a *App) generate(w http.ResponseWriter, r *http.Request, t domain.JobType, what string) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	spec := req.spec(t)
	if err := spec.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	raw, err := a.Client.SubmitRaw(r.Context(), spec)
	if err != nil {
		a.upstreamError(w, what, err)
		return
	}
	a.upstream(w, raw)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyPrompt):
		return "prompt is required"
	case errors.Is(err, domain.ErrMissingImage):
		return "img_id is required"
	case errors.Is(err, domain.ErrMissingSource):
		return "source_video_id or video_media_id is required"
	case errors.Is(err, domain.ErrMissingFrames):
		return "first_frame_img and last_frame_img are required"
	case errors.Is(err, domain.ErrSeedOutOfRange):
		return "seed must be between 0 and 2147483647"
	case errors.Is(err, domain.ErrUnknownJobType):
		return "unknown generation type"
	default:
		return err.Error()
	}
}
