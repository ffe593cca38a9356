package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/BettaJiayi/pixverse-webui/internal/http/handlers"
	"github.com/BettaJiayi/pixverse-webui/internal/infra"
	"github.com/BettaJiayi/pixverse-webui/internal/middleware"
)

// NewRouter wires the proxy endpoints. Paths mirror what the page calls, so
// the browser talks to /api/... and never sees the upstream host or key.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/text-to-video", app.TextToVideo)
		r.Post("/image-to-video", app.ImageToVideo)
		r.Post("/extend-generate", app.ExtendVideo)
		r.Post("/transition-video", app.TransitionVideo)

		r.Post("/upload-image", app.UploadImage)
		// legacy path kept for older copies of the page
		r.Post("/image-upload", app.UploadImage)
		r.Post("/media-upload", app.UploadMedia)

		r.Get("/video-status/{videoID}", app.VideoStatus)
		r.Get("/account-balance", app.AccountBalance)

		// endpoints with no local validation rules relay the body untouched
		r.Post("/transition-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/transition/generate", "transition generation failed"))
		r.Post("/fusion-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/fusion/generate", "fusion generation failed"))
		r.Post("/lip-sync-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/lipsync/generate", "lip sync generation failed"))
		r.Get("/lip-sync-tts-list", app.Passthrough(http.MethodGet, "/openapi/v2/video/lipsync/tts/list", "tts voice list failed"))
		r.Post("/sound-effect-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/soundeffect/generate", "sound effect generation failed"))
		r.Post("/multi-transition-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/transition/multi/generate", "multi transition generation failed"))
		r.Post("/restyle-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/restyle/generate", "restyle generation failed"))
		r.Get("/restyle-list", app.Passthrough(http.MethodGet, "/openapi/v2/video/restyle/list", "restyle effect list failed"))
		r.Post("/mask-selection", app.Passthrough(http.MethodPost, "/openapi/v2/image/mask/selection", "mask selection failed"))
		r.Post("/swap-generate", app.Passthrough(http.MethodPost, "/openapi/v2/video/swap/generate", "swap generation failed"))
	})

	return r
}
