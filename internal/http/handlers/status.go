package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// VideoStatus relays one status query, envelope and all. The page drives its
// own poll loop against this endpoint.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if videoID == "" {
		a.error(w, http.StatusBadRequest, "video id is required")
		return
	}
	raw, err := a.Client.Forward(r.Context(), http.MethodGet, "/openapi/v2/video/result/"+videoID, nil)
	if err != nil {
		a.upstreamError(w, "status query failed", err)
		return
	}
	a.upstream(w, raw)
}

// AccountBalance relays the remaining credit query.
func (a *App) AccountBalance(w http.ResponseWriter, r *http.Request) {
	raw, err := a.Client.Forward(r.Context(), http.MethodGet, "/openapi/v2/account/balance", nil)
	if err != nil {
		a.upstreamError(w, "balance query failed", err)
		return
	}
	a.upstream(w, raw)
}
