package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/BettaJiayi/pixverse-webui/internal/infra"
	"github.com/BettaJiayi/pixverse-webui/internal/pixverse"
)

// App bundles the proxy handlers with their dependencies.
type App struct {
	Client *pixverse.Client
	Logger infra.Logger
}

func NewApp(client *pixverse.Client, logger infra.Logger) *App {
	return &App{Client: client, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Logger.Error().Err(err).Msg("write response")
	}
}

func (a *App) error(w http.ResponseWriter, status int, msg string) {
	a.json(w, status, map[string]string{"error": msg})
}

// upstream relays a raw upstream body, envelope and all, so the page sees
// exactly what the API answered.
func (a *App) upstream(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		a.Logger.Error().Err(err).Msg("write upstream response")
	}
}

// upstreamError answers 500 with the failure context and whatever detail the
// upstream provided. Upstream JSON bodies pass through unre-encoded.
func (a *App) upstreamError(w http.ResponseWriter, what string, err error) {
	a.Logger.Error().Err(err).Msg(what)

	detail := any(err.Error())
	var httpErr *pixverse.HTTPError
	if errors.As(err, &httpErr) && json.Valid(httpErr.Body) {
		detail = json.RawMessage(httpErr.Body)
	}
	a.json(w, http.StatusInternalServerError, map[string]any{
		"error":  what,
		"detail": detail,
	})
}

// Health reports liveness and whether upstream credentials are configured.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"apiKeyPresent": a.Client.HasCredentials(),
	})
}

// Passthrough relays the request body to a fixed upstream path without
// reshaping. Endpoints with no local validation rules go through here.
func (a *App) Passthrough(method, path, what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if method != http.MethodGet {
			raw, err := io.ReadAll(r.Body)
			if err != nil {
				a.error(w, http.StatusBadRequest, "unable to read request body")
				return
			}
			body = raw
		}
		raw, err := a.Client.Forward(r.Context(), method, path, body)
		if err != nil {
			a.upstreamError(w, what, err)
			return
		}
		a.upstream(w, raw)
	}
}
