package pixverse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BettaJiayi/pixverse-webui/internal/domain"
	"github.com/BettaJiayi/pixverse-webui/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("pixverse: api key is required")

// APIError is a structured failure reported by the PixVerse API itself
// (non-zero ErrCode in an otherwise successful HTTP exchange). Code and
// message are surfaced to the user verbatim.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pixverse: %s (%d)", e.Message, e.Code)
}

// HTTPError is a non-success HTTP response from the upstream API. The body is
// kept so the proxy can relay upstream details to the browser.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pixverse: status %d: %s", e.Status, strings.TrimSpace(string(e.Body)))
}

// Options configures the PixVerse API client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the PixVerse open API. Every request
// carries the API key and a fresh trace id.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

type envelope struct {
	ErrCode int             `json:"ErrCode"`
	ErrMsg  string          `json:"ErrMsg"`
	Resp    json.RawMessage `json:"Resp"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://app-api.pixverse.ai"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Submit creates a generation job and returns the upstream video id.
func (c *Client) Submit(ctx context.Context, spec domain.JobSpec) (string, error) {
	raw, err := c.SubmitRaw(ctx, spec)
	if err != nil {
		return "", err
	}
	resp, err := unwrap(raw)
	if err != nil {
		return "", err
	}
	var out struct {
		VideoID json.Number `json:"video_id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", fmt.Errorf("pixverse: decode submit response: %w", err)
	}
	id := out.VideoID.String()
	if id == "" {
		return "", errors.New("pixverse: submit response missing video_id")
	}
	c.logger.Debug().Str("video_id", id).Str("type", string(spec.Type)).Msg("pixverse: job submitted")
	return id, nil
}

// SubmitRaw creates a generation job and returns the upstream response body
// untouched, envelope included. The proxy relays it verbatim.
func (c *Client) SubmitRaw(ctx context.Context, spec domain.JobSpec) (json.RawMessage, error) {
	path, payload, err := buildSubmit(spec)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pixverse: encode request: %w", err)
	}
	return c.Forward(ctx, http.MethodPost, path, encoded)
}

// Status queries the coarse state of one job. The seed may appear either at
// the top level of the response or nested in the echoed parameters; the
// top-level value wins.
func (c *Client) Status(ctx context.Context, videoID string) (domain.StatusResult, error) {
	if strings.TrimSpace(videoID) == "" {
		return domain.StatusResult{}, domain.ErrEmptyJobID
	}
	raw, err := c.Forward(ctx, http.MethodGet, "/openapi/v2/video/result/"+videoID, nil)
	if err != nil {
		return domain.StatusResult{}, err
	}
	resp, err := unwrap(raw)
	if err != nil {
		return domain.StatusResult{}, err
	}
	var out struct {
		Status int    `json:"status"`
		URL    string `json:"url"`
		Seed   *int   `json:"seed"`
		Params struct {
			Seed *int `json:"seed"`
		} `json:"params"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return domain.StatusResult{}, fmt.Errorf("pixverse: decode status response: %w", err)
	}
	result := domain.StatusResult{
		Code: domain.ParseStatus(out.Status),
		URL:  out.URL,
		Seed: out.Seed,
	}
	if result.Seed == nil {
		result.Seed = out.Params.Seed
	}
	return result, nil
}

// Balance returns the remaining monthly and package credits.
func (c *Client) Balance(ctx context.Context) (domain.Balance, error) {
	raw, err := c.Forward(ctx, http.MethodGet, "/openapi/v2/account/balance", nil)
	if err != nil {
		return domain.Balance{}, err
	}
	resp, err := unwrap(raw)
	if err != nil {
		return domain.Balance{}, err
	}
	var out struct {
		CreditMonthly int64 `json:"credit_monthly"`
		CreditPackage int64 `json:"credit_package"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return domain.Balance{}, fmt.Errorf("pixverse: decode balance response: %w", err)
	}
	return domain.Balance{MonthlyCredit: out.CreditMonthly, PackageCredit: out.CreditPackage}, nil
}

// UploadImage pushes an image to the upstream asset store and returns its img_id.
func (c *Client) UploadImage(ctx context.Context, filename string, data io.Reader) (int64, error) {
	raw, err := c.ForwardUpload(ctx, "/openapi/v2/image/upload", "image", filename, data)
	if err != nil {
		return 0, err
	}
	resp, err := unwrap(raw)
	if err != nil {
		return 0, err
	}
	var out struct {
		ImgID int64 `json:"img_id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return 0, fmt.Errorf("pixverse: decode image upload response: %w", err)
	}
	if out.ImgID <= 0 {
		return 0, errors.New("pixverse: upload response missing img_id")
	}
	return out.ImgID, nil
}

// UploadMedia pushes a video or audio file and returns its media_id.
func (c *Client) UploadMedia(ctx context.Context, filename string, data io.Reader) (int64, error) {
	raw, err := c.ForwardUpload(ctx, "/openapi/v2/media/upload", "file", filename, data)
	if err != nil {
		return 0, err
	}
	resp, err := unwrap(raw)
	if err != nil {
		return 0, err
	}
	var out struct {
		MediaID int64 `json:"media_id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return 0, fmt.Errorf("pixverse: decode media upload response: %w", err)
	}
	if out.MediaID <= 0 {
		return 0, errors.New("pixverse: upload response missing media_id")
	}
	return out.MediaID, nil
}

// Forward relays a JSON request to the upstream API and returns the response
// body untouched, envelope included. Non-success HTTP statuses come back as
// *HTTPError carrying the upstream body.
func (c *Client) Forward(ctx context.Context, method, path string, body json.RawMessage) (json.RawMessage, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("pixverse: build request: %w", err)
	}
	c.setHeaders(httpReq)
	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return c.roundTrip(httpReq)
}

// ForwardUpload relays one file as a multipart request under the given field
// name and returns the raw upstream body.
func (c *Client) ForwardUpload(ctx context.Context, path, field, filename string, data io.Reader) (json.RawMessage, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("pixverse: build multipart: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("pixverse: copy upload payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("pixverse: finish multipart: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("pixverse: build request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	return c.roundTrip(httpReq)
}

func (c *Client) roundTrip(req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixverse: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pixverse: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: raw}
	}
	return raw, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("API-KEY", c.apiKey)
	req.Header.Set("Ai-trace-id", uuid.NewString())
}

// unwrap decodes the PixVerse envelope and returns the Resp payload, turning
// a non-zero ErrCode into an *APIError.
func unwrap(raw json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("pixverse: decode response: %w", err)
	}
	if env.ErrCode != 0 {
		return nil, &APIError{Code: env.ErrCode, Message: env.ErrMsg}
	}
	return env.Resp, nil
}

func buildSubmit(spec domain.JobSpec) (string, map[string]any, error) {
	duration := spec.Duration
	if duration <= 0 {
		duration = 5
	}
	model := spec.Model
	if model == "" {
		model = "v4.5"
	}
	quality := spec.Quality
	if quality == "" {
		quality = "540p"
	}
	motion := spec.MotionMode
	if motion == "" {
		motion = "normal"
	}

	body := map[string]any{
		"prompt":      spec.Prompt,
		"duration":    duration,
		"model":       model,
		"quality":     quality,
		"motion_mode": motion,
	}
	if spec.NegativePrompt != "" {
		body["negative_prompt"] = spec.NegativePrompt
	}
	if spec.Seed != nil {
		body["seed"] = *spec.Seed
	}
	if spec.Style != "" {
		body["style"] = spec.Style
	}
	if spec.TemplateID > 0 {
		body["template_id"] = spec.TemplateID
	}

	switch domain.NormalizeType(spec.Type) {
	case domain.JobTypeText:
		aspect := spec.AspectRatio
		if aspect == "" {
			aspect = "16:9"
		}
		body["aspect_ratio"] = aspect
		body["water_mark"] = false
		return "/openapi/v2/video/text/generate", body, nil
	case domain.JobTypeImage:
		body["img_id"] = spec.ImageID
		if spec.AspectRatio != "" {
			body["aspect_ratio"] = spec.AspectRatio
		}
		body["water_mark"] = false
		return "/openapi/v2/video/img/generate", body, nil
	case domain.JobTypeExtend:
		if spec.SourceVideoID != "" {
			body["source_video_id"] = spec.SourceVideoID
		}
		if spec.MediaID > 0 {
			body["video_media_id"] = spec.MediaID
		}
		return "/openapi/v2/video/extend/generate", body, nil
	case domain.JobTypeTransition:
		body["first_frame_img"] = spec.FirstFrameID
		body["last_frame_img"] = spec.LastFrameID
		return "/openapi/v2/video/transition/generate", body, nil
	default:
		return "", nil, domain.ErrUnknownJobType
	}
}
