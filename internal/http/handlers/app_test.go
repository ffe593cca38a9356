package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/BettaJiayi/pixverse-webui/internal/pixverse"
)

// fakeUpstream records the last request and plays back canned bodies per path.
type fakeUpstream struct {
	server    *httptest.Server
	responses map[string]fakeResponse
	lastPath  string
	lastBody  []byte
	lastPart  string
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{responses: map[string]fakeResponse{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lastPath = r.URL.Path
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err == nil {
				for name := range r.MultipartForm.File {
					f.lastPart = name
				}
			}
		} else if r.Body != nil {
			f.lastBody, _ = io.ReadAll(r.Body)
		}
		res, ok := f.responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(res.status)
		io.WriteString(w, res.body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) respond(path string, status int, body string) {
	f.responses[path] = fakeResponse{status: status, body: body}
}

func newTestApp(t *testing.T, upstream *fakeUpstream) *App {
	t.Helper()
	client, err := pixverse.NewClient(pixverse.Options{
		APIKey:  "test-key",
		BaseURL: upstream.server.URL,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewApp(client, zerolog.New(io.Discard))
}

func postJSON(t *testing.T, handler http.HandlerFunc, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestTextToVideoRelaysEnvelopeVerbatim(t *testing.T) {
	upstream := newFakeUpstream(t)
	envelope := `{"ErrCode":0,"ErrMsg":"success","Resp":{"video_id":348273}}`
	upstream.respond("/openapi/v2/video/text/generate", http.StatusOK, envelope)
	app := newTestApp(t, upstream)

	rec := postJSON(t, app.TextToVideo, `{"prompt":"a red fox","quality":"720p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != envelope {
		t.Fatalf("body = %s, want upstream envelope untouched", got)
	}

	var sent map[string]any
	if err := json.Unmarshal(upstream.lastBody, &sent); err != nil {
		t.Fatalf("decode upstream payload: %v", err)
	}
	if sent["prompt"] != "a red fox" || sent["quality"] != "720p" {
		t.Fatalf("upstream payload = %v", sent)
	}
	if sent["duration"] != float64(5) {
		t.Fatalf("duration default missing: %v", sent)
	}
}

func TestTextToVideoUpstreamRejectionStillRelayed(t *testing.T) {
	// a business-level rejection is HTTP 200 with a non-zero ErrCode; the
	// page inspects the envelope itself
	upstream := newFakeUpstream(t)
	envelope := `{"ErrCode":400032,"ErrMsg":"insufficient credits","Resp":{}}`
	upstream.respond("/openapi/v2/video/text/generate", http.StatusOK, envelope)
	app := newTestApp(t, upstream)

	rec := postJSON(t, app.TextToVideo, `{"prompt":"a red fox"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != envelope {
		t.Fatalf("body = %s", got)
	}
}

func TestGenerateValidation(t *testing.T) {
	app := newTestApp(t, newFakeUpstream(t))

	cases := []struct {
		name    string
		handler http.HandlerFunc
		payload string
		want    string
	}{
		{"empty prompt", app.TextToVideo, `{"prompt":""}`, "prompt is required"},
		{"bad json", app.TextToVideo, `{`, "invalid JSON body"},
		{"seed range", app.TextToVideo, `{"prompt":"x","seed":2147483648}`, "seed must be between 0 and 2147483647"},
		{"missing img", app.ImageToVideo, `{"prompt":"x"}`, "img_id is required"},
		{"missing source", app.ExtendVideo, `{"prompt":"x"}`, "source_video_id or video_media_id is required"},
		{"missing frames", app.TransitionVideo, `{"prompt":"x","first_frame_img":1}`, "first_frame_img and last_frame_img are required"},
	}
	for _, tc := range cases {
		rec := postJSON(t, tc.handler, tc.payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", tc.name, rec.Code)
		}
		if body := decodeError(t, rec); body["error"] != tc.want {
			t.Fatalf("%s: error = %v, want %q", tc.name, body["error"], tc.want)
		}
	}
}

func TestUpstreamFailureAnswers500WithDetail(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.respond("/openapi/v2/video/text/generate", http.StatusBadGateway, `{"reason":"upstream down"}`)
	app := newTestApp(t, upstream)

	rec := postJSON(t, app.TextToVideo, `{"prompt":"a red fox"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "text-to-video generation failed" {
		t.Fatalf("error = %v", body["error"])
	}
	detail, ok := body["detail"].(map[string]any)
	if !ok {
		t.Fatalf("detail = %v, want relayed upstream JSON", body["detail"])
	}
	if detail["reason"] != "upstream down" {
		t.Fatalf("detail = %v", detail)
	}
}

func TestUploadImageRenamesPartForUpstream(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.respond("/openapi/v2/image/upload", http.StatusOK, `{"ErrCode":0,"ErrMsg":"success","Resp":{"img_id":777}}`)
	app := newTestApp(t, upstream)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "frame.png")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte{0x89, 'P', 'N', 'G'})
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	app.UploadImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if upstream.lastPart != "image" {
		t.Fatalf("upstream part = %q, want image", upstream.lastPart)
	}
	if !strings.Contains(rec.Body.String(), `"img_id":777`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestUploadWithoutFileAnswers400(t *testing.T) {
	app := newTestApp(t, newFakeUpstream(t))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("note", "no file here")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	app.UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "file field is required" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestVideoStatusRelaysByID(t *testing.T) {
	upstream := newFakeUpstream(t)
	envelope := `{"ErrCode":0,"ErrMsg":"success","Resp":{"status":1,"url":"https://media.pixverse.ai/out.mp4"}}`
	upstream.respond("/openapi/v2/video/result/348273", http.StatusOK, envelope)
	app := newTestApp(t, upstream)

	r := chi.NewRouter()
	r.Get("/api/video-status/{videoID}", app.VideoStatus)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/video-status/348273", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != envelope {
		t.Fatalf("body = %s", got)
	}
	if upstream.lastPath != "/openapi/v2/video/result/348273" {
		t.Fatalf("upstream path = %s", upstream.lastPath)
	}
}

func TestPassthroughRelaysBodyUntouched(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.respond("/openapi/v2/video/lipsync/generate", http.StatusOK, `{"ErrCode":0,"ErrMsg":"success","Resp":{"video_id":5}}`)
	app := newTestApp(t, upstream)

	handler := app.Passthrough(http.MethodPost, "/openapi/v2/video/lipsync/generate", "lip sync generation failed")
	rec := postJSON(t, handler, `{"video_id":348273,"tts_id":"voice-3","text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if string(upstream.lastBody) != `{"video_id":348273,"tts_id":"voice-3","text":"hello"}` {
		t.Fatalf("upstream body = %s", upstream.lastBody)
	}
}

func TestHealthReportsKeyPresence(t *testing.T) {
	app := newTestApp(t, newFakeUpstream(t))
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["apiKeyPresent"] != true {
		t.Fatalf("body = %v", body)
	}
}
