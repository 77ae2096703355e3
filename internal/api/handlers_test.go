package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
	"github.com/vuqn/pagepost/internal/poll"
	"github.com/vuqn/pagepost/internal/prefs"
	"github.com/vuqn/pagepost/internal/storage"
	"github.com/vuqn/pagepost/internal/submit"
	"github.com/vuqn/pagepost/internal/uploader"
	"github.com/vuqn/pagepost/internal/validate"
)

type stubProber struct {
	duration float64
}

func (s stubProber) Duration(context.Context, model.Media) (float64, error) {
	return s.duration, nil
}

type backendCall struct {
	Path string
	Body map[string]any
}

// fakeBackend stands in for the publishing service on localhost:8000.
type fakeBackend struct {
	calls   []backendCall
	results http.HandlerFunc
}

func (b *fakeBackend) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/results/") {
			if b.results != nil {
				b.results(w, r)
				return
			}
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.calls = append(b.calls, backendCall{Path: r.URL.Path, Body: body})
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "msg": "task accepted for processing"})
	}
}

func newTestRouter(t *testing.T, backend *fakeBackend, uploadDir string) *gin.Engine {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	log := zerolog.Nop()
	prefStore, err := prefs.Load(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatal(err)
	}
	h := &Handler{
		Validator: validate.New(stubProber{duration: 10}, log),
		Policies: validate.Policies{
			MaxVideoSizeBytes:     2048 * 1024 * 1024,
			MinVideoDuration:      3,
			MaxStoryVideoDuration: 60,
			MaxReelVideoDuration:  90,
		},
		Uploader:  uploader.New(storage.NewDiskStore(uploadDir, log), log),
		Submitter: submit.New(server.URL, 5*time.Second, log),
		Poller:    poll.New(server.URL, time.Second, 5*time.Second, log),
		Prefs:     prefStore,
		Log:       log,
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHandlers(r, h)
	return r
}

func multipartUpload(t *testing.T, filename, mimeType, kind, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if kind != "" {
		_ = w.WriteField("kind", kind)
	}
	if contentType != "" {
		_ = w.WriteField("content_type", contentType)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func doJSON(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(payload)
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadPhoto(t *testing.T) {
	dir := t.TempDir()
	r := newTestRouter(t, &fakeBackend{}, dir)

	body, contentType := multipartUpload(t, "cat.png", "image/png", "photo", "feed", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success  bool   `json:"success"`
		Filepath string `json:"filepath"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if !filepath.IsAbs(resp.Filepath) || !strings.HasPrefix(resp.Filepath, dir) {
		t.Fatalf("filepath = %q, want absolute path under %q", resp.Filepath, dir)
	}
	if !strings.HasSuffix(resp.Filepath, "_cat.png") {
		t.Fatalf("filepath should keep the original name, got %q", resp.Filepath)
	}
}

func TestUploadRejectsBadType(t *testing.T) {
	r := newTestRouter(t, &fakeBackend{}, t.TempDir())

	body, contentType := multipartUpload(t, "anim.gif", "image/gif", "photo", "", []byte("gif"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PNG, JPG, JPEG, and WEBP") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestUploadMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nope")
	r := newTestRouter(t, &fakeBackend{}, dir)

	body, contentType := multipartUpload(t, "cat.png", "image/png", "photo", "", []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), dir) {
		t.Fatalf("error should name the missing directory, body = %s", rec.Body.String())
	}
}

func TestSubmitReelEndToEnd(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(t, backend, t.TempDir())

	rec := doJSON(r, http.MethodPost, "/api/reel", map[string]any{
		"caption":        "new reel",
		"video":          "/post_data/2025_video.mp4",
		"share_to_story": true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var receipt model.Receipt
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(receipt.TaskID); err != nil {
		t.Fatalf("task id %q is not a UUID: %v", receipt.TaskID, err)
	}
	if receipt.Status != "accepted" {
		t.Fatalf("status = %q", receipt.Status)
	}

	if len(backend.calls) != 1 {
		t.Fatalf("backend calls = %d", len(backend.calls))
	}
	call := backend.calls[0]
	if call.Path != "/reel" {
		t.Fatalf("backend path = %q", call.Path)
	}
	if call.Body["video"] != "/post_data/2025_video.mp4" {
		t.Fatalf("video = %v", call.Body["video"])
	}
	if call.Body["share_to_story"] != true {
		t.Fatalf("share_to_story = %v", call.Body["share_to_story"])
	}
	if call.Body["task_id"] != receipt.TaskID {
		t.Fatalf("backend saw task_id %v, receipt has %q", call.Body["task_id"], receipt.TaskID)
	}
}

func TestSubmitStoryTypes(t *testing.T) {
	backend := &fakeBackend{}
	r := newTestRouter(t, backend, t.TempDir())

	rec := doJSON(r, http.MethodPost, "/api/story", map[string]any{"type": "photo", "photo": "/p/a.png"})
	if rec.Code != http.StatusOK {
		t.Fatalf("photo story status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(r, http.MethodPost, "/api/story", map[string]any{"type": "video", "video": "/p/a.mp4"})
	if rec.Code != http.StatusOK {
		t.Fatalf("video story status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(r, http.MethodPost, "/api/story", map[string]any{"type": "carousel"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad story type status = %d", rec.Code)
	}

	if backend.calls[0].Path != "/story/photo" || backend.calls[1].Path != "/story/video" {
		t.Fatalf("backend paths = %v, %v", backend.calls[0].Path, backend.calls[1].Path)
	}
}

func TestSubmitWithoutUploadedAsset(t *testing.T) {
	r := newTestRouter(t, &fakeBackend{}, t.TempDir())
	rec := doJSON(r, http.MethodPost, "/api/story", map[string]any{"type": "photo"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestResultsNotFound(t *testing.T) {
	r := newTestRouter(t, &fakeBackend{}, t.TempDir())
	req := httptest.NewRequest(http.MethodGet, "/api/results/unknown-task", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "task not found") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestResultsInProgressAndTerminal(t *testing.T) {
	backend := &fakeBackend{}
	terminal := false
	backend.results = func(w http.ResponseWriter, req *http.Request) {
		if !terminal {
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "in_progress", "msg": "working"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"page_responses": []map[string]string{
				{"status": "success", "page_names": "Page One", "page_url": "https://fb.example/1"},
			},
		})
	}
	r := newTestRouter(t, backend, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/results/t1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("in-progress status = %d, want 202", rec.Code)
	}

	terminal = true
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("terminal status = %d, want 200", rec.Code)
	}
	var result model.TaskResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if len(result.PageResponses) != 1 || result.PageResponses[0].PageNames != "Page One" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLanguageRoundTrip(t *testing.T) {
	r := newTestRouter(t, &fakeBackend{}, t.TempDir())

	rec := doJSON(r, http.MethodPut, "/api/settings/language", map[string]string{"language": "vi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/settings/language", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"vi"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}
