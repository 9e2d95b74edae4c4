package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"media-lightbox/internal/database"
	"media-lightbox/internal/display"
	"media-lightbox/internal/media"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/page"
	"media-lightbox/internal/preferences"
	"media-lightbox/internal/viewer"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeViewer drives a real display recorder synchronously.
type fakeViewer struct {
	mu       sync.Mutex
	rec      *display.Recorder
	items    []*mediatypes.MediaItem
	open     bool
	index    int
	calls    []string
	thumb    *mediatypes.Thumbnail
	thumbErr error
	widths   []int
}

func (v *fakeViewer) record(call string) {
	v.calls = append(v.calls, call)
}

func (v *fakeViewer) Init(items []*mediatypes.MediaItem) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("init")
	if v.open {
		v.open = false
		v.rec.ShowClose()
	}
	v.items = items
}

func (v *fakeViewer) Items() []*mediatypes.MediaItem {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items
}

func (v *fakeViewer) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

func (v *fakeViewer) show() {
	item := v.items[v.index]
	v.rec.ShowPlaceholder(item, mediatypes.ThumbnailWidth{CSS: 200, CSSHeight: 100, Screen: 200, Real: 320})
	v.rec.ShowControls(len(v.items) > 1, len(v.items) > 1)
}

func (v *fakeViewer) Open(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("open")
	if !v.open {
		v.rec.ShowOpen()
	}
	v.open = true
	v.index = index
	v.show()
}

func (v *fakeViewer) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("next")
	v.index = (v.index + 1) % len(v.items)
	v.show()
}

func (v *fakeViewer) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("prev")
	v.index = (v.index - 1 + len(v.items)) % len(v.items)
	v.show()
}

func (v *fakeViewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("close")
	if v.open {
		v.open = false
		v.rec.ShowClose()
	}
}

func (v *fakeViewer) HandleRoute(location string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("route:" + location)
}

func (v *fakeViewer) Resize() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.record("resize")
}

func (v *fakeViewer) RequestThumbnail(_ context.Context, width int) (*mediatypes.Thumbnail, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.widths = append(v.widths, width)
	if !v.open {
		return nil, viewer.ErrNoCurrentFile
	}
	if v.thumbErr != nil {
		return nil, v.thumbErr
	}
	return v.thumb, nil
}

func (v *fakeViewer) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

type fakeImages struct {
	data []byte
	err  error
}

func (f *fakeImages) Fetch(_ context.Context, url string, _ func(float64)) (*mediatypes.ImageHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &mediatypes.ImageHandle{URL: url, Data: f.data, ContentType: "image/png"}, nil
}

type memPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memPrefs) GetPreference(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	if !ok {
		return "", database.ErrNotFound
	}
	return v, nil
}

func (m *memPrefs) SetPreference(_ context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

func (m *memPrefs) DeletePreference(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

type testEnv struct {
	h      *Handlers
	viewer *fakeViewer
	rec    *display.Recorder
	widths *media.WidthCalculator
	router *mux.Router
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestEnv(t *testing.T, prefs *preferences.Service) *testEnv {
	t.Helper()

	scanner, err := page.NewScanner(nil)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}

	rec := display.NewRecorder()
	v := &fakeViewer{
		rec:   rec,
		thumb: &mediatypes.Thumbnail{URL: "https://upload.example.org/640px-Cat.jpg", Width: 640, Height: 480},
	}
	widths := media.NewWidthCalculator(media.DefaultViewport, nil)

	h := New(Deps{
		Viewer:      v,
		Display:     rec,
		Scanner:     scanner,
		Widths:      widths,
		Images:      &fakeImages{data: pngBytes(t, 40, 20)},
		Preferences: prefs,
	})

	r := mux.NewRouter()
	h.Register(r)

	return &testEnv{h: h, viewer: v, rec: rec, widths: widths, router: r}
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

const galleryHTML = `<html><body>
<figure><a href="/wiki/File:Cat.jpg"><img src="/thumb/Cat.jpg/220px-Cat.jpg" width="220" height="165" data-file-width="4000" data-file-height="3000"></a><figcaption>A cat</figcaption></figure>
<a href="/wiki/File:Dog.png"><img src="/thumb/Dog.png/120px-Dog.png" width="120" height="80"></a>
</body></html>`

func (e *testEnv) loadGallery(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/gallery?base=https://en.example.org/wiki/Pets", "text/html", galleryHTML)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/gallery = %d: %s", w.Code, w.Body.String())
	}
}

// =============================================================================
// writeJSON Tests
// =============================================================================

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"Simple map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"String slice", []string{"a", "b"}, `["a","b"]`},
		{"Null", nil, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)
			if got := strings.TrimSpace(w.Body.String()); got != tt.expected {
				t.Errorf("writeJSON() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, "boom", http.StatusTeapot)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["error"] != "boom" {
		t.Errorf("error = %q, want boom", body["error"])
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 7, false},
		{"?width=320", 320, false},
		{"?width=-1", -1, false},
		{"?width=big", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
			got, err := queryInt(r, "width", 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("queryInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	t.Run("Starting before the first load", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(t, http.MethodGet, "/health", "", "")

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", w.Code)
		}
		var resp HealthResponse
		decodeBody(t, w, &resp)
		if resp.Status != statusStarting || resp.Ready {
			t.Errorf("status = %q ready = %v, want starting/false", resp.Status, resp.Ready)
		}
	})

	t.Run("Healthy after load", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.loadGallery(t)
		env.h.MarkReady(nil)

		w := env.do(t, http.MethodGet, "/healthz", "", "")
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		var resp HealthResponse
		decodeBody(t, w, &resp)
		if resp.Status != statusHealthy {
			t.Errorf("status = %q, want healthy", resp.Status)
		}
		if resp.Gallery.Items != 2 {
			t.Errorf("gallery items = %d, want 2", resp.Gallery.Items)
		}
	})

	t.Run("Degraded after a failed load", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.h.MarkReady(errors.New("page unreachable"))

		w := env.do(t, http.MethodGet, "/health", "", "")
		var resp HealthResponse
		decodeBody(t, w, &resp)
		if w.Code != http.StatusOK || resp.Status != statusDegraded {
			t.Errorf("status = %d/%q, want 200/degraded", w.Code, resp.Status)
		}
		if resp.LoadError != "page unreachable" {
			t.Errorf("loadError = %q", resp.LoadError)
		}
	})

	t.Run("Degraded when a check fails", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.h.checks = map[string]func(context.Context) error{
			"cache": func(context.Context) error { return errors.New("connection refused") },
			"api":   func(context.Context) error { return nil },
		}
		env.h.MarkReady(nil)

		w := env.do(t, http.MethodGet, "/health", "", "")
		var resp HealthResponse
		decodeBody(t, w, &resp)
		if resp.Status != statusDegraded {
			t.Errorf("status = %q, want degraded", resp.Status)
		}
		if resp.Checks["cache"] != "connection refused" || resp.Checks["api"] != "ok" {
			t.Errorf("checks = %v", resp.Checks)
		}
	})
}

func TestLivenessCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/livez", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "alive") {
		t.Errorf("GET /livez = %d %q", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodHead, "/livez", "", "")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Errorf("HEAD /livez = %d with %d body bytes", w.Code, w.Body.Len())
	}
}

func TestReadinessCheck(t *testing.T) {
	env := newTestEnv(t, nil)

	if w := env.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("before ready = %d, want 503", w.Code)
	}
	env.h.MarkReady(nil)
	if w := env.do(t, http.MethodGet, "/readyz", "", ""); w.Code != http.StatusOK {
		t.Errorf("after ready = %d, want 200", w.Code)
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodGet, "/version", "", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var info map[string]string
	decodeBody(t, w, &info)
	if info["version"] == "" || info["goVersion"] == "" {
		t.Errorf("build info = %v", info)
	}
}

// =============================================================================
// Gallery Tests
// =============================================================================

func TestPostGalleryHTML(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadGallery(t)

	items := env.viewer.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].FileTitle != "File:Cat.jpg" || items[0].Caption != "A cat" {
		t.Errorf("first item = %q %q", items[0].FileTitle, items[0].Caption)
	}

	w := env.do(t, http.MethodGet, "/api/gallery", "", "")
	var resp struct {
		Source string `json:"source"`
		Items  []struct {
			FileTitle     string `json:"fileTitle"`
			ThumbURL      string `json:"thumbUrl"`
			OriginalWidth int    `json:"originalWidth"`
		} `json:"items"`
	}
	decodeBody(t, w, &resp)

	if resp.Source != "request body" || len(resp.Items) != 2 {
		t.Fatalf("gallery = %+v", resp)
	}
	if resp.Items[0].ThumbURL != "https://en.example.org/thumb/Cat.jpg/220px-Cat.jpg" {
		t.Errorf("thumbUrl = %q", resp.Items[0].ThumbURL)
	}
	if resp.Items[0].OriginalWidth != 4000 || resp.Items[1].OriginalWidth != 0 {
		t.Errorf("original widths = %d, %d", resp.Items[0].OriginalWidth, resp.Items[1].OriginalWidth)
	}
}

func TestPostGalleryClosesViewer(t *testing.T) {
	env := newTestEnv(t, nil)
	env.loadGallery(t)
	env.do(t, http.MethodPost, "/api/viewer/open/0", "", "")

	env.loadGallery(t)

	if env.viewer.IsOpen() {
		t.Error("expected the viewer to be closed by a new gallery")
	}
}

func TestPostGalleryURL(t *testing.T) {
	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, galleryHTML)
	}))
	defer pageServer.Close()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Valid URL", `{"url":"` + pageServer.URL + `/wiki/Pets"}`, http.StatusCreated},
		{"Missing URL", `{}`, http.StatusBadRequest},
		{"Not a URL", `{"url":"pets"}`, http.StatusBadRequest},
		{"Unknown field", `{"url":"` + pageServer.URL + `","extra":1}`, http.StatusBadRequest},
		{"Bare host", `{"url":"` + pageServer.URL + `"}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			w := env.do(t, http.MethodPost, "/api/gallery", "application/json", tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
		})
	}
}

func TestPostGalleryUpstreamError(t *testing.T) {
	pageServer := httptest.NewServer(http.NotFoundHandler())
	defer pageServer.Close()

	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/gallery", "application/json", `{"url":"`+pageServer.URL+`/wiki/Pets"}`)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	for _, call := range env.viewer.Calls() {
		if call == "init" {
			t.Error("gallery must not be replaced after a failed load")
		}
	}
}

func TestPostGalleryTooLarge(t *testing.T) {
	env := newTestEnv(t, nil)
	body := "<html><body>" + strings.Repeat("<p>padding</p>", maxDocumentBytes/10) + "</body></html>"

	w := env.do(t, http.MethodPost, "/api/gallery", "text/html", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}
