package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"norelock.dev/listenify/grabber/internal/api/handlers"
	"norelock.dev/listenify/grabber/internal/config"
	"norelock.dev/listenify/grabber/internal/models"
	"norelock.dev/listenify/grabber/internal/services/selection"
	"norelock.dev/listenify/grabber/internal/services/system"
	"norelock.dev/listenify/grabber/internal/utils"
)

type fakeCatalog struct {
	sets     map[string]models.ResultSet
	videos   map[string]*models.VideoDetails
	videoErr error
}

func (c *fakeCatalog) Results(_ context.Context, query string) (models.ResultSet, error) {
	if query == "explode" {
		return nil, utils.CollaboratorError("search", errors.New("upstream 503 with secret detail"))
	}
	return c.sets[query].Clone(), nil
}

func (c *fakeCatalog) Video(_ context.Context, url string) (*models.VideoDetails, error) {
	if c.videoErr != nil {
		return nil, utils.CollaboratorError("metadata", c.videoErr)
	}
	v, ok := c.videos[url]
	if !ok {
		return nil, utils.CollaboratorError("metadata", errors.New("unknown"))
	}
	return v, nil
}

func (c *fakeCatalog) IsVideoURL(query string) bool {
	return strings.HasPrefix(query, "https://youtu.be/")
}

type fakeStreamer struct {
	calls     int
	err       error
	committed bool
}

func (s *fakeStreamer) Stream(_ context.Context, w http.ResponseWriter, res *selection.Resolution) (bool, error) {
	s.calls++
	if s.err != nil {
		return s.committed, s.err
	}
	utils.SetAttachmentHeaders(w, res.Filename(true), "audio/mpeg")
	_, _ = w.Write([]byte("mp3"))
	return true, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		sets: map[string]models.ResultSet{
			"foo": {
				{Title: "Foo One", URL: "https://youtu.be/one", Kind: models.KindVideo},
				{Title: "Foo Two", URL: "https://youtu.be/two", Kind: models.KindVideo},
			},
		},
		videos: map[string]*models.VideoDetails{
			"https://youtu.be/one": {
				Title: "Song: Title? (Live)",
				Formats: []models.FormatDescriptor{
					{QualityLabel: "720p", MimeType: "video/mp4", HasVideo: true, MediaURL: "https://m/v720"},
					{QualityLabel: "480p", MimeType: "video/mp4", HasVideo: true, MediaURL: "https://m/v480"},
					{QualityLabel: "720p", MimeType: "video/webm", HasVideo: true, MediaURL: "https://m/v720b"},
					{MimeType: "audio/webm", HasAudio: true, MediaURL: "https://m/audio"},
				},
			},
			"https://youtu.be/two": {
				Title: "Video only",
				Formats: []models.FormatDescriptor{
					{QualityLabel: "360p", MimeType: "video/mp4", HasVideo: true, MediaURL: "https://m/v360"},
				},
			},
			"https://youtu.be/empty": {Title: "Nothing"},
		},
	}
}

func newTestRouter(t *testing.T, catalog *fakeCatalog, streamer *fakeStreamer, delivery string) http.Handler {
	t.Helper()
	logger := utils.NewNopLogger()

	cfg := &config.Config{}
	cfg.Media.Delivery = delivery

	flow := selection.NewFlow(catalog, logger)
	metrics := system.NewMetricsService(logger)
	mediaHandler := handlers.NewMediaHandler(flow, catalog, streamer, delivery, metrics, logger)
	health := system.NewHealthService(logger, system.HealthServiceConfig{})

	return NewRouter(mediaHandler, health, metrics, cfg, logger)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestUnmatchedRoutes(t *testing.T) {
	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryURL)

	rec := do(t, h, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[utils.ErrorBody](t, rec); body.Error != "Not Found" {
		t.Fatalf("body = %+v", body)
	}

	rec = do(t, h, http.MethodPost, "/api?search=foo")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[utils.ErrorBody](t, rec); body.Error != "Method Not Allowed" {
		t.Fatalf("body = %+v", body)
	}
}

func TestSelectionErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		want   string
	}{
		{"missing query", "/api", http.StatusBadRequest, "Query parameter or link is missing."},
		{"no results", "/api?search=nothing", http.StatusNotFound, "No videos found for the given query."},
		{"selection zero", "/api?search=foo&select=0", http.StatusBadRequest, `Invalid selection "0". Choose a number between 1 and 2.`},
		{"selection past end", "/api?search=foo&select=3", http.StatusBadRequest, `Invalid selection "3". Choose a number between 1 and 2.`},
		{"bad format", "/api?search=foo&select=1&formateselect=3", http.StatusBadRequest, `Invalid format selection "3". Use 1 for audio or 2 for video.`},
		{"bad quality", "/api?search=foo&select=1&formateselect=2&qualityselect=9", http.StatusBadRequest, "Quality selection 9 is out of range (1-2)."},
		{"no audio", "/api?search=foo&select=2&formateselect=1", http.StatusNotFound, "No suitable audio format found for the video."},
		{"search failure", "/api?search=explode", http.StatusInternalServerError, utils.GenericFailureMessage},
	}

	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryURL)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if body := decode[utils.ErrorBody](t, rec); body.Error != tt.want {
				t.Fatalf("error = %q, want %q", body.Error, tt.want)
			}
		})
	}
}

func TestSelectionMenus(t *testing.T) {
	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryURL)

	tests := []struct {
		target string
		typ    models.ResponseType
		data   []string
	}{
		{"/api?search=foo", models.ResponseSearch, []string{"1. Foo One", "2. Foo Two"}},
		{"/api?query=foo", models.ResponseSearch, []string{"1. Foo One", "2. Foo Two"}},
		{"/api?search=foo&select=1", models.ResponseSelectFormat, []string{"1. [audio]", "2. [video]"}},
		{"/api?search=foo&select=1&formateselect=2", models.ResponseSelectQuality, []string{"1. [720p]", "2. [480p]"}},
	}

	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, tt.target)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d (%s)", tt.target, rec.Code, rec.Body.String())
		}
		got := decode[models.MenuResponse](t, rec)
		if got.Type != tt.typ || !reflect.DeepEqual(got.Data, tt.data) {
			t.Fatalf("%s: got %+v", tt.target, got)
		}
	}
}

func TestURLDelivery(t *testing.T) {
	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryURL)

	rec := do(t, h, http.MethodGet, "/api?search=foo&select=1&formateselect=1")
	got := decode[models.DownloadResponse](t, rec)
	want := models.DownloadResponse{
		Type: models.ResponseDownloadAudio,
		Data: models.DownloadLink{Title: "Song: Title? (Live)", DownloadURL: "https://m/audio"},
	}
	if got != want {
		t.Fatalf("audio = %+v, want %+v", got, want)
	}

	rec = do(t, h, http.MethodGet, "/api?search=foo&select=1&formateselect=2&qualityselect=1")
	got = decode[models.DownloadResponse](t, rec)
	if got.Type != models.ResponseDownloadVideo || got.Data.DownloadURL != "https://m/v720" {
		t.Fatalf("video = %+v", got)
	}
}

func TestStreamDelivery(t *testing.T) {
	streamer := &fakeStreamer{}
	h := newTestRouter(t, newCatalog(), streamer, config.DeliveryStream)

	rec := do(t, h, http.MethodGet, "/api?search=foo&select=1&formateselect=1")
	if rec.Code != http.StatusOK || streamer.calls != 1 {
		t.Fatalf("status = %d, calls = %d", rec.Code, streamer.calls)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Song__Title___Live_.mp3"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "mp3" {
		t.Fatalf("body = %q", body)
	}
}

func TestStreamFailureBeforeOutput(t *testing.T) {
	streamer := &fakeStreamer{err: utils.CollaboratorError("stream", errors.New("403 from upstream"))}
	h := newTestRouter(t, newCatalog(), streamer, config.DeliveryStream)

	rec := do(t, h, http.MethodGet, "/api?search=foo&select=1&formateselect=1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decode[utils.ErrorBody](t, rec); body.Error != utils.GenericFailureMessage {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestDirectLinkShortcut(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		want   any
	}{
		{"missing", "/download", http.StatusBadRequest, utils.ErrorBody{Error: "Query parameter or link is missing."}},
		{"no videos", "/download?query=nothing", http.StatusNotFound, utils.ErrorBody{Error: "No videos found for the given query."}},
		{"no formats", "/download?link=https://youtu.be/empty", http.StatusNotFound, utils.ErrorBody{Error: "No suitable formats found for the video."}},
		{"no audio", "/download?link=https://youtu.be/two", http.StatusNotFound, utils.ErrorBody{Error: "No suitable audio format found for the video."}},
		{"search hit", "/download?query=foo", http.StatusOK, models.DirectLinkResponse{Title: "Song: Title? (Live)", DownloadURL: "https://m/audio"}},
		{"link", "/download?link=https://youtu.be/one", http.StatusOK, models.DirectLinkResponse{Title: "Song: Title? (Live)", DownloadURL: "https://m/audio"}},
	}

	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryStream)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			want, _ := json.Marshal(tt.want)
			if strings.TrimSpace(rec.Body.String()) != string(want) {
				t.Fatalf("body = %s, want %s", rec.Body.String(), want)
			}
		})
	}
}

func TestDirectLinkMetadataFailure(t *testing.T) {
	catalog := newCatalog()
	catalog.videoErr = errors.New("signature extraction failed")
	h := newTestRouter(t, catalog, &fakeStreamer{}, config.DeliveryURL)

	rec := do(t, h, http.MethodGet, "/download?query=foo")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "signature") {
		t.Fatalf("cause leaked: %s", rec.Body.String())
	}
}

func TestOperationalRoutes(t *testing.T) {
	h := newTestRouter(t, newCatalog(), &fakeStreamer{}, config.DeliveryURL)

	for _, target := range []string{"/ping", "/health", "/health/details", "/metrics"} {
		if rec := do(t, h, http.MethodGet, target); rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}

	do(t, h, http.MethodGet, "/api?search=foo")
	rec := do(t, h, http.MethodGet, "/metrics")
	if !strings.Contains(rec.Body.String(), `grabber_http_requests_total{method="GET",path="/api",status="200"}`) {
		t.Errorf("metrics missing /api request counter")
	}
}
