// YTBridge - YouTube Media Resolution API
// Copyright 2026 YTBridge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ytbridge/ytbridge

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ytbridge/ytbridge/internal/cache"
	"github.com/ytbridge/ytbridge/internal/config"
	"github.com/ytbridge/ytbridge/internal/extractor"
	"github.com/ytbridge/ytbridge/internal/keyring"
)

const (
	testMasterKey = "test-master-key-0123456789abcdef0123"
	testAPIKey    = "test-api-key-0123456789abcdef0123456"
	testVideoURL  = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
)

// fakeRunner satisfies Extractor without spawning processes.
type fakeRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRunner) Run(ctx context.Context, kind extractor.Kind, rawURL string) (*extractor.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	switch kind {
	case extractor.KindAudio:
		return &extractor.Result{Kind: kind, MediaURL: "https://cdn.example.com/audio.m4a"}, nil
	case extractor.KindVideo:
		return &extractor.Result{Kind: kind, MediaURL: "https://cdn.example.com/video.mp4"}, nil
	default:
		return &extractor.Result{Kind: kind, Metadata: &extractor.Metadata{
			ID:       "dQw4w9WgXcQ",
			Title:    "Test Video",
			Duration: 125,
			Uploader: "Test Channel",
			Formats:  3,
		}}, nil
	}
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRouter(t *testing.T, runner Extractor) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			MasterAPIKey:      testMasterKey,
			RateLimitDisabled: true,
		},
	}
	keys, err := keyring.New(testMasterKey, []string{testAPIKey})
	if err != nil {
		t.Fatalf("keyring.New: %v", err)
	}
	results := cache.New(5*time.Minute, time.Minute)
	t.Cleanup(results.Clear)

	h := NewHandler(cfg, keys, results, runner, "test")
	return NewRouter(cfg, h)
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRootAndHealthAreOpen(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	for _, path := range []string{"/", "/health"} {
		rec := doGet(t, router, path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}

	body := decode(t, doGet(t, router, "/health"))
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
	if _, ok := body["uptime"].(float64); !ok {
		t.Errorf("health uptime = %v, want a number", body["uptime"])
	}
	if _, ok := body["cache"].(map[string]any); !ok {
		t.Errorf("health cache = %v, want a stats object", body["cache"])
	}
}

func TestMetricsEndpointIsOpen(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})
	rec := doGet(t, router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", rec.Code)
	}
}

func TestProtectedEndpointsRequireKey(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	for _, path := range []string{"/info", "/audio", "/video"} {
		rec := doGet(t, router, path+"?url="+testVideoURL)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without key = %d, want 401", path, rec.Code)
		}

		rec = doGet(t, router, path+"?url="+testVideoURL+"&key=wrong-key")
		if rec.Code != http.StatusForbidden {
			t.Errorf("GET %s with bad key = %d, want 403", path, rec.Code)
		}
	}
}

func TestAPIKeySources(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	// Query parameter.
	rec := doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey)
	if rec.Code != http.StatusOK {
		t.Errorf("query key = %d, want 200", rec.Code)
	}

	// X-API-Key header.
	req := httptest.NewRequest(http.MethodGet, "/audio?url="+testVideoURL, nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("X-API-Key header = %d, want 200", rec.Code)
	}

	// Bearer token.
	req = httptest.NewRequest(http.MethodGet, "/audio?url="+testVideoURL, nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Bearer token = %d, want 200", rec.Code)
	}
}

func TestInvalidURLRejected(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(t, runner)

	tests := []struct {
		path    string
		wantMsg string
	}{
		{"/info?key=" + testAPIKey, "Missing YouTube URL parameter."},
		{"/info?url=&key=" + testAPIKey, "Missing YouTube URL parameter."},
		{"/info?url=not-a-url&key=" + testAPIKey, "Invalid URL format."},
		{"/info?url=youtube.com/watch&key=" + testAPIKey, "Invalid URL format."},
	}
	for _, tt := range tests {
		rec := doGet(t, router, tt.path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", tt.path, rec.Code)
		}
		body := decode(t, rec)
		if body["error"] != tt.wantMsg {
			t.Errorf("GET %s error = %v, want %q", tt.path, body["error"], tt.wantMsg)
		}
	}
	if runner.callCount() != 0 {
		t.Errorf("runner invoked %d times for invalid URLs, want 0", runner.callCount())
	}
}

func TestInfoSuccess(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	rec := doGet(t, router, "/info?url="+testVideoURL+"&key="+testAPIKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /info = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["id"] != "dQw4w9WgXcQ" || body["title"] != "Test Video" {
		t.Errorf("unexpected metadata: %v", body)
	}
	if body["duration"] != float64(125) {
		t.Errorf("duration = %v, want 125", body["duration"])
	}
	if body["formats"] != float64(3) {
		t.Errorf("formats = %v, want 3", body["formats"])
	}
	if body["cached"] != false {
		t.Errorf("cached = %v, want false on first request", body["cached"])
	}
}

func TestAudioAndVideoSuccess(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	body := decode(t, doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey))
	if body["audio_url"] != "https://cdn.example.com/audio.m4a" {
		t.Errorf("audio_url = %v", body["audio_url"])
	}

	body = decode(t, doGet(t, router, "/video?url="+testVideoURL+"&key="+testAPIKey))
	if body["video_url"] != "https://cdn.example.com/video.mp4" {
		t.Errorf("video_url = %v", body["video_url"])
	}
}

func TestSecondRequestServedFromCache(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(t, runner)

	first := decode(t, doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey))
	if first["cached"] != false {
		t.Errorf("first cached = %v, want false", first["cached"])
	}

	second := decode(t, doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey))
	if second["cached"] != true {
		t.Errorf("second cached = %v, want true", second["cached"])
	}
	if second["audio_url"] != first["audio_url"] {
		t.Errorf("cached URL differs: %v vs %v", second["audio_url"], first["audio_url"])
	}
	if runner.callCount() != 1 {
		t.Errorf("runner invoked %d times, want 1", runner.callCount())
	}
}

func TestDistinctKindsCachedSeparately(t *testing.T) {
	runner := &fakeRunner{}
	router := newTestRouter(t, runner)

	doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey)
	doGet(t, router, "/video?url="+testVideoURL+"&key="+testAPIKey)

	if runner.callCount() != 2 {
		t.Errorf("runner invoked %d times, want 2 (one per kind)", runner.callCount())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *extractor.ExtractError
		wantStatus int
		wantCode   string
	}{
		{"timeout", &extractor.ExtractError{Kind: extractor.FailureTimeout, Detail: "process exceeded 45s deadline"}, http.StatusGatewayTimeout, "TIMED_OUT"},
		{"tool error", &extractor.ExtractError{Kind: extractor.FailureTool, Detail: "ERROR: Video unavailable"}, http.StatusInternalServerError, "TOOL_ERROR"},
		{"empty output", &extractor.ExtractError{Kind: extractor.FailureEmptyOutput}, http.StatusInternalServerError, "EMPTY_OUTPUT"},
		{"spawn failure", &extractor.ExtractError{Kind: extractor.FailureSpawn, Detail: "executable not found"}, http.StatusInternalServerError, "SPAWN_FAILURE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeRunner{err: tt.err})
			rec := doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decode(t, rec)
			if body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	runner := &fakeRunner{err: &extractor.ExtractError{Kind: extractor.FailureTool, Detail: "ERROR: boom"}}
	router := newTestRouter(t, runner)

	doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey)
	doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey)

	if runner.callCount() != 2 {
		t.Errorf("runner invoked %d times, want 2 (failures must not be cached)", runner.callCount())
	}
}

func TestGenerateKeyFlow(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})

	// No master key.
	rec := doGet(t, router, "/generate-key")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no master key = %d, want 401", rec.Code)
	}

	// Wrong master key.
	rec = doGet(t, router, "/generate-key?master_key=wrong")
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong master key = %d, want 403", rec.Code)
	}

	// Correct key via query parameter.
	rec = doGet(t, router, "/generate-key?master_key="+testMasterKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("mint = %d, body %s", rec.Code, rec.Body.String())
	}
	mintBody := decode(t, rec)
	if mintBody["success"] != true {
		t.Errorf("success = %v, want true", mintBody["success"])
	}
	minted, _ := mintBody["api_key"].(string)
	if minted == "" {
		t.Fatal("minted key missing from response")
	}

	// Minted key works immediately.
	rec = doGet(t, router, "/audio?url="+testVideoURL+"&key="+minted)
	if rec.Code != http.StatusOK {
		t.Errorf("minted key rejected with %d", rec.Code)
	}

	// Correct key via header.
	req := httptest.NewRequest(http.MethodGet, "/generate-key", nil)
	req.Header.Set("X-Master-Key", testMasterKey)
	hrec := httptest.NewRecorder()
	router.ServeHTTP(hrec, req)
	if hrec.Code != http.StatusOK {
		t.Errorf("header master key = %d, want 200", hrec.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	router := newTestRouter(t, &fakeRunner{})
	rec := doGet(t, router, "/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestErrorDetailBounded(t *testing.T) {
	long := strings.Repeat("x", 150)
	runner := &fakeRunner{err: &extractor.ExtractError{Kind: extractor.FailureTool, Detail: long}}
	router := newTestRouter(t, runner)

	body := decode(t, doGet(t, router, "/audio?url="+testVideoURL+"&key="+testAPIKey))
	detail, _ := body["details"].(string)
	if len(detail) > 150 {
		t.Errorf("details length = %d, want <= 150", len(detail))
	}
}
