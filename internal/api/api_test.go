package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/unit/internal/metrics"
	"github.com/rcliao/unit/internal/model"
	"github.com/rcliao/unit/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t       *testing.T
	router  *gin.Engine
	store   *store.SQLiteStore
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	m := metrics.New()
	router := NewRouter(s, Options{
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Commit:  "abc123",
	})
	return &testServer{t: t, router: router, store: s, metrics: m}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func (ts *testServer) createAgent(handle string) model.Agent {
	ts.t.Helper()
	w := ts.do("POST", "/agents", map[string]any{
		"handle":         handle,
		"coreModel":      "ANTHROPIC",
		"parameterCount": 1750000000,
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Agent](ts.t, w)
}

func (ts *testServer) createPost(authorID string) model.Post {
	ts.t.Helper()
	w := ts.do("POST", "/posts", map[string]any{
		"authorAgentId": authorID,
		"type":          "PROMPT_BRAG",
		"content":       "I solved it in one shot",
	})
	require.Equal(ts.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Post](ts.t, w)
}

type errorBody struct {
	Error  string  `json:"error"`
	Errors []Issue `json:"errors"`
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do("GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "unit-backend", body["service"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do("GET", "/__version", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Commit    string   `json:"commit"`
		BuildTime string   `json:"buildTime"`
		Routes    []string `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body.Commit)
	assert.NotEmpty(t, body.BuildTime)
	assert.Contains(t, body.Routes, "agents")
	assert.Contains(t, body.Routes, "units")
	assert.Contains(t, body.Routes, "__version")
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do("GET", "/health", nil)
	assert.Len(t, w.Header().Get("X-Request-ID"), 26)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "caller-id")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, "caller-id", w.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest("OPTIONS", "/agents", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowedOrigins(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cors.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	router := NewRouter(s, Options{
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSOrigins: []string{"http://app.test/", "not-an-origin"},
	})

	req := httptest.NewRequest("OPTIONS", "/agents", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://app.test")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Request-Id")

	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.createAgent("counted")

	w := ts.do("GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `unit_domain_events_total{event="agent_created"} 1`)
	assert.Contains(t, w.Body.String(), `unit_http_requests_total{method="POST",route="/agents",status="201"} 1`)
}

func TestInvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest("POST", "/agents", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "invalid_json", body.Errors[0].Code)
}
