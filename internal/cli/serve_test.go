package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-schulze/internal/ports"
)

func newTestRouter(t *testing.T, limit rate.Limit, burst int) http.Handler {
	t.Helper()
	return newTimedTestRouter(t, limit, burst, 0)
}

func newTimedTestRouter(t *testing.T, limit rate.Limit, burst int, timeout time.Duration) http.Handler {
	t.Helper()

	registry := prometheus.NewRegistry()
	svc, err := newServices(context.Background(), servicesOptions{
		memoryCache: 8,
		registerer:  registry,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	logger := newLogger(io.Discard, log.DebugLevel)
	return newRouter(svc, logger, registry, limit, burst, timeout)
}

func newTestServer(t *testing.T, limit rate.Limit, burst int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(t, limit, burst))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, contentType, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/evaluate", contentType, strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type outcomeBody struct {
	Election string `json:"election"`
	Cached   bool   `json:"cached"`
	Ranking  []struct {
		Rank       int `json:"rank"`
		Candidates []struct {
			ID string `json:"id"`
		} `json:"candidates"`
	} `json:"ranking"`
}

func TestServe_Health(t *testing.T) {
	srv := newTestServer(t, rate.Inf, 1)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, version, body["version"])
}

func TestServe_Evaluate(t *testing.T) {
	srv := newTestServer(t, rate.Inf, 1)

	resp := post(t, srv, "application/yaml", wikipediaYAML)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got outcomeBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "wikipedia", got.Election)
	assert.False(t, got.Cached)
	require.Len(t, got.Ranking, 5)
	assert.Equal(t, "e", got.Ranking[0].Candidates[0].ID)

	second := post(t, srv, "application/yaml", wikipediaYAML)
	require.Equal(t, http.StatusOK, second.StatusCode)
	var cached outcomeBody
	require.NoError(t, json.NewDecoder(second.Body).Decode(&cached))
	assert.True(t, cached.Cached)
}

func TestServe_EvaluateTOML(t *testing.T) {
	srv := newTestServer(t, rate.Inf, 1)

	resp := post(t, srv, "application/toml", tinyTOML)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got outcomeBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "tiny", got.Election)
	require.Len(t, got.Ranking, 2)
	assert.Equal(t, "y", got.Ranking[0].Candidates[0].ID)
}

func TestServe_EvaluateErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "malformed document",
			body:       "candidates: [",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "failed to parse YAML",
		},
		{
			name:       "unknown candidate reference",
			body:       strings.Replace(wikipediaYAML, "a > c > b > e > d", "a > c > b > e > z", 1),
			wantStatus: http.StatusBadRequest,
			wantMsg:    `"z"`,
		},
		{
			name:       "candidate IDs equal under case folding",
			body:       "version: \"1.0.0\"\nmetadata: {name: folded}\ncandidates: [{id: Alice}, {id: alice}]\nballots: [{ranking: \"Alice\"}]\n",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "collide under case folding",
		},
		{
			name:       "evaluation failure",
			body:       strictYAML,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "election strict",
		},
	}

	srv := newTestServer(t, rate.Inf, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "application/yaml", tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, http.StatusText(tt.wantStatus), body.Error)
			assert.Contains(t, body.Message, tt.wantMsg)
		})
	}
}

func TestServe_EvaluationTimeout(t *testing.T) {
	router := newTimedTestRouter(t, rate.Inf, 1, time.Nanosecond)

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(wikipediaYAML))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var got errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, http.StatusText(http.StatusServiceUnavailable), got.Error)
	assert.Contains(t, got.Message, ports.ErrTimeout.Error())
}

func TestServe_RateLimitBody(t *testing.T) {
	srv := newTestServer(t, rate.Limit(1), 0)

	resp := post(t, srv, "application/yaml", wikipediaYAML)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusText(http.StatusTooManyRequests), body.Error)
	assert.Equal(t, ports.ErrRateLimited.Error(), body.Message)
}

func TestServe_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, rate.Inf, 1)

	body := "# " + strings.Repeat("x", maxBodyBytes)
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var got errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), got.Error)
}

func TestServe_RateLimit(t *testing.T) {
	srv := newTestServer(t, rate.Limit(0.001), 1)

	first := post(t, srv, "application/yaml", tinyTOML)
	// The TOML body read as YAML fails to load but still spends a token.
	assert.Equal(t, http.StatusBadRequest, first.StatusCode)

	second := post(t, srv, "application/yaml", wikipediaYAML)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.NotEmpty(t, second.Header.Get("Retry-After"))

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServe_Metrics(t *testing.T) {
	srv := newTestServer(t, rate.Inf, 1)

	post(t, srv, "application/yaml", wikipediaYAML)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "evaluations_total")
	assert.Contains(t, buf.String(), "cache_requests_total")
}

func TestRequestFormat(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"application/toml", "toml"},
		{"Application/TOML; charset=utf-8", "toml"},
		{"application/yaml", "yaml"},
		{"application/json", "yaml"},
		{"", "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/v1/evaluate", nil)
			r.Header.Set("Content-Type", tt.contentType)
			assert.Equal(t, tt.want, string(requestFormat(r)))
		})
	}
}
