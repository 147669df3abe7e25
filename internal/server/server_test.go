package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/reqcheck/pkg/checker"
	"github.com/matzehuels/reqcheck/pkg/httputil"
	"github.com/matzehuels/reqcheck/pkg/observability"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestServer(t *testing.T, root string) (*Server, *httptest.Server) {
	t.Helper()
	t.Cleanup(observability.Reset)
	engine, err := checker.New(checker.Options{RootDir: root, RequirementsMaxDepth: checker.DefaultRequirementsMaxDepth})
	require.NoError(t, err)
	srv, err := New(Options{
		Engine:   engine,
		Logger:   log.New(io.Discard),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postCheck(t *testing.T, ts *httptest.Server, req CheckRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/check", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCheckEndpoint(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "requests\n")
	srv, ts := newTestServer(t, root)

	src := "import os\nimport requests\nimport numpy\n"
	resp := postCheck(t, ts, CheckRequest{Filename: "pkg/mod.py", Source: src})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got CheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "pkg/mod.py", got.Filename)
	require.Len(t, got.Findings, 1)
	assert.Equal(t, "pkg/mod.py", got.Findings[0].Filename)
	assert.Equal(t, 3, got.Findings[0].Line)
	assert.Equal(t, "I900 'numpy' not listed as a requirement", got.Findings[0].Message)

	// The second request with the same text is served from the import cache.
	postCheck(t, ts, CheckRequest{Filename: "other.py", Source: src})
	m := srv.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues(importsOp)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues(importsOp)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FindingsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChecksTotal.WithLabelValues("ok")))
}

func TestCheckEndpointEmptyFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "")
	_, ts := newTestServer(t, root)

	resp := postCheck(t, ts, CheckRequest{Filename: "mod.py", Source: "import os\n"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"findings":[]`)
}

func TestCheckEndpointErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "requirements.txt"), "-r missing.txt\n")
	_, ts := newTestServer(t, root)

	tests := []struct {
		name string
		req  CheckRequest
		want int
		code string
	}{
		{"absolute path", CheckRequest{Filename: "/etc/passwd", Source: ""}, http.StatusBadRequest, "INVALID_PATH"},
		{"traversal", CheckRequest{Filename: "../x.py", Source: ""}, http.StatusBadRequest, "INVALID_PATH"},
		{"syntax error", CheckRequest{Filename: "bad.py", Source: "x = 'open\n"}, http.StatusUnprocessableEntity, "PARSE_ERROR"},
		{"broken include", CheckRequest{Filename: "mod.py", Source: "import click\n"}, http.StatusConflict, "REQUIREMENTS_FILE_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postCheck(t, ts, tt.req)
			assert.Equal(t, tt.want, resp.StatusCode)
			var body httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	resp, err := http.Post(ts.URL+"/v1/check", "application/json", strings.NewReader(`{"filename": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequirementsAndReset(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"demo\"\ndependencies = [\"PyYAML\"]\n")
	_, ts := newTestServer(t, root)

	get := func() checker.Summary {
		resp, err := http.Get(ts.URL + "/v1/requirements")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var s checker.Summary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
		return s
	}

	s := get()
	assert.Equal(t, "demo", s.FirstParty)
	require.Len(t, s.Requirements, 1)
	assert.Equal(t, []string{"yaml", "_yaml"}, s.Requirements[0].Modules)

	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"demo\"\ndependencies = [\"PyYAML\", \"click\"]\n")
	assert.Len(t, get().Requirements, 1)

	resp, err := http.Post(ts.URL+"/v1/reset", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, get().Requirements, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, t.TempDir())

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])

	resp, err = http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `reqcheck_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Contains(t, text, `reqcheck_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
