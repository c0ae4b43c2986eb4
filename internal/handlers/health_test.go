package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthReportsServices(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health/", "", nil)
	requireStatus(t, w, http.StatusOK)

	var resp struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
		Version  string            `json:"version"`
	}
	decodeJSON(t, w, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "up", resp.Services["redis"])
	assert.Equal(t, "test", resp.Version)
}

func TestHealthDegradedWhenRedisDown(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	w := env.do(t, http.MethodGet, "/health/", "", nil)
	requireStatus(t, w, http.StatusServiceUnavailable)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
}

func TestInfoListsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/info/", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"parties":"/api/v1/parties/"`)
}

func TestMetricsExposed(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/metrics", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
