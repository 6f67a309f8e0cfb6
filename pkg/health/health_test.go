package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(ctx context.Context) error   { return nil }
func fail(ctx context.Context) error { return errors.New("connection refused") }

func TestPing(t *testing.T) {
	assert.Equal(t, StatusUp, Ping(ok, false)(context.Background()).Status)

	down := Ping(fail, false)(context.Background())
	assert.Equal(t, StatusDown, down.Status)
	assert.Equal(t, "connection refused", down.Message)

	assert.Equal(t, StatusDegraded, Ping(fail, true)(context.Background()).Status)
}

func TestRunReportsWorstStatus(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, StatusUp, c.Run(context.Background()).Status, "no checks means up")

	c.Register("postgres", Ping(ok, false))
	c.Register("redis", Ping(fail, true))
	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Len(t, report.Components, 2)
	assert.NotEmpty(t, report.Components["postgres"].Latency)

	c.Register("postgres", Ping(fail, false))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", Ping(fail, true))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "degraded is still ready")

	c.Register("postgres", Ping(fail, false))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, StatusDown, report.Components["postgres"].Status)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
