package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerExposesMetrics(t *testing.T) {
	RecordHTTPMetrics(http.MethodGet, "/api/v1/healthz", http.StatusOK, 3*time.Millisecond)
	RecordPublished("trigger")
	IncrementWSActiveConnections()
	defer DecrementWSActiveConnections()

	srv := httptest.NewServer(NewServer())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `relay_published_total{source="trigger"}`)
	assert.Contains(t, string(body), "ws_active_connections 1")
	assert.Contains(t, string(body), `http_requests_total{endpoint="/api/v1/healthz",method="GET",status="200"}`)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
