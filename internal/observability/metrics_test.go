package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	// Registering twice on the same registry would fail; a fresh instance
	// must always succeed.
	m2, err := NewMetrics()
	require.NoError(t, err)
	assert.NotSame(t, m.registry, m2.registry)
}

func TestMetricsEndpoint(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.IngestsProcessed.WithLabelValues("image", "success").Inc()
	m.NotificationsSent.Inc()

	mux := http.NewServeMux()
	m.RegisterHandlers(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "birdtag_ingests_processed_total"))
	assert.True(t, strings.Contains(body, "birdtag_notifications_sent_total"))
}
