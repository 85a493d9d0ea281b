package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Separate registries: building twice must not panic
	m1 := NewMetrics()
	m2 := NewMetrics()

	m1.RecordPtySpawn("success")
	assert.Equal(t, 1.0, testutil.ToFloat64(m1.PtySessionsTotal.WithLabelValues("success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.PtySessionsTotal.WithLabelValues("success")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPtySpawn("success")
		m.SetPtySessionsActive(3)
		m.AddPtyBytesRead(10)
		m.RecordWorkspaceOp("load", "success", time.Millisecond)
		m.RecordWSEvent("pty-data", "dropped")
		NewTimer(m, "save").Stop("success")
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordHTTPRequest("GET", "/pty", "200", time.Millisecond)
	m.RecordHTTPRequest("GET", "/pty/:id", "404", time.Millisecond)
	m.SetPtySessionsActive(2)
	m.IncWSConnections()
	m.RecordWSEvent("pty-data", "dropped")

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(2), s.ActiveSessions)
	assert.Equal(t, int64(1), s.ActiveConnections)
	assert.Equal(t, int64(1), s.DroppedEvents)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/pty/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pty/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/pty/:id", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lovcode_http_requests_total"))
	assert.True(t, strings.Contains(w.Body.String(), "lovcode_uptime_seconds"))
}
