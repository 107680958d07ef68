package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infralytics/inference-autoscaler/api/middleware"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetTraceID(c))
	})
	return r
}

func TestRequestLogger_AssignsTraceID(t *testing.T) {
	r := newRouter(middleware.RequestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	traceID := w.Header().Get(middleware.TraceIDHeader)
	require.NotEmpty(t, traceID)

	// The handler sees the same ID that the response header carries.
	assert.Equal(t, traceID, w.Body.String())
}

func TestRequestLogger_ReusesIncomingTraceID(t *testing.T) {
	r := newRouter(middleware.RequestLogger())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.TraceIDHeader, "upstream-trace")
	r.ServeHTTP(w, req)

	assert.Equal(t, "upstream-trace", w.Header().Get(middleware.TraceIDHeader))
	assert.Equal(t, "upstream-trace", w.Body.String())
}

func TestCORS_Preflight(t *testing.T) {
	r := newRouter(middleware.CORS(middleware.DefaultCORSConfig()))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://dashboard.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), middleware.TraceIDHeader)
}

func TestCORS_RestrictedOrigin(t *testing.T) {
	cfg := middleware.DefaultCORSConfig()
	cfg.AllowOrigins = []string{"http://dashboard.local"}
	r := newRouter(middleware.CORS(cfg))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
