package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/annel0/topomap/internal/auth"
	"github.com/annel0/topomap/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWT_AdminGuard(t *testing.T) {
	r := gin.New()
	r.POST("/admin", JWT(), RequireAdmin(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(UsernameKey))
	})

	adminToken, err := auth.GenerateJWT(&auth.User{Username: "root", IsAdmin: true})
	require.NoError(t, err)
	userToken, err := auth.GenerateJWT(&auth.User{Username: "guest"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, "POST", "/admin", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "POST", "/admin", "Token "+adminToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "POST", "/admin", "Bearer garbage").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "POST", "/admin", "Bearer "+userToken).Code)

	w := do(r, "POST", "/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", w.Body.String())
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := NewPrometheusMiddleware("test", reg, reg)

	r := gin.New()
	r.Use(pm.Handler())
	r.GET("/tiles/:map/:x/:z", func(c *gin.Context) { c.Status(http.StatusOK) })
	pm.RegisterMetricsEndpoint(r)

	do(r, "GET", "/tiles/topo/1/2", "")
	do(r, "GET", "/tiles/topo/3/4", "")
	do(r, "GET", "/nope", "")

	// Координаты не попадают в метки
	assert.Equal(t, 1, testutil.CollectAndCount(pm.reqErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.reqErrors.WithLabelValues("GET", "unmatched", "404")))

	w := do(r, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_request_duration_seconds_count{method="GET",path="/tiles/:map/:x/:z",status="200"} 2`)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := NewRequestLogger(logging.NewWriterLogger("http", &buf, logging.DEBUG))

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := do(r, "GET", "/ok", "")
	traceID := w.Header().Get("X-Trace-Id")
	assert.NotEmpty(t, traceID)

	do(r, "GET", "/fail", "")
	out := buf.String()
	assert.Contains(t, out, "GET /ok 200")
	assert.Contains(t, out, "trace="+traceID)
	assert.True(t, strings.Contains(out, "GET /fail 500"))
}
