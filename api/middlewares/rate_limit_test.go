package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// makeTestRouter creates a Gin engine with a single middleware and a test route.
func makeTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return r
}

func TestLimiterAllowsBurstThenRejects(t *testing.T) {
	router := makeTestRouter(NewLimiter(time.Hour, 5).Middleware("slow down"))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "slow down")
}

func TestLimiterIsPerIP(t *testing.T) {
	router := makeTestRouter(NewLimiter(time.Hour, 1).Middleware("slow down"))

	first := httptest.NewRequest(http.MethodGet, "/test", nil)
	first.RemoteAddr = "10.0.0.1:1234"
	second := httptest.NewRequest(http.MethodGet, "/test", nil)
	second.RemoteAddr = "10.0.0.2:1234"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, second)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimiterForgetsIdleVisitors(t *testing.T) {
	l := NewLimiter(time.Hour, 1)
	start := time.Now()
	l.get("10.0.0.1", start)
	l.get("10.0.0.2", start.Add(11*time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.visitors, 1)
	_, ok := l.visitors["10.0.0.2"]
	assert.True(t, ok)
}
