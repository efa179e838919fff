package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	LoginSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "login_success_total",
		Help: "Total successful login attempts",
	})

	LoginFailure = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_failure_total",
		Help: "Total failed login attempts",
	}, []string{"reason"})

	RegisterSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "register_success_total",
		Help: "Total successful registrations",
	})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Total posts successfully created",
	})

	FollowChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "follow_changes_total",
		Help: "Follow and unfollow operations that changed the graph",
	}, []string{"action"})

	FeedCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_cache_lookups_total",
		Help: "Feed cache lookups by result",
	}, []string{"result"})
)

// Middleware records request latency by the matched route template, so
// /users/1 and /users/2 share a series.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
