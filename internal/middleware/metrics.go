package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidtube_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	authFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidtube_auth_failures_total",
			Help: "Rejected requests on protected routes by status",
		},
		[]string{"status"},
	)
)

// Metrics records request counts and latencies labelled by route pattern
// (never the raw path, which would explode cardinality).
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := commitError(c, err)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			if status == 401 && CurrentUser(c) == nil {
				authFailuresTotal.WithLabelValues(strconv.Itoa(status)).Inc()
			}
			return err
		}
	}
}

// commitError renders err through the HTTP error handler, if nothing has
// been written yet, so the final status is known.  The handler skips
// committed responses, so returning err afterwards is harmless.
func commitError(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		c.Error(err)
	}
	return c.Response().Status
}
