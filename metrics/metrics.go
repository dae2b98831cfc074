package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parkwatch"

var (
	ReportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_submitted_total",
	}, []string{"kind"})

	ReportTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "report_transitions_total",
	}, []string{"status"})

	CommentsPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_posted_total",
	})

	PlateLinkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plate_link_retries_total",
	})

	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
	}, []string{"code", "method"})
)

// RequestCounter counts handled requests by status code and method
func RequestCounter() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		requestCounter.WithLabelValues(strconv.Itoa(c.Writer.Status()), c.Request.Method).Inc()
	}
}

// Handler serves the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
