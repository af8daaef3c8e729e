package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_store_ops_total",
			Help: "Record store operations by store, operation and result",
		},
		[]string{"store", "op", "result"},
	)

	PDFGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf_generation_total",
			Help: "PDF generation attempts by result",
		},
		[]string{"result"},
	)

	PDFDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pdf_generation_duration_seconds",
			Help:    "Time spent rendering and converting a PDF",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStore は record store 操作1回分を数える
func ObserveStore(store, op string, err error) {
	StoreOps.WithLabelValues(store, op, result(err)).Inc()
}

// ObservePDF は PDF 生成1回分を記録する
func ObservePDF(start time.Time, err error) {
	PDFGenerations.WithLabelValues(result(err)).Inc()
	PDFDuration.Observe(time.Since(start).Seconds())
}

// Middleware: ルートテンプレート単位でリクエスト数とレイテンシを記録
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
