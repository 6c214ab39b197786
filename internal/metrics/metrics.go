// Package metrics 声明服务暴露给 Prometheus 的指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "moodlog"

var (
	// HTTPRequestsTotal 按路由与状态码统计请求数。
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration 记录请求耗时。
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SentimentLookupsTotal 按提供方与结果统计情感分析调用。
	SentimentLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_lookups_total",
			Help:      "Total number of sentiment lookups",
		},
		[]string{"provider", "outcome"},
	)

	// SentimentLookupDuration 记录单次情感分析耗时。
	SentimentLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sentiment_lookup_duration_seconds",
			Help:      "Duration of sentiment lookups in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// SuggestionFallbacksTotal 统计因查询失败而使用中性分的活动组。
	SuggestionFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_sentiment_fallbacks_total",
			Help:      "Activity groups scored with the neutral sentiment fallback",
		},
	)

	// SuggestionGroups 观察每次建议计算涉及的活动组数量。
	SuggestionGroups = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggestion_groups",
			Help:      "Distribution of activity group counts per suggestion run",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

// RecordSentimentLookup 记录一次情感分析调用。
func RecordSentimentLookup(provider, outcome string, elapsed time.Duration) {
	SentimentLookupsTotal.WithLabelValues(provider, outcome).Inc()
	SentimentLookupDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Middleware 为 gin 请求记录计数与耗时。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
