package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/metrics"
	"golang.org/x/time/rate"
)

// NewLimiter 构造进程内共享的令牌桶，所有请求的外部调用都从同一个桶取令牌。
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// WithRateLimit 在调用 next 前等待令牌，等待被取消时直接返回错误。
func WithRateLimit(next insight.SentimentClassifier, limiter *rate.Limiter) insight.SentimentClassifier {
	if limiter == nil {
		return next
	}
	return insight.SentimentClassifierFunc(func(ctx context.Context, text string) (insight.Sentiment, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("wait for sentiment rate limit: %w", err)
		}
		return next.Classify(ctx, text)
	})
}

// WithMetrics 记录每次调用的结果与耗时。
func WithMetrics(next insight.SentimentClassifier, provider string) insight.SentimentClassifier {
	return insight.SentimentClassifierFunc(func(ctx context.Context, text string) (insight.Sentiment, error) {
		start := time.Now()
		label, err := next.Classify(ctx, text)
		outcome := string(label)
		if err != nil {
			outcome = "error"
		}
		metrics.RecordSentimentLookup(provider, outcome, time.Since(start))
		return label, err
	})
}
