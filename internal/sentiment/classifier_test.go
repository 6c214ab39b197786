package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moodlog/internal/insight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]insight.Sentiment{
		"POS":      insight.SentimentPositive,
		"positive": insight.SentimentPositive,
		"LABEL_2":  insight.SentimentPositive,
		" neu ":    insight.SentimentNeutral,
		"LABEL_1":  insight.SentimentNeutral,
		"NEG":      insight.SentimentNegative,
		"Negative": insight.SentimentNegative,
		"LABEL_0":  insight.SentimentNegative,
	}
	for raw, want := range tests {
		got, err := NormalizeLabel(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := NormalizeLabel("mixed")
	assert.ErrorIs(t, err, insight.ErrUnknownSentiment)
}

func TestNewSelectsProvider(t *testing.T) {
	_, err := New(Options{Provider: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)

	classifier, err := New(Options{Provider: "OpenAI", APIKey: "sk"})
	require.NoError(t, err)
	llm, ok := classifier.(*LLMClassifier)
	require.True(t, ok)
	assert.True(t, llm.structured)
	assert.Equal(t, defaultOpenAIModel, llm.model)

	classifier, err = New(Options{Provider: ProviderDeepSeek, APIKey: "sk", Model: "deepseek-reasoner"})
	require.NoError(t, err)
	llm, ok = classifier.(*LLMClassifier)
	require.True(t, ok)
	assert.False(t, llm.structured)
	assert.Equal(t, "deepseek-reasoner", llm.model)

	classifier, err = New(Options{Provider: "unknown", APIKey: "hf"})
	require.NoError(t, err)
	hf, ok := classifier.(*HuggingFaceClassifier)
	require.True(t, ok)
	assert.Equal(t, defaultHuggingFaceBaseURL, hf.baseURL)
}

func TestUnavailableAlwaysFails(t *testing.T) {
	_, err := Unavailable(ErrAPIKeyMissing).Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestWithRateLimitHonorsCancellation(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	calls := 0
	classifier := WithRateLimit(insight.SentimentClassifierFunc(func(context.Context, string) (insight.Sentiment, error) {
		calls++
		return insight.SentimentPositive, nil
	}), limiter)

	label, err := classifier.Classify(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, insight.SentimentPositive, label)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = classifier.Classify(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithMetricsPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	classifier := WithMetrics(insight.SentimentClassifierFunc(func(_ context.Context, text string) (insight.Sentiment, error) {
		if text == "bad" {
			return "", boom
		}
		return insight.SentimentNeutral, nil
	}), "test")

	label, err := classifier.Classify(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, insight.SentimentNeutral, label)

	_, err = classifier.Classify(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)
}

func TestNewLimiterUnlimitedWhenRateNotPositive(t *testing.T) {
	limiter := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
}
