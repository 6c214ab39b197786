// Package sentiment 实现对活动描述进行情感分类的外部服务客户端。
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/logger"
)

const (
	// ProviderHuggingFace 使用 Hugging Face Inference API。
	ProviderHuggingFace = "huggingface"
	// ProviderOpenAI 使用 OpenAI 结构化输出。
	ProviderOpenAI = "openai"
	// ProviderDeepSeek 使用 DeepSeek 的 OpenAI 兼容接口。
	ProviderDeepSeek = "deepseek"
)

var supportedProviders = []string{ProviderHuggingFace, ProviderOpenAI, ProviderDeepSeek}

const (
	defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	defaultHuggingFaceModel   = "finiteautomata/bertweet-base-sentiment-analysis"
	defaultOpenAIBaseURL      = "https://api.openai.com/v1"
	defaultOpenAIModel        = "gpt-4o-mini"
	defaultDeepSeekBaseURL    = "https://api.deepseek.com/v1"
	defaultDeepSeekModel      = "deepseek-chat"
)

// ErrAPIKeyMissing 表示未提供所选服务的 API Key。
var ErrAPIKeyMissing = errors.New("sentiment api key is required")

// Options 描述构造分类器所需的参数。
type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// NormalizeProvider 返回受支持的提供方名称，无法识别时返回空串。
func NormalizeProvider(provider string) string {
	trimmed := strings.ToLower(strings.TrimSpace(provider))
	for _, candidate := range supportedProviders {
		if trimmed == candidate {
			return candidate
		}
	}
	return ""
}

// New 按提供方构造分类器，未知提供方回退到 Hugging Face。
func New(opts Options) (insight.SentimentClassifier, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrAPIKeyMissing
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	switch NormalizeProvider(opts.Provider) {
	case ProviderOpenAI:
		return newLLMClassifier(llmConfig{
			label:      "OpenAI",
			apiKey:     opts.APIKey,
			baseURL:    orDefault(opts.BaseURL, defaultOpenAIBaseURL),
			model:      orDefault(opts.Model, defaultOpenAIModel),
			structured: true,
			httpClient: httpClient,
			log:        opts.Logger,
		}), nil
	case ProviderDeepSeek:
		return newLLMClassifier(llmConfig{
			label:      "DeepSeek",
			apiKey:     opts.APIKey,
			baseURL:    orDefault(opts.BaseURL, defaultDeepSeekBaseURL),
			model:      orDefault(opts.Model, defaultDeepSeekModel),
			httpClient: httpClient,
			log:        opts.Logger,
		}), nil
	default:
		hf := NewHuggingFaceClassifier(opts.APIKey, opts.Model, opts.Logger)
		hf.SetBaseURL(opts.BaseURL)
		hf.SetHTTPClient(httpClient)
		return hf, nil
	}
}

// Unavailable 返回一个总是失败的分类器，调用方会按中性分处理。
func Unavailable(err error) insight.SentimentClassifier {
	return insight.SentimentClassifierFunc(func(context.Context, string) (insight.Sentiment, error) {
		return "", err
	})
}

// NormalizeLabel 将各服务返回的标签统一为三种情感。
func NormalizeLabel(raw string) (insight.Sentiment, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "POS", "POSITIVE", "LABEL_2":
		return insight.SentimentPositive, nil
	case "NEU", "NEUTRAL", "LABEL_1":
		return insight.SentimentNeutral, nil
	case "NEG", "NEGATIVE", "LABEL_0":
		return insight.SentimentNegative, nil
	default:
		return "", fmt.Errorf("%w: %q", insight.ErrUnknownSentiment, raw)
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
