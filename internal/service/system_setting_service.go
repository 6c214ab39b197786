package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/db"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/logger"
	"github.com/moodlog/internal/sentiment"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// connectionProbeText 是测试连接时发送的示例活动。
const connectionProbeText = "Went for a walk in the park"

// SentimentSettings 描述后台可配置的情感分析设置。
type SentimentSettings struct {
	Provider          string
	HuggingFaceAPIKey string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
}

// SentimentSettingsInput 用于更新情感分析设置，API Key 为空表示沿用配置文件中的值。
type SentimentSettingsInput struct {
	Provider          string
	HuggingFaceAPIKey string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
}

// SystemSettingService 提供系统设置的读取与更新，并据此构造情感分类器。
type SystemSettingService struct {
	db         *gorm.DB
	defaults   config.SentimentConfig
	limiter    *rate.Limiter
	httpClient *http.Client
	log        *logger.Logger
}

// NewSystemSettingService 构造 SystemSettingService，所有分类器共享同一个限流器。
func NewSystemSettingService(gdb *gorm.DB, defaults config.SentimentConfig, log *logger.Logger) *SystemSettingService {
	return &SystemSettingService{
		db:       gdb,
		defaults: defaults,
		limiter:  sentiment.NewLimiter(defaults.Rate, defaults.Burst),
		log:      log,
	}
}

// SetHTTPClient 替换访问第三方服务的 HTTP 客户端，主要面向测试场景。
func (s *SystemSettingService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

var settingKeys = []string{
	db.SettingKeySentimentProvider,
	db.SettingKeyHuggingFaceAPIKey,
	db.SettingKeyOpenAIAPIKey,
	db.SettingKeyDeepSeekAPIKey,
}

// GetSettings 读取已保存的设置，未保存的项回退到配置值。
func (s *SystemSettingService) GetSettings(ctx context.Context) (SentimentSettings, error) {
	result := SentimentSettings{
		Provider:          s.defaultProvider(),
		HuggingFaceAPIKey: s.defaults.HuggingFaceAPIKey,
		OpenAIAPIKey:      s.defaults.OpenAIAPIKey,
		DeepSeekAPIKey:    s.defaults.DeepSeekAPIKey,
	}

	var records []db.SystemSetting
	if err := s.db.WithContext(ctx).Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		value := strings.TrimSpace(record.Value)
		if value == "" {
			continue
		}
		switch record.Key {
		case db.SettingKeySentimentProvider:
			if provider := sentiment.NormalizeProvider(value); provider != "" {
				result.Provider = provider
			}
		case db.SettingKeyHuggingFaceAPIKey:
			result.HuggingFaceAPIKey = value
		case db.SettingKeyOpenAIAPIKey:
			result.OpenAIAPIKey = value
		case db.SettingKeyDeepSeekAPIKey:
			result.DeepSeekAPIKey = value
		}
	}

	return result, nil
}

// UpdateSettings 保存设置，未知提供方回退为默认提供方。
func (s *SystemSettingService) UpdateSettings(ctx context.Context, input SentimentSettingsInput) (SentimentSettings, error) {
	provider := sentiment.NormalizeProvider(input.Provider)
	if provider == "" {
		provider = s.defaultProvider()
	}

	values := map[string]string{
		db.SettingKeySentimentProvider: provider,
		db.SettingKeyHuggingFaceAPIKey: strings.TrimSpace(input.HuggingFaceAPIKey),
		db.SettingKeyOpenAIAPIKey:      strings.TrimSpace(input.OpenAIAPIKey),
		db.SettingKeyDeepSeekAPIKey:    strings.TrimSpace(input.DeepSeekAPIKey),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SentimentSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	s.log.Info("sentiment settings updated", "provider", provider)
	return s.GetSettings(ctx)
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// ClassifierFor 按当前设置构造带限流与指标的分类器。
// 缺少 API Key 时返回总是失败的分类器，建议计算会对所有活动使用中性分。
func (s *SystemSettingService) ClassifierFor(ctx context.Context) (insight.SentimentClassifier, string, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, "", err
	}

	provider := settings.Provider
	classifier, err := sentiment.New(s.options(provider, settings.apiKeyFor(provider)))
	if err != nil {
		s.log.Warn("sentiment classifier unavailable", "provider", provider, "error", err)
		classifier = sentiment.Unavailable(err)
	}
	return sentiment.WithRateLimit(sentiment.WithMetrics(classifier, provider), s.limiter), provider, nil
}

// TestSentimentConnection 用示例文本调用指定提供方，返回分类结果。
// apiKey 为空时使用已保存的设置。
func (s *SystemSettingService) TestSentimentConnection(ctx context.Context, provider, apiKey string) (insight.Sentiment, error) {
	prov := sentiment.NormalizeProvider(provider)
	if prov == "" {
		prov = s.defaultProvider()
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		settings, err := s.GetSettings(ctx)
		if err != nil {
			return "", err
		}
		key = settings.apiKeyFor(prov)
	}

	classifier, err := sentiment.New(s.options(prov, key))
	if err != nil {
		return "", err
	}

	timeout := s.defaults.Timeout
	if timeout <= 0 {
		timeout = insight.DefaultLookupTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return sentiment.WithMetrics(classifier, prov).Classify(lookupCtx, connectionProbeText)
}

// ScorerOptions 返回配置中的并发与超时参数。
func (s *SystemSettingService) ScorerOptions() insight.ScorerOptions {
	return insight.ScorerOptions{
		Concurrency: s.defaults.Concurrency,
		Timeout:     s.defaults.Timeout,
		Logger:      s.log,
	}
}

func (s *SystemSettingService) options(provider, apiKey string) sentiment.Options {
	opts := sentiment.Options{
		Provider:   provider,
		APIKey:     apiKey,
		HTTPClient: s.httpClient,
		Logger:     s.log,
	}
	switch provider {
	case sentiment.ProviderOpenAI:
		opts.Model = s.defaults.OpenAIModel
		opts.BaseURL = s.defaults.OpenAIBaseURL
	case sentiment.ProviderDeepSeek:
		opts.Model = s.defaults.DeepSeekModel
		opts.BaseURL = s.defaults.DeepSeekBaseURL
	default:
		opts.Model = s.defaults.HuggingFaceModel
		opts.BaseURL = s.defaults.HuggingFaceBaseURL
	}
	return opts
}

func (s *SystemSettingService) defaultProvider() string {
	if provider := sentiment.NormalizeProvider(s.defaults.Provider); provider != "" {
		return provider
	}
	return sentiment.ProviderHuggingFace
}

func (s SentimentSettings) apiKeyFor(provider string) string {
	switch provider {
	case sentiment.ProviderOpenAI:
		return s.OpenAIAPIKey
	case sentiment.ProviderDeepSeek:
		return s.DeepSeekAPIKey
	default:
		return s.HuggingFaceAPIKey
	}
}
