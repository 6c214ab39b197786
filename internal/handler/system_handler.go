package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/moodlog/internal/sentiment"
	"github.com/moodlog/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type settingsRequest struct {
	SentimentProvider string `json:"sentiment_provider"`
	HuggingFaceAPIKey string `json:"huggingface_api_key"`
	OpenAIAPIKey      string `json:"openai_api_key"`
	DeepSeekAPIKey    string `json:"deepseek_api_key"`
}

type sentimentTestRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// GetSettings 返回当前情感分析设置，API Key 只返回掩码。
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.system.GetSettings(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "获取系统设置失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settingsPayload(settings)})
}

// UpdateSettings 保存情感分析设置。
func (a *API) UpdateSettings(c *gin.Context) {
	var payload settingsRequest
	if !bindJSON(c, &payload, "请填写完整的系统设置") {
		return
	}

	current, err := a.system.GetSettings(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "保存系统设置失败")
		return
	}

	settings, err := a.system.UpdateSettings(c.Request.Context(), service.SentimentSettingsInput{
		Provider:          payload.SentimentProvider,
		HuggingFaceAPIKey: keepMaskedSecret(payload.HuggingFaceAPIKey, current.HuggingFaceAPIKey),
		OpenAIAPIKey:      keepMaskedSecret(payload.OpenAIAPIKey, current.OpenAIAPIKey),
		DeepSeekAPIKey:    keepMaskedSecret(payload.DeepSeekAPIKey, current.DeepSeekAPIKey),
	})
	if err != nil {
		a.handleServiceError(c, err, "保存系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "系统设置已保存",
		"settings": settingsPayload(settings),
	})
}

func settingsPayload(settings service.SentimentSettings) gin.H {
	return gin.H{
		"sentiment_provider":  settings.Provider,
		"huggingface_api_key": maskSecret(settings.HuggingFaceAPIKey),
		"openai_api_key":      maskSecret(settings.OpenAIAPIKey),
		"deepseek_api_key":    maskSecret(settings.DeepSeekAPIKey),
	}
}

// maskSecret 只保留末尾 4 位。
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}

// keepMaskedSecret 客户端原样回传掩码时保留已保存的值。
func keepMaskedSecret(submitted, current string) string {
	if submitted != "" && submitted == maskSecret(current) {
		return current
	}
	return submitted
}

// TestSentiment 用示例文本测试情感分析服务的连通性。
func (a *API) TestSentiment(c *gin.Context) {
	var payload sentimentTestRequest
	if !bindJSON(c, &payload, "请填写有效的情感分析配置") {
		return
	}

	label, err := a.system.TestSentimentConnection(c.Request.Context(), payload.Provider, payload.APIKey)
	if err != nil {
		if errors.Is(err, sentiment.ErrAPIKeyMissing) {
			respondError(c, http.StatusBadRequest, "请填写有效的 API Key")
			return
		}
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "连接成功", "sentiment": string(label)})
}
