package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/logger"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type huggingFaceRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type huggingFaceError struct {
	Error string `json:"error"`
}

// HuggingFaceClassifier 调用 Inference API 的文本分类模型。
type HuggingFaceClassifier struct {
	apiKey  string
	model   string
	baseURL string
	http    httpDoer
	log     *logger.Logger
}

// NewHuggingFaceClassifier 构造分类器，model 为空时使用 bertweet 情感模型。
func NewHuggingFaceClassifier(apiKey, model string, log *logger.Logger) *HuggingFaceClassifier {
	return &HuggingFaceClassifier{
		apiKey:  strings.TrimSpace(apiKey),
		model:   orDefault(model, defaultHuggingFaceModel),
		baseURL: defaultHuggingFaceBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// SetHTTPClient 替换 HTTP 客户端，主要面向测试场景。
func (c *HuggingFaceClassifier) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
		return
	}
	c.http = client
}

// SetBaseURL 覆盖 Inference API 的基础地址，便于测试或自定义部署。
func (c *HuggingFaceClassifier) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(orDefault(base, defaultHuggingFaceBaseURL), "/")
}

// Classify 发送 {"inputs": text}，取置信度最高的标签。
func (c *HuggingFaceClassifier) Classify(ctx context.Context, text string) (insight.Sentiment, error) {
	if c.apiKey == "" {
		return "", ErrAPIKeyMissing
	}

	body, err := json.Marshal(huggingFaceRequest{Inputs: text})
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}

	endpoint := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("创建 Hugging Face 请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "moodlog-sentiment/1.0")

	logExchange(c.log, "huggingface", "request", text)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求 Hugging Face 接口失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("读取 Hugging Face 响应失败: %w", err)
	}
	logExchange(c.log, "huggingface", "response", string(respBody))

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr huggingFaceError
		msg := ""
		if json.Unmarshal(respBody, &apiErr) == nil {
			msg = strings.TrimSpace(apiErr.Error)
		}
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("Hugging Face 接口返回错误：%s", msg)
	}

	top, err := topLabel(respBody)
	if err != nil {
		return "", err
	}
	return NormalizeLabel(top.Label)
}

// topLabel 兼容 [[{label,score}]] 与 [{label,score}] 两种返回形状。
func topLabel(body []byte) (labelScore, error) {
	var candidates []labelScore

	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		if len(nested) > 0 {
			candidates = nested[0]
		}
	} else {
		var flat []labelScore
		if err := json.Unmarshal(body, &flat); err != nil {
			return labelScore{}, fmt.Errorf("解析 Hugging Face 响应失败: %w", err)
		}
		candidates = flat
	}

	if len(candidates) == 0 {
		return labelScore{}, errors.New("Hugging Face 接口未返回结果")
	}

	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Score > best.Score {
			best = candidate
		}
	}
	return best, nil
}
