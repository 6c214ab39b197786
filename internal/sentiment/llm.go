package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const classifyPrompt = `You classify the sentiment of a short activity description written in a personal mood journal.
Answer with JSON only: {"label": "positive" | "neutral" | "negative", "confidence": number between 0 and 1}.
Judge how the activity itself tends to feel to the person doing it.`

type sentimentVerdict struct {
	Label      string  `json:"label" jsonschema:"enum=positive,enum=neutral,enum=negative"`
	Confidence float64 `json:"confidence" jsonschema:"minimum=0,maximum=1"`
}

var verdictSchema = generateSchema[sentimentVerdict]()

type llmConfig struct {
	label      string
	apiKey     string
	baseURL    string
	model      string
	structured bool
	httpClient *http.Client
	log        *logger.Logger
}

// LLMClassifier 通过 OpenAI 兼容接口让大模型给出情感标签。
// structured 为 true 时使用 Responses API 的 JSON Schema 严格输出，否则使用 Chat Completions 并宽松解析。
type LLMClassifier struct {
	client     openai.Client
	label      string
	model      string
	structured bool
	log        *logger.Logger
}

func newLLMClassifier(cfg llmConfig) *LLMClassifier {
	base := strings.TrimRight(cfg.baseURL, "/") + "/"
	client := openai.NewClient(
		option.WithAPIKey(cfg.apiKey),
		option.WithBaseURL(base),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(0),
	)
	return &LLMClassifier{
		client:     client,
		label:      cfg.label,
		model:      cfg.model,
		structured: cfg.structured,
		log:        cfg.log,
	}
}

// Classify 返回模型判断的情感标签。
func (c *LLMClassifier) Classify(ctx context.Context, text string) (insight.Sentiment, error) {
	provider := strings.ToLower(c.label)
	logExchange(c.log, provider, "request", text)

	var (
		output string
		err    error
	)
	if c.structured {
		output, err = c.classifyStructured(ctx, text)
	} else {
		output, err = c.classifyChat(ctx, text)
	}
	if err != nil {
		return "", fmt.Errorf("请求 %s 接口失败: %w", c.label, err)
	}
	logExchange(c.log, provider, "response", output)

	var verdict sentimentVerdict
	if err := decodeModelJSON(output, &verdict); err != nil {
		return "", fmt.Errorf("解析 %s 响应失败: %w", c.label, err)
	}
	return NormalizeLabel(verdict.Label)
}

func (c *LLMClassifier) classifyStructured(ctx context.Context, text string) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "ActivitySentiment",
			Schema:      verdictSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Sentiment label for an activity description"),
			Type:        "json_schema",
		},
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(64),
		Instructions:    openai.String(classifyPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.OutputText(), nil
}

func (c *LLMClassifier) classifyChat(ctx context.Context, text string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifyPrompt),
			openai.UserMessage(text),
		},
		MaxTokens:   openai.Int(64),
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s 接口未返回结果", c.label)
	}
	return resp.Choices[0].Message.Content, nil
}

func generateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	raw, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	ensureStrictObject(out)
	return out
}

// ensureStrictObject 满足严格模式的要求：对象禁止额外字段且所有属性必填。
func ensureStrictObject(schema map[string]interface{}) {
	delete(schema, "$schema")
	delete(schema, "$id")
	if schemaType, ok := schema["type"].(string); ok && schemaType == "object" {
		schema["additionalProperties"] = false
		if properties, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(properties))
			for name, prop := range properties {
				required = append(required, name)
				if nested, ok := prop.(map[string]interface{}); ok {
					ensureStrictObject(nested)
				}
			}
			schema["required"] = required
		}
	}
}

// decodeModelJSON 先按完整 JSON 解析，失败时截取第一个顶层对象再试。
func decodeModelJSON(output string, v any) error {
	s := strings.TrimSpace(output)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no json object in model output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), v)
}
