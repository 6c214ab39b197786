package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moodlog/internal/config"
	"github.com/moodlog/internal/insight"
	"github.com/moodlog/internal/sentiment"
)

func TestSystemSettingServiceDefaults(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewSystemSettingService(gdb, config.SentimentConfig{OpenAIAPIKey: "sk-env"}, nil)

	settings, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings.Provider != sentiment.ProviderHuggingFace {
		t.Fatalf("expected default provider huggingface, got %s", settings.Provider)
	}
	if settings.OpenAIAPIKey != "sk-env" || settings.HuggingFaceAPIKey != "" {
		t.Fatalf("expected keys from config, got %#v", settings)
	}
}

func TestSystemSettingServiceUpdate(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewSystemSettingService(gdb, config.SentimentConfig{HuggingFaceAPIKey: "hf-env"}, nil)

	updated, err := svc.UpdateSettings(context.Background(), SentimentSettingsInput{
		Provider:       " DeepSeek ",
		DeepSeekAPIKey: "  ds-key ",
	})
	if err != nil {
		t.Fatalf("update settings failed: %v", err)
	}
	if updated.Provider != sentiment.ProviderDeepSeek || updated.DeepSeekAPIKey != "ds-key" {
		t.Fatalf("unexpected settings %#v", updated)
	}
	if updated.HuggingFaceAPIKey != "hf-env" {
		t.Fatalf("expected blank key to fall back to config, got %q", updated.HuggingFaceAPIKey)
	}

	updated, err = svc.UpdateSettings(context.Background(), SentimentSettingsInput{Provider: "unknown"})
	if err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	if updated.Provider != sentiment.ProviderHuggingFace || updated.DeepSeekAPIKey != "" {
		t.Fatalf("expected provider reset and key cleared, got %#v", updated)
	}
}

func TestSystemSettingServiceClassifierWithoutKeyFails(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewSystemSettingService(gdb, config.SentimentConfig{}, nil)

	classifier, provider, err := svc.ClassifierFor(context.Background())
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	if provider != sentiment.ProviderHuggingFace {
		t.Fatalf("unexpected provider %q", provider)
	}
	if _, err := classifier.Classify(context.Background(), "Run"); !errors.Is(err, sentiment.ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}
}

func TestSystemSettingServiceTestSentimentConnection(t *testing.T) {
	var gotAuth, gotInputs string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/test/model") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		var payload struct {
			Inputs string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotInputs = payload.Inputs
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{"label":"POS","score":0.88},{"label":"NEU","score":0.1}]]`))
	}))
	defer srv.Close()

	gdb := setupTestDB(t)
	svc := NewSystemSettingService(gdb, config.SentimentConfig{
		HuggingFaceBaseURL: srv.URL,
		HuggingFaceModel:   "test/model",
	}, nil)
	svc.SetHTTPClient(srv.Client())

	if _, err := svc.TestSentimentConnection(context.Background(), "huggingface", ""); !errors.Is(err, sentiment.ErrAPIKeyMissing) {
		t.Fatalf("expected ErrAPIKeyMissing, got %v", err)
	}

	label, err := svc.TestSentimentConnection(context.Background(), "huggingface", "hf-test")
	if err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if label != insight.SentimentPositive {
		t.Fatalf("expected positive, got %q", label)
	}
	if gotAuth != "Bearer hf-test" || gotInputs != connectionProbeText {
		t.Fatalf("unexpected request auth=%q inputs=%q", gotAuth, gotInputs)
	}
}
