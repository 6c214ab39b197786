package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string        `mapstructure:"listen_addr"`
	Port              string        `mapstructure:"port"`
	DatabaseDriver    string        `mapstructure:"database_driver"`
	DatabasePath      string        `mapstructure:"database_path"`
	DatabaseDSN       string        `mapstructure:"database_dsn"`
	SessionSecret     string        `mapstructure:"session_secret"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTTTL            time.Duration `mapstructure:"jwt_ttl"`
	GinMode           string        `mapstructure:"gin_mode"`
	LogMode           string        `mapstructure:"log_mode"`
	UploadDir         string        `mapstructure:"upload_dir"`
	UploadURLPath     string        `mapstructure:"upload_url_path"`
	MemeStorage       string        `mapstructure:"meme_storage"`
	MemeMaxBytes      int64         `mapstructure:"meme_max_bytes"`
	GCSBucket         string        `mapstructure:"gcs_bucket"`
	GCSPublicBaseURL  string        `mapstructure:"gcs_public_base_url"`
	CORSOrigins       []string      `mapstructure:"cors_origins"`
	SuperRootUserName string        `mapstructure:"super_root_user_name"`
	SuperRootPassword string        `mapstructure:"super_root_password"`

	Sentiment SentimentConfig `mapstructure:",squash"`
}

// SentimentConfig 描述情感分析服务的默认参数，后台设置可覆盖提供方与密钥。
type SentimentConfig struct {
	Provider           string        `mapstructure:"sentiment_provider"`
	HuggingFaceAPIKey  string        `mapstructure:"huggingface_api_key"`
	HuggingFaceModel   string        `mapstructure:"huggingface_model"`
	HuggingFaceBaseURL string        `mapstructure:"huggingface_base_url"`
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	OpenAIModel        string        `mapstructure:"openai_model"`
	OpenAIBaseURL      string        `mapstructure:"openai_base_url"`
	DeepSeekAPIKey     string        `mapstructure:"deepseek_api_key"`
	DeepSeekModel      string        `mapstructure:"deepseek_model"`
	DeepSeekBaseURL    string        `mapstructure:"deepseek_base_url"`
	Timeout            time.Duration `mapstructure:"sentiment_timeout"`
	Concurrency        int           `mapstructure:"sentiment_concurrency"`
	Rate               float64       `mapstructure:"sentiment_rate"`
	Burst              int           `mapstructure:"sentiment_burst"`
}

const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"

	MemeStorageLocal = "local"
	MemeStorageGCS   = "gcs"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("listen_addr", "")
	v.SetDefault("database_driver", DatabaseDriverSQLite)
	v.SetDefault("database_path", "moodlog.db")
	v.SetDefault("database_dsn", "")
	v.SetDefault("session_secret", "moodlog-dev-secret")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "168h")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_mode", "production")
	v.SetDefault("upload_dir", "web/static/uploads")
	v.SetDefault("upload_url_path", "/static/uploads")
	v.SetDefault("meme_storage", MemeStorageLocal)
	v.SetDefault("meme_max_bytes", 5<<20)
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("gcs_public_base_url", "")
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("super_root_user_name", "")
	v.SetDefault("super_root_password", "")

	v.SetDefault("sentiment_provider", "huggingface")
	v.SetDefault("huggingface_api_key", "")
	v.SetDefault("huggingface_model", "finiteautomata/bertweet-base-sentiment-analysis")
	v.SetDefault("huggingface_base_url", "https://api-inference.huggingface.co")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("deepseek_api_key", "")
	v.SetDefault("deepseek_model", "deepseek-chat")
	v.SetDefault("deepseek_base_url", "https://api.deepseek.com/v1")
	v.SetDefault("sentiment_timeout", "10s")
	v.SetDefault("sentiment_concurrency", 4)
	v.SetDefault("sentiment_rate", 5.0)
	v.SetDefault("sentiment_burst", 5)
}

// Load 依次读取 .env、可选的配置文件与环境变量，并为缺失项提供安全的默认值。
// configFile 为空时会在当前目录查找 moodlog.yaml，找不到则只使用环境变量。
func Load(configFile string) (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if strings.TrimSpace(configFile) != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("moodlog")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/moodlog")
	}

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *AppConfig) {
	cfg.Port = strings.TrimSpace(cfg.Port)
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.ListenAddr = strings.TrimSpace(cfg.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if cfg.DatabaseDriver != DatabaseDriverPostgres {
		cfg.DatabaseDriver = DatabaseDriverSQLite
	}

	cfg.MemeStorage = strings.ToLower(strings.TrimSpace(cfg.MemeStorage))
	if cfg.MemeStorage != MemeStorageGCS {
		cfg.MemeStorage = MemeStorageLocal
	}
	if cfg.MemeMaxBytes <= 0 {
		cfg.MemeMaxBytes = 5 << 20
	}

	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "moodlog-dev-secret"
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.SessionSecret
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 7 * 24 * time.Hour
	}

	cfg.SuperRootUserName = strings.TrimSpace(cfg.SuperRootUserName)
	cfg.SuperRootPassword = strings.TrimSpace(cfg.SuperRootPassword)

	origins := make([]string, 0, len(cfg.CORSOrigins))
	for _, origin := range cfg.CORSOrigins {
		for _, part := range strings.Split(origin, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	cfg.CORSOrigins = origins

	s := &cfg.Sentiment
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	s.HuggingFaceAPIKey = strings.TrimSpace(s.HuggingFaceAPIKey)
	s.OpenAIAPIKey = strings.TrimSpace(s.OpenAIAPIKey)
	s.DeepSeekAPIKey = strings.TrimSpace(s.DeepSeekAPIKey)
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	if s.Concurrency <= 0 {
		s.Concurrency = 4
	}
	if s.Rate <= 0 {
		s.Rate = 5
	}
	if s.Burst <= 0 {
		s.Burst = 1
	}
}
