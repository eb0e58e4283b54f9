package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// ErrMissingCredential is returned when the selected model provider has no API key.
var ErrMissingCredential = errors.New("missing model API credential")

// Provider names a model completion backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderArk    Provider = "ark"
)

const geminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Persona PersonaConfig
	Session SessionConfig
}

// Load reads the configuration from the environment and fails fast when the
// credential for the selected provider is absent.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = server.Addr

	if err := cfg.AI.loadSampling(); err != nil {
		return nil, err
	}
	if err := cfg.AI.resolve(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	RatePerMinute  int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RateBurst      int      `env:"RATE_LIMIT_BURST" envDefault:"10"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// loadServerConfig 解析服务器监听地址与允许的来源。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider Provider      `env:"AI_PROVIDER" envDefault:"gemini"`
	Model    string        `env:"AI_MODEL"`
	BaseURL  string        `env:"AI_BASE_URL"`
	Timeout  time.Duration `env:"AI_TIMEOUT" envDefault:"30s"`

	GoogleAPIKey string `env:"GOOGLE_API_KEY"`
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	ArkAPIKey    string `env:"ARK_API_KEY"`
	ArkAccessKey string `env:"ARK_ACCESS_KEY"`
	ArkSecretKey string `env:"ARK_SECRET_KEY"`
	ArkRegion    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	SentimentLLMEnabled bool `env:"AI_SENTIMENT_LLM_ENABLED" envDefault:"false"`

	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	// APIKey is the credential chosen for Provider by resolve.
	APIKey string
}

func (c *AIConfig) loadSampling() error {
	var err error
	if c.Temperature, err = parseOptionalFloatEnv("AI_TEMPERATURE"); err != nil {
		return err
	}
	if c.TopP, err = parseOptionalFloatEnv("AI_TOP_P"); err != nil {
		return err
	}
	if c.MaxTokens, err = parseOptionalIntEnv("AI_MAX_TOKENS"); err != nil {
		return err
	}
	return nil
}

// resolve picks the credential, model and endpoint defaults for the provider.
func (c *AIConfig) resolve() error {
	c.Provider = Provider(strings.ToLower(strings.TrimSpace(string(c.Provider))))
	switch c.Provider {
	case ProviderGemini:
		c.APIKey = firstNonEmpty(c.GeminiAPIKey, c.GoogleAPIKey)
		if c.APIKey == "" {
			return fmt.Errorf("%w: set GOOGLE_API_KEY or GEMINI_API_KEY", ErrMissingCredential)
		}
		c.Model = firstNonEmpty(c.Model, "gemini-2.0-flash")
		c.BaseURL = firstNonEmpty(c.BaseURL, geminiOpenAIBaseURL)
	case ProviderOpenAI:
		c.APIKey = strings.TrimSpace(c.OpenAIAPIKey)
		if c.APIKey == "" {
			return fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingCredential)
		}
		c.Model = firstNonEmpty(c.Model, "gpt-4o-mini")
	case ProviderArk:
		c.APIKey = strings.TrimSpace(c.ArkAPIKey)
		if c.APIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return fmt.Errorf("%w: set ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY", ErrMissingCredential)
		}
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("AI_MODEL is required for provider %q", c.Provider)
		}
		c.BaseURL = firstNonEmpty(c.BaseURL, "https://ark.cn-beijing.volces.com/api/v3")
	default:
		return fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("invalid AI_TIMEOUT value: %s", c.Timeout)
	}
	return nil
}

// NewChatModel 使用配置创建 eino 链使用的 Ark 模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk {
		return nil, fmt.Errorf("ark chat model requested for provider %q", c.Provider)
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.APIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// PersonaConfig points at an optional YAML persona profile.
type PersonaConfig struct {
	File      string `env:"PERSONA_FILE"`
	DefaultID string `env:"PERSONA_DEFAULT" envDefault:"luna"`
}

// SessionConfig controls idle session eviction.
type SessionConfig struct {
	IdleTTL       time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1m"`
}

func (c SessionConfig) validate() error {
	if c.IdleTTL <= 0 {
		return fmt.Errorf("invalid SESSION_IDLE_TTL value: %s", c.IdleTTL)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("invalid SESSION_SWEEP_INTERVAL value: %s", c.SweepInterval)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
