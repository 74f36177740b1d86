// Package config loads service settings from the environment.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/vyne/backend/internal/oracle/gemini"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	AI         AIConfig
	Match      MatchConfig
	Moderation ModerationConfig
	Timers     TimerConfig
	SeedFile   string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	match, err := loadMatchConfig()
	if err != nil {
		return nil, err
	}

	moderation, err := loadModerationConfig()
	if err != nil {
		return nil, err
	}

	timers, err := loadTimerConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Log:        logCfg,
		AI:         ai,
		Match:      match,
		Moderation: moderation,
		Timers:     timers,
		SeedFile:   strings.TrimSpace(os.Getenv("SEED_FILE")),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig controls the zerolog output.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

// Provider names the backend used for the oracle.
type Provider string

const (
	ProviderArk    Provider = "ark"
	ProviderGemini Provider = "gemini"
)

// AIConfig describes the text-generation oracle.
type AIConfig struct {
	Provider     Provider
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderArk:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	default:
		return false
	}
}

// NewChatModel creates the chat model of the configured provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s credentials or model missing", c.Provider)
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

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	if c.Provider == ProviderGemini {
		chatModel, err := gemini.NewChatModel(ctx, gemini.Config{
			APIKey:      c.GeminiAPIKey,
			Model:       c.GeminiModel,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   maxTokens,
		})
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", gemini.DefaultModel),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
	}

	switch provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER"))); provider {
	case "":
		// Gemini is the default oracle; Ark is picked when only Ark keys exist.
		cfg.Provider = ProviderGemini
		if cfg.GeminiAPIKey == "" && cfg.APIKey != "" {
			cfg.Provider = ProviderArk
		}
	case string(ProviderArk), string(ProviderGemini):
		cfg.Provider = Provider(provider)
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// MatchConfig bounds the ranking oracle.
type MatchConfig struct {
	Limit   int
	Timeout time.Duration
}

func loadMatchConfig() (MatchConfig, error) {
	limit := 5
	if override, err := parseOptionalIntEnv("MATCH_LIMIT"); err != nil {
		return MatchConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return MatchConfig{}, fmt.Errorf("invalid MATCH_LIMIT value %d: must be positive", *override)
		}
		limit = *override
	}

	timeout, err := parseDurationEnv("MATCH_TIMEOUT", 20*time.Second)
	if err != nil {
		return MatchConfig{}, err
	}

	return MatchConfig{Limit: limit, Timeout: timeout}, nil
}

// ModerationConfig controls the background moderation check.
type ModerationConfig struct {
	Enabled bool
	Timeout time.Duration
}

func loadModerationConfig() (ModerationConfig, error) {
	enabled, err := parseBoolEnv("MODERATION_ENABLED", true)
	if err != nil {
		return ModerationConfig{}, err
	}

	timeout, err := parseDurationEnv("MODERATION_TIMEOUT", 10*time.Second)
	if err != nil {
		return ModerationConfig{}, err
	}

	return ModerationConfig{Enabled: enabled, Timeout: timeout}, nil
}

// TimerConfig sets the periods of the repeating UI timers.
type TimerConfig struct {
	RingtoneInterval time.Duration
	CallTick         time.Duration
}

func loadTimerConfig() (TimerConfig, error) {
	ring, err := parseDurationEnv("RINGTONE_INTERVAL", 3*time.Second)
	if err != nil {
		return TimerConfig{}, err
	}

	tick, err := parseDurationEnv("CALL_TICK_INTERVAL", time.Second)
	if err != nil {
		return TimerConfig{}, err
	}

	return TimerConfig{RingtoneInterval: ring, CallTick: tick}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
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
