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
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Session    SessionConfig
	Assistant  AssistantConfig
	AI         AIConfig
	Log        LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	completion, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Completion: completion,
		Session:    session,
		Assistant:  loadAssistantConfig(),
		AI:         ai,
		Log:        loadLogConfig(),
	}, nil
}

// LoadClient reads only the completion and assistant settings. Server, AI
// and logging variables are ignored, so a bad value there cannot fail it.
func LoadClient() (*Config, error) {
	completion, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}
	return &Config{
		Completion: completion,
		Assistant:  loadAssistantConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CHAT_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken verbatim.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Completion modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// CompletionConfig describes where chat sessions get their replies.
type CompletionConfig struct {
	Mode     string
	Endpoint string
	Token    string
	Timeout  time.Duration
}

func loadCompletionConfig() (CompletionConfig, error) {
	mode := strings.ToLower(getEnvOrDefault("CHAT_COMPLETION_MODE", ModeRemote))
	if mode != ModeRemote && mode != ModeLocal {
		return CompletionConfig{}, fmt.Errorf("invalid CHAT_COMPLETION_MODE value %q", mode)
	}

	timeout, err := parseOptionalIntEnv("CHAT_COMPLETION_TIMEOUT")
	if err != nil {
		return CompletionConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		if *timeout < 1 {
			return CompletionConfig{}, fmt.Errorf("invalid CHAT_COMPLETION_TIMEOUT value %d: must be positive", *timeout)
		}
		timeoutSeconds = *timeout
	}

	return CompletionConfig{
		Mode:     mode,
		Endpoint: getEnvOrDefault("CHAT_COMPLETION_URL", "https://ai-personalised-chat-bot-backend.vercel.app/api/chat"),
		Token:    strings.TrimSpace(os.Getenv("CHAT_COMPLETION_TOKEN")),
		Timeout:  time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	idle, err := parseOptionalIntEnv("CHAT_SESSION_IDLE_MINUTES")
	if err != nil {
		return SessionConfig{}, err
	}
	idleMinutes := 30
	if idle != nil && *idle > 0 {
		idleMinutes = *idle
	}

	idleTimeout := time.Duration(idleMinutes) * time.Minute
	sweep := idleTimeout / 4
	if sweep < time.Minute {
		sweep = time.Minute
	}
	return SessionConfig{IdleTimeout: idleTimeout, SweepInterval: sweep}, nil
}

// AssistantConfig selects the assistant profile.
type AssistantConfig struct {
	ProfilePath string
	ID          string
}

func loadAssistantConfig() AssistantConfig {
	return AssistantConfig{
		ProfilePath: strings.TrimSpace(os.Getenv("ASSISTANT_PROFILE")),
		ID:          getEnvOrDefault("ASSISTANT_ID", "mait"),
	}
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

// AIConfig describes the Ark model backing the reply endpoint.
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	HistoryLimit int
}

// Enabled reports whether model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY and Model, or ARK_ACCESS_KEY and ARK_SECRET_KEY")
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
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	historyLimit := 10
	if override, err := parseOptionalIntEnv("AI_HISTORY_LIMIT"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			historyLimit = 1
		} else {
			historyLimit = *override
		}
	}

	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("Model")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
		HistoryLimit: historyLimit,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
