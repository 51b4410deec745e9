package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Deployment modes. A deployment runs exactly one of them.
const (
	ModeCustom = "custom"
	ModeEmbed  = "embed"
)

// PlaceholderEndpoint is used when CHAT_API_ENDPOINT is unset; every call against it fails.
const PlaceholderEndpoint = "YOUR_COPILOT_STUDIO_ENDPOINT_HERE"

// DefaultEmbedURL points at the hosted webchat used by the embed mode.
const DefaultEmbedURL = "https://copilotstudio.microsoft.com/environments/a2af0bff-c97e-e451-9151-19167c6f5252/bots/git_atosWebSearchCopilot/webchat?__version__=2"

var ErrInvalidMode = errors.New("invalid widget mode")

// Config aggregates every service setting.
type Config struct {
	Server   ServerConfig
	Widget   WidgetConfig
	Endpoint EndpointConfig
	Log      LogConfig
	AI       AIConfig
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	endpoint, err := loadEndpointConfig()
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

	return &Config{Server: server, Widget: widget, Endpoint: endpoint, Log: logCfg, AI: ai}, nil
}

// ServerConfig describes the HTTP server.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	// SessionIdleTimeout expires unobserved sessions; zero keeps them until closed.
	SessionIdleTimeout time.Duration
}

// loadServerConfig parses the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	idle, err := parseOptionalIntEnv("SESSION_IDLE_TIMEOUT")
	if err != nil {
		return ServerConfig{}, err
	}
	idleTimeout := 30 * time.Minute
	if idle != nil {
		if *idle < 0 {
			return ServerConfig{}, fmt.Errorf("invalid SESSION_IDLE_TIMEOUT value %q: must not be negative", strconv.Itoa(*idle))
		}
		idleTimeout = time.Duration(*idle) * time.Second
	}

	cfg := ServerConfig{Addr: port, AllowedOrigins: origins, SessionIdleTimeout: idleTimeout}
	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as given.
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// WidgetConfig selects the deployment mode and the branding overrides.
type WidgetConfig struct {
	Mode     string
	EmbedURL string
	AppName  string
	Tagline  string
	Greeting string
}

// Embedded reports whether the hosted iframe owns the conversation.
func (c WidgetConfig) Embedded() bool {
	return c.Mode == ModeEmbed
}

func loadWidgetConfig() (WidgetConfig, error) {
	mode := strings.ToLower(getEnvOrDefault("WIDGET_MODE", ModeCustom))
	if mode != ModeCustom && mode != ModeEmbed {
		return WidgetConfig{}, fmt.Errorf("invalid WIDGET_MODE value %q: %w", mode, ErrInvalidMode)
	}

	return WidgetConfig{
		Mode:     mode,
		EmbedURL: getEnvOrDefault("WIDGET_EMBED_URL", DefaultEmbedURL),
		AppName:  strings.TrimSpace(os.Getenv("WIDGET_APP_NAME")),
		Tagline:  strings.TrimSpace(os.Getenv("WIDGET_TAGLINE")),
		Greeting: strings.TrimSpace(os.Getenv("WIDGET_GREETING")),
	}, nil
}

// EndpointConfig describes the external conversational endpoint.
type EndpointConfig struct {
	URL             string
	APIKey          string
	SubscriptionKey string
	// Timeout of zero means outbound calls never time out.
	Timeout time.Duration
}

// Configured reports whether a real endpoint was supplied.
func (c EndpointConfig) Configured() bool {
	return c.URL != "" && c.URL != PlaceholderEndpoint
}

func loadEndpointConfig() (EndpointConfig, error) {
	timeout, err := parseOptionalIntEnv("CHAT_REQUEST_TIMEOUT")
	if err != nil {
		return EndpointConfig{}, err
	}

	var timeoutDuration time.Duration
	if timeout != nil {
		if *timeout < 0 {
			return EndpointConfig{}, fmt.Errorf("invalid CHAT_REQUEST_TIMEOUT value %q: must not be negative", strconv.Itoa(*timeout))
		}
		timeoutDuration = time.Duration(*timeout) * time.Second
	}

	return EndpointConfig{
		URL:             getEnvOrDefault("CHAT_API_ENDPOINT", PlaceholderEndpoint),
		APIKey:          strings.TrimSpace(os.Getenv("CHAT_API_KEY")),
		SubscriptionKey: strings.TrimSpace(os.Getenv("CHAT_SUBSCRIPTION_KEY")),
		Timeout:         timeoutDuration,
	}, nil
}

// LogConfig describes log output.
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	development, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}

	return LogConfig{
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Development: development,
	}, nil
}

// AIConfig configures the model behind the reference endpoint.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, errors.New("missing Ark credentials or model: set ARK_API_KEY + Model, or an AK/SK pair")
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
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
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

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
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
