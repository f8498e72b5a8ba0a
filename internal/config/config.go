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

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Chat      ChatConfig
	Analytics AnalyticsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	analytics, err := loadAnalyticsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Chat: chat, Analytics: analytics}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr   string
	APIKey string
}

// loadServerConfig 解析服务器监听地址与访问密钥。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	cfg := ServerConfig{
		APIKey: strings.TrimSpace(os.Getenv("PP_API_KEY")),
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig 描述大模型相关配置。
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

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
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

// ChatConfig 描述会话引擎相关配置。
type ChatConfig struct {
	SessionTTL       time.Duration
	JanitorInterval  time.Duration
	CompactThreshold int
	CompactKeep      int
	StepTimeout      time.Duration
	CommitRetries    int
}

func loadChatConfig() (ChatConfig, error) {
	ttl, err := parseDurationEnv("SESSION_TTL", 4*time.Hour)
	if err != nil {
		return ChatConfig{}, err
	}

	janitor, err := parseDurationEnv("SESSION_JANITOR_INTERVAL", 10*time.Minute)
	if err != nil {
		return ChatConfig{}, err
	}

	stepTimeout, err := parseDurationEnv("AI_STEP_TIMEOUT", 30*time.Second)
	if err != nil {
		return ChatConfig{}, err
	}

	threshold := 20
	if override, err := parseOptionalIntEnv("CHAT_COMPACT_THRESHOLD"); err != nil {
		return ChatConfig{}, err
	} else if override != nil && *override > 0 {
		threshold = *override
	}

	keep := 8
	if override, err := parseOptionalIntEnv("CHAT_COMPACT_KEEP"); err != nil {
		return ChatConfig{}, err
	} else if override != nil && *override > 0 {
		keep = *override
	}

	retries := 3
	if override, err := parseOptionalIntEnv("CHAT_COMMIT_RETRIES"); err != nil {
		return ChatConfig{}, err
	} else if override != nil && *override > 0 {
		retries = *override
	}

	return ChatConfig{
		SessionTTL:       ttl,
		JanitorInterval:  janitor,
		CompactThreshold: threshold,
		CompactKeep:      keep,
		StepTimeout:      stepTimeout,
		CommitRetries:    retries,
	}, nil
}

// AnalyticsConfig 描述分析报告读取相关配置。
type AnalyticsConfig struct {
	ReportsDir string
	MaxAge     time.Duration
}

func loadAnalyticsConfig() (AnalyticsConfig, error) {
	maxAge, err := parseDurationEnv("ANALYTICS_MAX_AGE", 0)
	if err != nil {
		return AnalyticsConfig{}, err
	}

	return AnalyticsConfig{
		ReportsDir: getEnvOrDefault("ANALYTICS_REPORTS_DIR", "analytics_reports"),
		MaxAge:     maxAge,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
