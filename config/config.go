package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the chatbot service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// KnowledgeConfig describes the knowledge document and the retrieval
// artifacts derived from it.
type KnowledgeConfig struct {
	File        string `mapstructure:"file"`
	IndexFile   string `mapstructure:"index_file"`
	StoreFile   string `mapstructure:"store_file"`
	ChunkSize   int    `mapstructure:"chunk_size"`
	Overlap     int    `mapstructure:"overlap"`
	TopK        int    `mapstructure:"top_k"`
	Embedder    string `mapstructure:"embedder"` // tfidf or groq
	ReindexCron string `mapstructure:"reindex_cron"`
	WatchFile   bool   `mapstructure:"watch_file"`
}

func (k KnowledgeConfig) Validate() error {
	if strings.TrimSpace(k.File) == "" {
		return fmt.Errorf("knowledge.file is required")
	}
	if k.ChunkSize <= 0 {
		return fmt.Errorf("knowledge.chunk_size must be > 0")
	}
	if k.Overlap < 0 {
		return fmt.Errorf("knowledge.overlap cannot be negative")
	}
	if k.TopK <= 0 {
		return fmt.Errorf("knowledge.top_k must be > 0")
	}
	switch k.Embedder {
	case "tfidf", "groq":
	default:
		return fmt.Errorf("knowledge.embedder must be tfidf or groq, got %q", k.Embedder)
	}
	if k.ReindexCron != "" {
		if _, err := cronexpr.Parse(k.ReindexCron); err != nil {
			return fmt.Errorf("knowledge.reindex_cron invalid: %v", err)
		}
	}
	return nil
}

// ProvidersConfig contains LLM provider configurations
type ProvidersConfig struct {
	Groq GroqConfig `mapstructure:"groq"`
}

// GroqConfig configures the OpenAI-compatible completion/embedding endpoint.
// An empty APIKey disables generation but not retrieval.
type GroqConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	TopP            float64       `mapstructure:"top_p"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// SessionsConfig controls conversation history storage.
type SessionsConfig struct {
	Store        string      `mapstructure:"store"` // inmemory or redis
	HistoryLimit int         `mapstructure:"history_limit"`
	Redis        RedisConfig `mapstructure:"redis"`
}

func (s SessionsConfig) Validate() error {
	switch s.Store {
	case "inmemory", "redis":
	default:
		return fmt.Errorf("sessions.store must be inmemory or redis, got %q", s.Store)
	}
	if s.HistoryLimit <= 0 {
		return fmt.Errorf("sessions.history_limit must be > 0")
	}
	if s.Store == "redis" {
		return s.Redis.Validate()
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("sessions.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("sessions.redis.port required")
	}
	return nil
}

// LoadConfig loads config from file, environment and .env. A missing config
// file is not an error: defaults plus CHATBOT_* env vars are a complete
// configuration.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("general.listen", ":8080")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("knowledge.file", "data/hospital.txt")
	v.SetDefault("knowledge.index_file", "data/hospital.index")
	v.SetDefault("knowledge.store_file", "data/hospital.chunks.json")
	v.SetDefault("knowledge.chunk_size", 700)
	v.SetDefault("knowledge.overlap", 120)
	v.SetDefault("knowledge.top_k", 5)
	v.SetDefault("knowledge.embedder", "tfidf")
	v.SetDefault("knowledge.watch_file", false)
	v.SetDefault("providers.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("providers.groq.completion_model", "llama-3.1-8b-instant")
	v.SetDefault("providers.groq.embedding_model", "text-embedding-3-small")
	v.SetDefault("providers.groq.temperature", 0.2)
	v.SetDefault("providers.groq.top_p", 0.9)
	v.SetDefault("providers.groq.max_tokens", 512)
	v.SetDefault("providers.groq.timeout", 30*time.Second)
	v.SetDefault("sessions.store", "inmemory")
	v.SetDefault("sessions.history_limit", 12)
	v.SetDefault("sessions.redis.timeout", 5*time.Second)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// GROQ_API_KEY is the conventional name; the prefixed form also works
	_ = v.BindEnv("providers.groq.api_key", "GROQ_API_KEY", "CHATBOT_PROVIDERS_GROQ_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Knowledge.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sessions.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
