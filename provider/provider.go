package provider

import (
	"context"
	"errors"

	"github.com/careflow/hospital-chatbot/config"
	groq_provider "github.com/careflow/hospital-chatbot/provider/groq"
)

// Client represents different LLM providers
type Client string

const (
	Groq      Client = "groq"
	Anthropic Client = "anthropic"
)

// Message represents a single role/content pair sent to the completion API.
type Message = groq_provider.Message

// ErrNoAPIKey reports that the provider was constructed without credentials.
var ErrNoAPIKey = errors.New("provider api key not set")

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(client Client, cfg config.GroqConfig) (Provider, error) {
	switch client {
	case Groq:
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return groq_provider.NewClient(cfg), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
