// Package embedding turns text into dense vectors for semantic matching.
package embedding

import (
	"context"
	"fmt"
)

// Embedder encodes texts into fixed-size vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider names an embedding backend in configuration.
type Provider string

const (
	OpenAI  Provider = "openai"
	Gemini  Provider = "gemini"
	Hashing Provider = "hashing"
)

// Config selects and parameterises a provider.
type Config struct {
	Provider   Provider
	Model      string
	APIKey     string
	Dimensions int
}

// New builds the embedder described by cfg.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embedding provider requires an API key")
		}
		return NewOpenAIEmbedder(cfg.APIKey, cfg.Model), nil
	case Gemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an API key")
		}
		return NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model)
	case Hashing, "":
		return NewHashingEmbedder(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
