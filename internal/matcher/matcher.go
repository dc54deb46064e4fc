// Package matcher scores normalized text against the intent corpus and
// picks a single tag, or reports that nothing matched confidently.
package matcher

import (
	"context"
	"fmt"

	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/embedding"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum confidence accepted as a match.
const DefaultThreshold = 0.5

// Matcher is a deterministic function of (text, corpus, threshold).
// Implementations are safe for concurrent use.
type Matcher interface {
	Match(ctx context.Context, text string) (models.MatchResult, error)
}

// Strategy names a matching strategy in configuration.
type Strategy string

const (
	Exact    Strategy = "exact"
	Fuzzy    Strategy = "fuzzy"
	Semantic Strategy = "semantic"
)

// Options for New. Embedder, BatchSize and MaxConcurrency only apply to
// the semantic strategy.
type Options struct {
	Threshold      float64
	Embedder       embedding.Embedder
	BatchSize      int
	MaxConcurrency int
	Logger         *zap.Logger
}

// New builds the matcher for strategy. The semantic matcher embeds every
// pattern before returning.
func New(ctx context.Context, strategy Strategy, c *corpus.Corpus, opts Options) (Matcher, error) {
	if opts.Threshold < 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0, 1]", opts.Threshold)
	}

	switch strategy {
	case Exact:
		return NewExact(c), nil
	case Fuzzy, "":
		return NewFuzzy(c, opts.Threshold), nil
	case Semantic:
		if opts.Embedder == nil {
			return nil, fmt.Errorf("semantic matcher requires an embedder")
		}
		return NewSemantic(ctx, c, opts.Embedder, SemanticOptions{
			Threshold:      opts.Threshold,
			BatchSize:      opts.BatchSize,
			MaxConcurrency: opts.MaxConcurrency,
			Logger:         opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unknown matcher strategy %q", strategy)
	}
}
