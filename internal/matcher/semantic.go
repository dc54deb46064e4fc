package matcher

import (
	"context"
	"fmt"

	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/embedding"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/floats"
)

const (
	defaultBatchSize      = 64
	defaultMaxConcurrency = 1
)

// SemanticOptions tune NewSemantic.
type SemanticOptions struct {
	Threshold float64
	// BatchSize is the number of patterns sent per embedding call while
	// precomputing.
	BatchSize int
	// MaxConcurrency bounds in-flight embedding calls, both during
	// precomputation and for queries. 1 serializes all inference.
	MaxConcurrency int
	Logger         *zap.Logger
}

type intentVectors struct {
	tag     string
	vectors [][]float64
}

// SemanticMatcher compares the embedded text against every pattern's
// precomputed embedding and picks the intent with the highest cosine
// similarity. Pattern vectors are unit length and never modified after
// construction.
type SemanticMatcher struct {
	embedder  embedding.Embedder
	intents   []intentVectors
	dim       int
	threshold float64
	inference *semaphore.Weighted
	logger    *zap.Logger
}

// NewSemantic embeds every pattern of c up front.
func NewSemantic(ctx context.Context, c *corpus.Corpus, embedder embedding.Embedder, opts SemanticOptions) (*SemanticMatcher, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	type slot struct{ intent, pattern int }
	var (
		texts []string
		slots []slot
	)
	intents := make([]intentVectors, c.Len())
	for i, intent := range c.Intents() {
		intents[i] = intentVectors{tag: intent.Tag, vectors: make([][]float64, len(intent.Patterns))}
		for j, p := range intent.Patterns {
			texts = append(texts, p)
			slots = append(slots, slot{i, j})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxConcurrency)
	for start := 0; start < len(texts); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(texts))
		g.Go(func() error {
			vecs, err := embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("failed to embed patterns %d-%d: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d patterns", len(vecs), end-start)
			}
			for k, v := range vecs {
				s := slots[start+k]
				intents[s.intent].vectors[s.pattern] = unit(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dim := 0
	for _, iv := range intents {
		for _, v := range iv.vectors {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim {
				return nil, fmt.Errorf("pattern embeddings have mixed dimensions %d and %d", dim, len(v))
			}
		}
	}

	logger.Info("Precomputed pattern embeddings",
		zap.Int("patterns", len(texts)),
		zap.Int("intents", len(intents)),
		zap.Int("dimensions", dim))

	return &SemanticMatcher{
		embedder:  embedder,
		intents:   intents,
		dim:       dim,
		threshold: opts.Threshold,
		inference: semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		logger:    logger,
	}, nil
}

func (m *SemanticMatcher) Match(ctx context.Context, text string) (models.MatchResult, error) {
	if isBlank(text) || len(m.intents) == 0 {
		return models.Unknown(), nil
	}

	query, err := m.embed(ctx, text)
	if err != nil {
		return models.Unknown(), err
	}
	if len(query) != m.dim {
		return models.Unknown(), fmt.Errorf("query embedding has %d dimensions, patterns have %d", len(query), m.dim)
	}

	best, bestScore := -1, -1.0
	for i, iv := range m.intents {
		score := -1.0
		for _, v := range iv.vectors {
			score = max(score, floats.Dot(query, v))
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	confidence := max(0, min(1, bestScore))
	if best < 0 || confidence < m.threshold {
		return models.Unknown(), nil
	}
	return models.Resolved(m.intents[best].tag, confidence), nil
}

func (m *SemanticMatcher) embed(ctx context.Context, text string) ([]float64, error) {
	if err := m.inference.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.inference.Release(1)

	vecs, err := m.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	return unit(vecs[0]), nil
}

// unit converts v to float64 and scales it to length 1 so that a dot
// product is the cosine similarity. The zero vector stays zero.
func unit(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	if n := floats.Norm(out, 2); n > 0 {
		floats.Scale(1/n, out)
	}
	return out
}
