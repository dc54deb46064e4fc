package matcher

import (
	"context"

	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/models"
)

// ExactMatcher resolves only text that is verbatim a corpus pattern.
type ExactMatcher struct {
	corpus *corpus.Corpus
}

func NewExact(c *corpus.Corpus) *ExactMatcher {
	return &ExactMatcher{corpus: c}
}

func (m *ExactMatcher) Match(_ context.Context, text string) (models.MatchResult, error) {
	if isBlank(text) {
		return models.Unknown(), nil
	}
	if tag, ok := m.corpus.TagFor(text); ok {
		return models.Resolved(tag, 1), nil
	}
	return models.Unknown(), nil
}
