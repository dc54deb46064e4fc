package matcher

import (
	"context"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/models"
)

// FuzzyMatcher picks the pattern with the highest Ratcliff/Obershelp
// similarity ratio to the text.
type FuzzyMatcher struct {
	corpus    *corpus.Corpus
	patterns  []string
	runes     [][]string
	threshold float64
}

func NewFuzzy(c *corpus.Corpus, threshold float64) *FuzzyMatcher {
	patterns := c.Patterns()
	runes := make([][]string, len(patterns))
	for i, p := range patterns {
		runes[i] = splitRunes(p)
	}

	return &FuzzyMatcher{
		corpus:    c,
		patterns:  patterns,
		runes:     runes,
		threshold: threshold,
	}
}

func (m *FuzzyMatcher) Match(_ context.Context, text string) (models.MatchResult, error) {
	if isBlank(text) || len(m.patterns) == 0 {
		return models.Unknown(), nil
	}

	best, bestRatio := -1, -1.0
	sm := difflib.NewMatcher(nil, splitRunes(text))
	for i, p := range m.runes {
		sm.SetSeq1(p)
		// the quick ratios are upper bounds of Ratio, so skipping on them
		// never changes the outcome
		if sm.RealQuickRatio() < m.threshold || sm.QuickRatio() < m.threshold {
			continue
		}
		ratio := sm.Ratio()
		if ratio >= m.threshold && ratio > bestRatio {
			best, bestRatio = i, ratio
		}
	}

	if best < 0 {
		return models.Unknown(), nil
	}
	tag, ok := m.corpus.TagFor(m.patterns[best])
	if !ok {
		return models.Unknown(), nil
	}
	return models.Resolved(tag, bestRatio), nil
}

func splitRunes(s string) []string {
	return strings.Split(s, "")
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
