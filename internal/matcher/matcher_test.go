package matcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/embedding"
	"github.com/xaenox/intentbot/internal/models"
)

func loadCorpus(t *testing.T, intents ...models.Intent) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load(models.CorpusDefinition{Intents: intents}, corpus.Options{})
	require.NoError(t, err)
	return c
}

func greetingCorpus(t *testing.T) *corpus.Corpus {
	return loadCorpus(t, models.Intent{
		Tag:       "greeting",
		Patterns:  []string{"hello", "hi there"},
		Responses: []string{"Hi! How can I help?"},
	})
}

func shopCorpus(t *testing.T) *corpus.Corpus {
	return loadCorpus(t,
		models.Intent{Tag: "greeting", Patterns: []string{"hello", "hi there", "good morning"}, Responses: []string{"Hi!"}},
		models.Intent{Tag: "goodbye", Patterns: []string{"bye", "see you later", "good night"}, Responses: []string{"Bye!"}},
		models.Intent{Tag: "hours", Patterns: []string{"when are you open", "opening hours"}, Responses: []string{"9 to 5"}},
	)
}

func allMatchers(t *testing.T, c *corpus.Corpus, threshold float64) map[Strategy]Matcher {
	t.Helper()
	out := make(map[Strategy]Matcher)
	for _, s := range []Strategy{Exact, Fuzzy, Semantic} {
		m, err := New(context.Background(), s, c, Options{
			Threshold: threshold,
			Embedder:  embedding.NewHashingEmbedder(256),
		})
		require.NoError(t, err, s)
		out[s] = m
	}
	return out
}

func TestFuzzy_ResolvesMisspelling(t *testing.T) {
	m := NewFuzzy(greetingCorpus(t), DefaultThreshold)

	res, err := m.Match(context.Background(), "helo")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "greeting", res.Tag)
	assert.InDelta(t, 8.0/9.0, res.Confidence, 1e-9)
}

func TestFuzzy_GibberishIsUnknown(t *testing.T) {
	m := NewFuzzy(greetingCorpus(t), DefaultThreshold)

	res, err := m.Match(context.Background(), "xyzzy plugh")
	require.NoError(t, err)
	assert.Equal(t, models.Unknown(), res)
}

func TestFuzzy_PicksClosestPattern(t *testing.T) {
	m := NewFuzzy(shopCorpus(t), DefaultThreshold)

	res, err := m.Match(context.Background(), "see you latr")
	require.NoError(t, err)
	assert.Equal(t, "goodbye", res.Tag)

	res, err = m.Match(context.Background(), "opening hour")
	require.NoError(t, err)
	assert.Equal(t, "hours", res.Tag)
}

func TestFuzzy_TieGoesToFirstDeclared(t *testing.T) {
	c := loadCorpus(t,
		models.Intent{Tag: "first", Patterns: []string{"abcx"}, Responses: []string{"1"}},
		models.Intent{Tag: "second", Patterns: []string{"abcy"}, Responses: []string{"2"}},
	)
	m := NewFuzzy(c, DefaultThreshold)

	res, err := m.Match(context.Background(), "abcz")
	require.NoError(t, err)
	assert.Equal(t, "first", res.Tag)
	assert.InDelta(t, 0.75, res.Confidence, 1e-9)
}

func TestFuzzy_HigherThresholdRejects(t *testing.T) {
	m := NewFuzzy(greetingCorpus(t), 0.95)

	res, err := m.Match(context.Background(), "helo")
	require.NoError(t, err)
	assert.False(t, res.Resolved)
}

func TestExact(t *testing.T) {
	m := NewExact(shopCorpus(t))

	res, err := m.Match(context.Background(), "opening hours")
	require.NoError(t, err)
	assert.Equal(t, models.Resolved("hours", 1), res)

	res, err = m.Match(context.Background(), "opening hour")
	require.NoError(t, err)
	assert.False(t, res.Resolved)
}

func TestSemantic_ResolvesClosestIntent(t *testing.T) {
	m, err := NewSemantic(context.Background(), shopCorpus(t), embedding.NewHashingEmbedder(512), SemanticOptions{Threshold: DefaultThreshold})
	require.NoError(t, err)

	res, err := m.Match(context.Background(), "what are your opening hours")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "hours", res.Tag)
	assert.GreaterOrEqual(t, res.Confidence, DefaultThreshold)
	assert.LessOrEqual(t, res.Confidence, 1.0)

	res, err = m.Match(context.Background(), "qwxz")
	require.NoError(t, err)
	assert.False(t, res.Resolved)
}

type failingEmbedder struct {
	calls int
	mu    sync.Mutex
}

func (f *failingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("provider unavailable")
	}
	return embedding.NewHashingEmbedder(32).Embed(context.Background(), texts)
}

func TestSemantic_QueryEmbeddingError(t *testing.T) {
	m, err := NewSemantic(context.Background(), greetingCorpus(t), &failingEmbedder{}, SemanticOptions{BatchSize: 100})
	require.NoError(t, err)

	res, err := m.Match(context.Background(), "hello")
	assert.Error(t, err)
	assert.False(t, res.Resolved)
}

func TestSemantic_PrecomputeError(t *testing.T) {
	e := &failingEmbedder{calls: 1}
	_, err := NewSemantic(context.Background(), greetingCorpus(t), e, SemanticOptions{})
	assert.Error(t, err)
}

func TestSemantic_BatchesCoverEveryPattern(t *testing.T) {
	m, err := NewSemantic(context.Background(), shopCorpus(t), embedding.NewHashingEmbedder(64),
		SemanticOptions{Threshold: DefaultThreshold, BatchSize: 2, MaxConcurrency: 3})
	require.NoError(t, err)

	for _, iv := range m.intents {
		for _, v := range iv.vectors {
			assert.Len(t, v, 64)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	c := greetingCorpus(t)

	_, err := New(context.Background(), Fuzzy, c, Options{Threshold: 1.5})
	assert.Error(t, err)

	_, err = New(context.Background(), Semantic, c, Options{Threshold: 0.5})
	assert.Error(t, err)

	_, err = New(context.Background(), "regex", c, Options{Threshold: 0.5})
	assert.Error(t, err)
}

func TestAllStrategies_EmptyCorpusIsUnknown(t *testing.T) {
	for s, m := range allMatchers(t, loadCorpus(t), DefaultThreshold) {
		for _, text := range []string{"hello", "anything at all"} {
			res, err := m.Match(context.Background(), text)
			require.NoError(t, err, s)
			assert.False(t, res.Resolved, "strategy %s", s)
		}
	}
}

func TestAllStrategies_BlankTextIsUnknown(t *testing.T) {
	for s, m := range allMatchers(t, shopCorpus(t), 0) {
		for _, text := range []string{"", "   ", "\t\n"} {
			res, err := m.Match(context.Background(), text)
			require.NoError(t, err, s)
			assert.False(t, res.Resolved, "strategy %s text %q", s, text)
		}
	}
}

func TestVerbatimPatternResolvesToOwner(t *testing.T) {
	c := shopCorpus(t)
	for _, threshold := range []float64{0, 0.5, 0.7, 1.0} {
		for _, s := range []Strategy{Exact, Fuzzy} {
			m, err := New(context.Background(), s, c, Options{Threshold: threshold})
			require.NoError(t, err)
			for _, intent := range c.Intents() {
				for _, p := range intent.Patterns {
					res, err := m.Match(context.Background(), p)
					require.NoError(t, err)
					assert.Equal(t, intent.Tag, res.Tag, "strategy %s threshold %v pattern %q", s, threshold, p)
				}
			}
		}
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	c := shopCorpus(t)
	inputs := []string{"helo", "hi", "see ya", "opening", "good", "xyzzy", "when r u open", "byee"}
	thresholds := []float64{0, 0.25, 0.5, 0.7, 0.9, 1.0}

	for _, s := range []Strategy{Exact, Fuzzy, Semantic} {
		prev := len(inputs) + 1
		for _, threshold := range thresholds {
			m, err := New(context.Background(), s, c, Options{Threshold: threshold, Embedder: embedding.NewHashingEmbedder(256)})
			require.NoError(t, err)

			resolved := 0
			for _, in := range inputs {
				res, err := m.Match(context.Background(), in)
				require.NoError(t, err)
				if res.Resolved {
					resolved++
				}
			}
			assert.LessOrEqual(t, resolved, prev, "strategy %s threshold %v", s, threshold)
			prev = resolved
		}
	}
}

func TestDeterminism(t *testing.T) {
	for s, m := range allMatchers(t, shopCorpus(t), DefaultThreshold) {
		first, err := m.Match(context.Background(), "see you soon")
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			again, err := m.Match(context.Background(), "see you soon")
			require.NoError(t, err)
			assert.Equal(t, first, again, "strategy %s", s)
		}
	}
}

func TestConcurrentMatch(t *testing.T) {
	matchers := allMatchers(t, shopCorpus(t), DefaultThreshold)

	var wg sync.WaitGroup
	for _, m := range matchers {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := m.Match(context.Background(), "good morning")
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()
}

func ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 1.0, ratio("hello", "hello"), 1e-9)
	assert.InDelta(t, 8.0/9.0, ratio("helo", "hello"), 1e-9)
	assert.InDelta(t, 0.0, ratio("abc", "xyz"), 1e-9)
}
