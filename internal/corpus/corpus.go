package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrMalformedCorpus is returned when an intent definition violates the
// corpus invariants. It is fatal at startup.
var ErrMalformedCorpus = errors.New("malformed corpus")

// DuplicatePolicy decides which intent owns a pattern declared by more than
// one intent.
type DuplicatePolicy string

const (
	// LastWins assigns the pattern to the last intent that declares it.
	LastWins DuplicatePolicy = "last"
	// FirstWins assigns the pattern to the first intent that declares it.
	FirstWins DuplicatePolicy = "first"
	// Reject fails the load with ErrMalformedCorpus.
	Reject DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy maps a config value to a policy. Empty means LastWins.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LastWins:
		return LastWins, nil
	case FirstWins:
		return FirstWins, nil
	case Reject:
		return Reject, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", s)
	}
}

// Duplicate records a pattern shared by several intents.
type Duplicate struct {
	Pattern string
	Tags    []string
	Winner  string
}

// Options control how a definition is turned into a Corpus.
type Options struct {
	DuplicatePolicy DuplicatePolicy
	Logger          *zap.Logger
}

// Corpus is the read-only set of intents plus its derived pattern index.
// It must not be mutated after Load returns, which makes it safe to share
// between goroutines.
type Corpus struct {
	intents    []models.Intent
	byTag      map[string]int
	patterns   []string
	index      map[string]string
	duplicates []Duplicate
}

// LoadFile reads a JSON or YAML corpus definition from path.
func LoadFile(path string, opts Options) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var def models.CorpusDefinition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
		}
	default:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
		}
	}

	return Load(def, opts)
}

// Load validates def and builds the corpus with its pattern→tag index.
func Load(def models.CorpusDefinition, opts Options) (*Corpus, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := opts.DuplicatePolicy
	if policy == "" {
		policy = LastWins
	}

	c := &Corpus{
		intents: make([]models.Intent, 0, len(def.Intents)),
		byTag:   make(map[string]int, len(def.Intents)),
		index:   make(map[string]string),
	}

	owners := make(map[string][]string)
	for i, intent := range def.Intents {
		tag := strings.TrimSpace(intent.Tag)
		if tag == "" {
			return nil, fmt.Errorf("%w: intent %d has no tag", ErrMalformedCorpus, i)
		}
		if len(intent.Patterns) == 0 {
			return nil, fmt.Errorf("%w: intent %q has no patterns", ErrMalformedCorpus, tag)
		}
		if len(intent.Responses) == 0 {
			return nil, fmt.Errorf("%w: intent %q has no responses", ErrMalformedCorpus, tag)
		}
		for _, r := range intent.Responses {
			if strings.TrimSpace(r) == "" {
				return nil, fmt.Errorf("%w: intent %q has a blank response", ErrMalformedCorpus, tag)
			}
		}
		if _, exists := c.byTag[tag]; exists {
			return nil, fmt.Errorf("%w: tag %q declared twice", ErrMalformedCorpus, tag)
		}

		c.byTag[tag] = len(c.intents)
		c.intents = append(c.intents, models.Intent{
			Tag:       tag,
			Patterns:  append([]string(nil), intent.Patterns...),
			Responses: append([]string(nil), intent.Responses...),
		})

		for _, pattern := range intent.Patterns {
			prev, seen := owners[pattern]
			if !seen {
				c.patterns = append(c.patterns, pattern)
			}
			if seen && prev[len(prev)-1] == tag {
				// same intent repeating its own pattern
				continue
			}
			owners[pattern] = append(prev, tag)
		}
	}

	for _, pattern := range c.patterns {
		tags := owners[pattern]
		winner := tags[len(tags)-1]
		if len(tags) > 1 {
			if policy == Reject {
				return nil, fmt.Errorf("%w: pattern %q declared by %s",
					ErrMalformedCorpus, pattern, strings.Join(tags, ", "))
			}
			if policy == FirstWins {
				winner = tags[0]
			}
			c.duplicates = append(c.duplicates, Duplicate{Pattern: pattern, Tags: tags, Winner: winner})
			logger.Warn("Pattern declared by several intents",
				zap.String("pattern", pattern),
				zap.Strings("tags", tags),
				zap.String("winner", winner),
				zap.String("policy", string(policy)))
		}
		c.index[pattern] = winner
	}

	return c, nil
}

// Intents returns the intents in declaration order.
func (c *Corpus) Intents() []models.Intent {
	return c.intents
}

// Intent looks up an intent by tag.
func (c *Corpus) Intent(tag string) (models.Intent, bool) {
	i, ok := c.byTag[tag]
	if !ok {
		return models.Intent{}, false
	}
	return c.intents[i], true
}

// Patterns returns every distinct pattern in first-declaration order.
func (c *Corpus) Patterns() []string {
	return c.patterns
}

// TagFor returns the tag owning pattern.
func (c *Corpus) TagFor(pattern string) (string, bool) {
	tag, ok := c.index[pattern]
	return tag, ok
}

// Duplicates lists the patterns that more than one intent declared.
func (c *Corpus) Duplicates() []Duplicate {
	return c.duplicates
}

func (c *Corpus) Len() int {
	return len(c.intents)
}

func (c *Corpus) Tags() []string {
	tags := make([]string, len(c.intents))
	for i, intent := range c.intents {
		tags[i] = intent.Tag
	}
	return tags
}

// SearchTags returns the tags fuzzily matching query, best first. An empty
// query returns every tag in declaration order.
func (c *Corpus) SearchTags(query string) []string {
	tags := c.Tags()
	query = strings.TrimSpace(query)
	if query == "" {
		return tags
	}

	matches := fuzzy.Find(query, tags)
	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.Str
	}
	return result
}

// Vocabulary counts the words used across all patterns. Words are split on
// anything that is not a letter or an apostrophe.
func (c *Corpus) Vocabulary() map[string]int {
	vocab := make(map[string]int)
	for _, intent := range c.intents {
		for _, pattern := range intent.Patterns {
			for _, word := range splitWords(pattern) {
				vocab[word]++
			}
		}
	}
	return vocab
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
