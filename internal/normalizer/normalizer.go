// Package normalizer corrects likely spelling errors in user input before
// it is matched against the intent corpus.
package normalizer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Normalizer maps raw text to a cleaned string. Implementations are total:
// they never fail and return the empty string for empty input.
type Normalizer interface {
	Normalize(text string) string
}

// Strategy names a normalization strategy in configuration.
type Strategy string

const (
	Identity      Strategy = "identity"
	LanguageModel Strategy = "language_model"
	Dictionary    Strategy = "dictionary"
)

// Options for New.
type Options struct {
	MaxEditDistance int
	Logger          *zap.Logger
}

// New builds the normalizer for strategy over vocab. The result is wrapped
// so that a panicking corrector degrades to the identity transform.
func New(strategy Strategy, vocab Vocabulary, opts Options) (Normalizer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	distance := opts.MaxEditDistance
	if distance <= 0 {
		distance = 2
	}

	var n Normalizer
	switch strategy {
	case Identity, "":
		return identity{}, nil
	case LanguageModel:
		n = NewLanguageModel(vocab, distance)
	case Dictionary:
		n = NewDictionary(vocab, distance)
	default:
		return nil, fmt.Errorf("unknown normalizer strategy %q", strategy)
	}
	return &safe{inner: n, strategy: strategy, logger: logger}, nil
}

type identity struct{}

func (identity) Normalize(text string) string { return text }

// safe recovers from corrector panics and falls back to the raw input.
type safe struct {
	inner    Normalizer
	strategy Strategy
	logger   *zap.Logger
}

func (s *safe) Normalize(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("Normalization failed, using input unchanged",
				zap.String("strategy", string(s.strategy)),
				zap.Any("panic", r))
			out = text
		}
	}()
	return s.inner.Normalize(text)
}

// Vocabulary maps case-folded known words to their frequency.
type Vocabulary map[string]int

// NewVocabulary folds and merges one or more word counts.
func NewVocabulary(counts ...map[string]int) Vocabulary {
	v := make(Vocabulary)
	for _, c := range counts {
		for word, n := range c {
			if n <= 0 {
				n = 1
			}
			v[fold(word)] += n
		}
	}
	return v
}

// LoadWordList reads a word list with one "word [count]" entry per line.
// Blank lines and lines starting with # are ignored.
func LoadWordList(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer f.Close()

	words := make(map[string]int)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		count := 1
		if len(fields) > 1 {
			count, err = strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("word list %s line %d: bad count %q", path, line, fields[1])
			}
		}
		words[fields[0]] += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	return words, nil
}

// fold builds a fresh caser per call; cases.Caser is not safe for
// concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// matchCase gives replacement the capitalisation of original: all upper,
// leading upper, or as-is.
func matchCase(original, replacement string) string {
	first, _ := utf8.DecodeRuneInString(original)
	if !unicode.IsUpper(first) {
		return replacement
	}
	if utf8.RuneCountInString(original) > 1 && strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	r, size := utf8.DecodeRuneInString(replacement)
	return string(unicode.ToUpper(r)) + replacement[size:]
}
