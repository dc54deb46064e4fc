package normalizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var wordPattern = regexp.MustCompile(`[\p{L}']+`)

// The distance-2 search grows quadratically with word length, so it is
// limited to short words and to a few words per input. Past
// maxCorrectedWords unknown words are passed through unchanged.
const (
	maxDeepEditRunes  = 10
	maxDeepCorrection = 4
	maxCorrectedWords = 64
)

type correctionBudget struct {
	words int
	deep  int
}

// LanguageModelCorrector corrects every word of the input against a word
// frequency model: a known word is kept, otherwise the most frequent known
// word within the edit distance limit replaces it. Characters outside word
// tokens are left where they are.
type LanguageModelCorrector struct {
	words       Vocabulary
	alphabet    []rune
	maxDistance int
}

// NewLanguageModel builds a corrector over vocab. maxDistance is capped at 2.
func NewLanguageModel(vocab Vocabulary, maxDistance int) *LanguageModelCorrector {
	if maxDistance > 2 {
		maxDistance = 2
	}

	letters := make(map[rune]struct{})
	for word := range vocab {
		for _, r := range word {
			letters[r] = struct{}{}
		}
	}
	alphabet := make([]rune, 0, len(letters))
	for r := range letters {
		alphabet = append(alphabet, r)
	}
	sort.Slice(alphabet, func(i, j int) bool { return alphabet[i] < alphabet[j] })

	return &LanguageModelCorrector{
		words:       vocab,
		alphabet:    alphabet,
		maxDistance: maxDistance,
	}
}

func (m *LanguageModelCorrector) Normalize(text string) string {
	if text == "" || len(m.words) == 0 {
		return text
	}
	budget := correctionBudget{words: maxCorrectedWords, deep: maxDeepCorrection}
	return wordPattern.ReplaceAllStringFunc(norm.NFC.String(text), func(word string) string {
		return m.correctWord(word, &budget)
	})
}

func (m *LanguageModelCorrector) correctWord(word string, budget *correctionBudget) string {
	if strings.IndexFunc(word, unicode.IsLetter) < 0 {
		return word
	}
	lower := fold(word)
	if _, ok := m.words[lower]; ok {
		return word
	}
	if budget.words == 0 {
		return word
	}
	budget.words--

	frontier := []string{lower}
	for d := 0; d < m.maxDistance; d++ {
		if d > 0 {
			if budget.deep == 0 || utf8.RuneCountInString(lower) > maxDeepEditRunes {
				break
			}
			budget.deep--
		}
		next := m.edits(frontier)
		if best := m.mostFrequent(next); best != "" {
			return matchCase(word, best)
		}
		frontier = next
	}
	return word
}

// mostFrequent picks the known candidate with the highest count, breaking
// ties alphabetically so the result does not depend on map order.
func (m *LanguageModelCorrector) mostFrequent(candidates []string) string {
	best, bestCount := "", 0
	for _, c := range candidates {
		count, ok := m.words[c]
		if !ok {
			continue
		}
		if count > bestCount || (count == bestCount && c < best) {
			best, bestCount = c, count
		}
	}
	return best
}

// edits returns every distinct string one deletion, transposition,
// replacement or insertion away from any of words.
func (m *LanguageModelCorrector) edits(words []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, word := range words {
		runes := []rune(word)
		for i := 0; i <= len(runes); i++ {
			left, right := runes[:i], runes[i:]
			if len(right) > 0 {
				add(string(left) + string(right[1:]))
			}
			if len(right) > 1 {
				add(string(left) + string(right[1]) + string(right[0]) + string(right[2:]))
			}
			for _, r := range m.alphabet {
				if len(right) > 0 && r != right[0] {
					add(string(left) + string(r) + string(right[1:]))
				}
				add(string(left) + string(r) + string(right))
			}
		}
	}
	return out
}
