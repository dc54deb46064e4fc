package normalizer

import (
	"strings"

	"github.com/sajari/fuzzy"
	"golang.org/x/text/unicode/norm"
)

// DictionaryCorrector replaces each whitespace-separated token that is not a
// known word with the spell model's best suggestion. Tokens the model has
// no suggestion for are kept unchanged.
type DictionaryCorrector struct {
	known Vocabulary
	model *fuzzy.Model
}

func NewDictionary(vocab Vocabulary, maxDistance int) *DictionaryCorrector {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(maxDistance)
	for word, count := range vocab {
		model.SetCount(word, count, true)
	}

	return &DictionaryCorrector{known: vocab, model: model}
}

func (d *DictionaryCorrector) Normalize(text string) string {
	tokens := strings.Fields(norm.NFC.String(text))
	for i, token := range tokens {
		lower := fold(token)
		if _, ok := d.known[lower]; ok {
			continue
		}
		if suggestion := d.suggest(lower); suggestion != "" {
			tokens[i] = matchCase(token, suggestion)
		}
	}
	return strings.Join(tokens, " ")
}

// suggest picks the closest candidate, then the most frequent, then the
// alphabetically first, so the result does not depend on map order.
func (d *DictionaryCorrector) suggest(word string) string {
	best, bestDistance, bestCount := "", 0, 0
	for _, c := range d.model.Suggestions(word, false) {
		distance := fuzzy.Levenshtein(&word, &c)
		count := d.known[c]
		switch {
		case best == "",
			distance < bestDistance,
			distance == bestDistance && count > bestCount,
			distance == bestDistance && count == bestCount && c < best:
			best, bestDistance, bestCount = c, distance, count
		}
	}
	return best
}
