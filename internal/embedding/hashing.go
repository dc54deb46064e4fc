package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const defaultHashingDimensions = 512

// HashingEmbedder is a local embedder using the hashing trick over word
// unigrams and character trigrams. It needs no model download or network,
// is deterministic and safe for concurrent use.
type HashingEmbedder struct {
	size int
}

func NewHashingEmbedder(size int) *HashingEmbedder {
	if size <= 0 {
		size = defaultHashingDimensions
	}
	return &HashingEmbedder{size: size}
}

func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.features(text)
	}
	return vectors, nil
}

func (e *HashingEmbedder) features(text string) []float32 {
	vec := make([]float32, e.size)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		vec[e.bucket("w:"+w)] += 1.0

		padded := []rune(" " + w + " ")
		for j := 0; j+3 <= len(padded); j++ {
			vec[e.bucket("c:"+string(padded[j:j+3]))] += 0.5
		}
	}
	return vec
}

func (e *HashingEmbedder) bucket(feature string) int {
	h := fnv.New32a()
	h.Write([]byte(feature))
	return int(h.Sum32() % uint32(e.size))
}
