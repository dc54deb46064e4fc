package responder

import (
	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

const (
	// UnknownResponse answers utterances no intent matched confidently.
	UnknownResponse = "Sorry, I didn't understand that. Could you please rephrase?"
	// GenericFallback answers when the pipeline itself is in a bad state.
	GenericFallback = "Sorry, I don't understand that."
)

// Responder maps a match result to the reply text.
type Responder struct {
	corpus *corpus.Corpus
	logger *zap.Logger
}

func New(c *corpus.Corpus, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{corpus: c, logger: logger}
}

// Resolve returns the reply for result and whether it is a fallback. A
// resolved intent always answers with its first response.
func (r *Responder) Resolve(result models.MatchResult) (string, bool) {
	if !result.Resolved {
		return UnknownResponse, true
	}

	intent, ok := r.corpus.Intent(result.Tag)
	if !ok || len(intent.Responses) == 0 {
		r.logger.Warn("Resolved tag missing from corpus",
			zap.String("tag", result.Tag),
			zap.Float64("confidence", result.Confidence))
		return GenericFallback, true
	}
	return intent.Responses[0], false
}
