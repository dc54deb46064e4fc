// Package classifier is the single entry point of the matching pipeline:
// normalize, match, respond, record.
package classifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/intentbot/internal/matcher"
	"github.com/xaenox/intentbot/internal/models"
	"github.com/xaenox/intentbot/internal/normalizer"
	"github.com/xaenox/intentbot/internal/responder"
	"github.com/xaenox/intentbot/internal/storage"
	"go.uber.org/zap"
)

// Classifier is built once at startup and shared by every request handler.
// None of its collaborators are mutated after construction.
type Classifier struct {
	normalizer normalizer.Normalizer
	matcher    matcher.Matcher
	responder  *responder.Responder
	recorder   storage.Recorder
	logger     *zap.Logger
}

// New wires the pipeline. A nil recorder discards interactions.
func New(n normalizer.Normalizer, m matcher.Matcher, r *responder.Responder, rec storage.Recorder, logger *zap.Logger) *Classifier {
	if rec == nil {
		rec = storage.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		normalizer: n,
		matcher:    m,
		responder:  r,
		recorder:   rec,
		logger:     logger,
	}
}

// Classify answers one utterance. It never fails: low confidence, matcher
// errors and panics all end in a fallback response, and every answer is
// recorded.
func (c *Classifier) Classify(ctx context.Context, raw string) models.Classification {
	result := c.answer(ctx, raw)
	c.record(ctx, raw, result)
	return result
}

func (c *Classifier) answer(ctx context.Context, raw string) (result models.Classification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Classification panicked",
				zap.Any("panic", r),
				zap.String("input", raw))
			result = models.Classification{
				Response:       responder.GenericFallback,
				NormalizedText: raw,
				Fallback:       true,
			}
		}
	}()

	normalized := c.normalizer.Normalize(raw)

	match, err := c.matcher.Match(ctx, normalized)
	if err != nil {
		c.logger.Error("Failed to match input",
			zap.Error(err),
			zap.String("normalized", normalized))
		match = models.Unknown()
	}

	response, fallback := c.responder.Resolve(match)
	result = models.Classification{
		Response:       response,
		NormalizedText: normalized,
		Tag:            match.Tag,
		Confidence:     match.Confidence,
		Fallback:       fallback,
	}
	if fallback {
		result.Tag, result.Confidence = "", 0
	}
	return result
}

func (c *Classifier) record(ctx context.Context, raw string, result models.Classification) {
	rec := &models.Interaction{
		ID:              uuid.New().String(),
		Timestamp:       time.Now(),
		RawInput:        raw,
		NormalizedInput: result.NormalizedText,
		Response:        result.Response,
		Tag:             result.Tag,
		Confidence:      result.Confidence,
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Recorder panicked",
				zap.Any("panic", r),
				zap.String("interaction_id", rec.ID))
		}
	}()
	if err := c.recorder.Append(ctx, rec); err != nil {
		c.logger.Warn("Failed to record interaction",
			zap.Error(err),
			zap.String("interaction_id", rec.ID))
	}
}
