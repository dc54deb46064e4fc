package models

import "time"

// Interaction is one classified utterance as handed to the recorder
type Interaction struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	RawInput        string    `json:"raw_input"`
	NormalizedInput string    `json:"normalized_input"`
	Response        string    `json:"response"`
	Tag             string    `json:"tag,omitempty"`
	Confidence      float64   `json:"confidence"`
}

// MatchResult is either a resolved tag with its confidence or Unknown.
type MatchResult struct {
	Tag        string  `json:"tag,omitempty"`
	Confidence float64 `json:"confidence"`
	Resolved   bool    `json:"resolved"`
}

// Resolved builds a confident match for tag.
func Resolved(tag string, confidence float64) MatchResult {
	return MatchResult{Tag: tag, Confidence: confidence, Resolved: true}
}

// Unknown is the no-confident-match outcome.
func Unknown() MatchResult {
	return MatchResult{}
}

// Classification is the result of running one utterance through the pipeline
type Classification struct {
	Response       string  `json:"response"`
	NormalizedText string  `json:"normalized_text"`
	Tag            string  `json:"tag,omitempty"`
	Confidence     float64 `json:"confidence"`
	Fallback       bool    `json:"fallback"`
}
