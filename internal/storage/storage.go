package storage

import (
	"context"
	"errors"

	"github.com/xaenox/intentbot/internal/models"
)

var (
	// ErrClosed is returned by Append after Close.
	ErrClosed = errors.New("recorder closed")
	// ErrQueueFull is returned when the async queue cannot take a record.
	ErrQueueFull = errors.New("recorder queue full")
)

// Recorder is an append-only sink for interaction records. Records are
// never read back by the classifier.
type Recorder interface {
	Append(ctx context.Context, rec *models.Interaction) error
	Close() error
}

// Sink names a recorder backend in configuration.
type Sink string

const (
	FileSink     Sink = "file"
	MemorySink   Sink = "memory"
	PostgresSink Sink = "postgres"
	SQLiteSink   Sink = "sqlite"
	NoSink       Sink = "none"
)

// Discard drops every record.
type Discard struct{}

func (Discard) Append(context.Context, *models.Interaction) error { return nil }
func (Discard) Close() error                                       { return nil }
