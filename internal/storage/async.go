package storage

import (
	"context"
	"sync"

	"github.com/xaenox/intentbot/internal/models"
	"go.uber.org/zap"
)

const defaultQueueSize = 256

// AsyncRecorder moves appends off the caller's path. Records are queued and
// written by a single goroutine; Append never blocks and fails with
// ErrQueueFull when the queue is saturated.
type AsyncRecorder struct {
	next   Recorder
	queue  chan *models.Interaction
	done   chan struct{}
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func NewAsyncRecorder(next Recorder, size int, logger *zap.Logger) *AsyncRecorder {
	if size <= 0 {
		size = defaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &AsyncRecorder{
		next:   next,
		queue:  make(chan *models.Interaction, size),
		done:   make(chan struct{}),
		logger: logger,
	}
	go a.run()
	return a
}

func (a *AsyncRecorder) run() {
	defer close(a.done)

	for rec := range a.queue {
		if err := a.next.Append(context.Background(), rec); err != nil {
			a.logger.Error("Failed to write interaction",
				zap.Error(err),
				zap.String("interaction_id", rec.ID))
		}
	}
}

func (a *AsyncRecorder) Append(ctx context.Context, rec *models.Interaction) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- rec:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting records, waits for the queue to drain and closes
// the underlying sink.
func (a *AsyncRecorder) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
