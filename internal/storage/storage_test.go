package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/intentbot/internal/models"
)

func interaction(raw string) *models.Interaction {
	return &models.Interaction{
		ID:              uuid.New().String(),
		Timestamp:       time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC),
		RawInput:        raw,
		NormalizedInput: raw + "!",
		Response:        "Hi! How can I help?",
		Tag:             "greeting",
		Confidence:      0.9,
	}
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Append(context.Background(), interaction("helo")))
	require.NoError(t, s.Append(context.Background(), interaction("hi")))

	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "helo", records[0].RawInput)
	assert.Equal(t, "hi", records[1].RawInput)

	records[0].RawInput = "mutated"
	assert.Equal(t, "helo", s.Records()[0].RawInput)
	assert.NoError(t, s.Close())
}

func TestFileStorage_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0o644))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), interaction("helo")))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"existing\n2024-03-01 14:05:09 - User Input: helo | Corrected Input: helo! | Response: Hi! How can I help?\n",
		string(data))
}

func TestFileStorage_BadPath(t *testing.T) {
	_, err := NewFileStorage(filepath.Join(t.TempDir(), "missing", "chat_log.txt"))
	assert.Error(t, err)
}

func countInteractions(ctx context.Context, s *SQLStorage) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n)
	return n, err
}

func TestSQLiteStorage(t *testing.T) {
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "interactions.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, interaction(fmt.Sprintf("message %d", i))))
	}

	n, err := countInteractions(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rec := interaction("dup")
	require.NoError(t, s.Append(ctx, rec))
	assert.Error(t, s.Append(ctx, rec), "ids are unique")
}

func TestPostgresStorage(t *testing.T) {
	host := os.Getenv("INTENTBOT_TEST_PG_HOST")
	if host == "" {
		t.Skip("INTENTBOT_TEST_PG_HOST not set")
	}

	s, err := NewPostgresStorage(DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "postgres",
		Password: os.Getenv("INTENTBOT_TEST_PG_PASSWORD"),
		DBName:   "postgres",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	before, err := countInteractions(ctx, s)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, interaction("hello")))
	after, err := countInteractions(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestAsyncRecorder_DrainsOnClose(t *testing.T) {
	mem := NewMemoryStorage()
	a := NewAsyncRecorder(mem, 100, nil)

	for i := 0; i < 50; i++ {
		require.NoError(t, a.Append(context.Background(), interaction(fmt.Sprintf("m%d", i))))
	}
	require.NoError(t, a.Close())

	records := mem.Records()
	require.Len(t, records, 50)
	assert.Equal(t, "m0", records[0].RawInput)
	assert.Equal(t, "m49", records[49].RawInput)

	assert.ErrorIs(t, a.Append(context.Background(), interaction("late")), ErrClosed)
	assert.NoError(t, a.Close(), "second close is a no-op")
}

type blockingRecorder struct {
	release chan struct{}
	mu      sync.Mutex
	n       int
	closed  bool
}

func (b *blockingRecorder) Append(context.Context, *models.Interaction) error {
	<-b.release
	b.mu.Lock()
	defer b.mu.Unlock()
	b.n++
	return nil
}

func (b *blockingRecorder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func TestAsyncRecorder_FullQueueDoesNotBlock(t *testing.T) {
	sink := &blockingRecorder{release: make(chan struct{})}
	a := NewAsyncRecorder(sink, 1, nil)

	var full int
	for i := 0; i < 5; i++ {
		if err := a.Append(context.Background(), interaction("x")); errors.Is(err, ErrQueueFull) {
			full++
		}
	}
	assert.GreaterOrEqual(t, full, 3, "at most one queued and one in flight")

	close(sink.release)
	require.NoError(t, a.Close())
	assert.True(t, sink.closed)
	assert.Equal(t, 5-full, sink.n)
}

type failingRecorder struct{ closed bool }

func (f *failingRecorder) Append(context.Context, *models.Interaction) error {
	return errors.New("disk full")
}
func (f *failingRecorder) Close() error { f.closed = true; return nil }

func TestAsyncRecorder_SinkErrorsAreSwallowed(t *testing.T) {
	sink := &failingRecorder{}
	a := NewAsyncRecorder(sink, 4, nil)
	assert.NoError(t, a.Append(context.Background(), interaction("x")))
	assert.NoError(t, a.Close())
	assert.True(t, sink.closed)
}

func TestDiscard(t *testing.T) {
	var r Recorder = Discard{}
	assert.NoError(t, r.Append(context.Background(), interaction("x")))
	assert.NoError(t, r.Close())
}
