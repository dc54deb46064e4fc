package storage

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/xaenox/intentbot/internal/models"
)

const logTimeFormat = "2006-01-02 15:04:05"

// FileStorage appends one text line per interaction to a log file.
type FileStorage struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("error opening chat log: %w", err)
	}
	return &FileStorage{file: f}, nil
}

func (s *FileStorage) Append(ctx context.Context, rec *models.Interaction) error {
	line := FormatLine(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("error writing chat log: %w", err)
	}
	return nil
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// FormatLine renders rec as a chat log line, newline included.
func FormatLine(rec *models.Interaction) string {
	return fmt.Sprintf("%s - User Input: %s | Corrected Input: %s | Response: %s\n",
		rec.Timestamp.Format(logTimeFormat), rec.RawInput, rec.NormalizedInput, rec.Response)
}
