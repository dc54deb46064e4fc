package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/xaenox/intentbot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SQLStorage records interactions in a SQL table. It backs both the
// PostgreSQL and the SQLite sinks; only the driver and the placeholder
// style differ.
type SQLStorage struct {
	db     *sql.DB
	insert string
}

const (
	postgresInsert = `
		INSERT INTO interactions (id, created_at, raw_input, normalized_input, response, tag, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	sqliteInsert = `
		INSERT INTO interactions (id, created_at, raw_input, normalized_input, response, tag, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
)

func NewPostgresStorage(config DatabaseConfig) (*SQLStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	return newSQLStorage(db, postgresInsert)
}

func newSQLStorage(db *sql.DB, insert string) (*SQLStorage, error) {
	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &SQLStorage{db: db, insert: insert}

	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *SQLStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	for _, stmt := range strings.Split(string(migrationSQL), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("error executing migrations: %w", err)
		}
	}

	return nil
}

func (s *SQLStorage) Append(ctx context.Context, rec *models.Interaction) error {
	_, err := s.db.ExecContext(ctx, s.insert,
		rec.ID,
		rec.Timestamp.UTC(),
		rec.RawInput,
		rec.NormalizedInput,
		rec.Response,
		rec.Tag,
		rec.Confidence,
	)
	if err != nil {
		return fmt.Errorf("error recording interaction: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
