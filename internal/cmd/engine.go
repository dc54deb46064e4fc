package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/xaenox/intentbot/internal/classifier"
	"github.com/xaenox/intentbot/internal/corpus"
	"github.com/xaenox/intentbot/internal/embedding"
	"github.com/xaenox/intentbot/internal/matcher"
	"github.com/xaenox/intentbot/internal/normalizer"
	"github.com/xaenox/intentbot/internal/responder"
	"github.com/xaenox/intentbot/internal/storage"
	"github.com/xaenox/intentbot/pkg/config"
	"go.uber.org/zap"
)

// engine holds everything a transport needs. It is built once and shared.
type engine struct {
	corpus     *corpus.Corpus
	classifier *classifier.Classifier
	recorder   storage.Recorder
}

func (e *engine) Close() error {
	return e.recorder.Close()
}

func buildEngine(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*engine, error) {
	policy, err := corpus.ParseDuplicatePolicy(cfg.Corpus.DuplicatePolicy)
	if err != nil {
		return nil, err
	}

	c, err := corpus.LoadFile(cfg.Corpus.Path, corpus.Options{DuplicatePolicy: policy, Logger: logger})
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded corpus",
		zap.String("path", cfg.Corpus.Path),
		zap.Int("intents", c.Len()),
		zap.Int("patterns", len(c.Patterns())),
		zap.Int("duplicates", len(c.Duplicates())))

	words := []map[string]int{c.Vocabulary()}
	if cfg.Normalizer.DictionaryPath != "" {
		extra, err := normalizer.LoadWordList(cfg.Normalizer.DictionaryPath)
		if err != nil {
			return nil, err
		}
		words = append(words, extra)
	}
	norm, err := normalizer.New(normalizer.Strategy(cfg.Normalizer.Strategy), normalizer.NewVocabulary(words...), normalizer.Options{
		MaxEditDistance: cfg.Normalizer.MaxEditDistance,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	opts := matcher.Options{
		Threshold:      cfg.Matcher.Threshold,
		BatchSize:      cfg.Embedding.BatchSize,
		MaxConcurrency: cfg.Embedding.MaxConcurrency,
		Logger:         logger,
	}
	if matcher.Strategy(cfg.Matcher.Strategy) == matcher.Semantic {
		opts.Embedder, err = newEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	m, err := matcher.New(ctx, matcher.Strategy(cfg.Matcher.Strategy), c, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher: %w", err)
	}

	rec, err := newRecorder(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &engine{
		corpus:     c,
		classifier: classifier.New(norm, m, responder.New(c, logger), rec, logger),
		recorder:   rec,
	}, nil
}

func newEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	ec := embedding.Config{
		Provider:   embedding.Provider(cfg.Embedding.Provider),
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	}
	switch ec.Provider {
	case embedding.OpenAI:
		ec.APIKey = cfg.OpenAI.APIKey
	case embedding.Gemini:
		ec.APIKey = cfg.Gemini.APIKey
	}
	return embedding.New(ctx, ec)
}

func newRecorder(cfg *config.Config, logger *zap.Logger) (storage.Recorder, error) {
	var (
		sink storage.Recorder
		err  error
	)
	switch storage.Sink(cfg.Recorder.Sink) {
	case storage.FileSink:
		sink, err = storage.NewFileStorage(cfg.Recorder.Path)
	case storage.MemorySink:
		sink = storage.NewMemoryStorage()
	case storage.PostgresSink:
		sink, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
	case storage.SQLiteSink:
		sink, err = storage.NewSQLiteStorage(cfg.SQLite.Path)
	case storage.NoSink, "":
		return storage.Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown recorder sink %q", cfg.Recorder.Sink)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s recorder: %w", cfg.Recorder.Sink, err)
	}

	logger.Info("Recording interactions", zap.String("sink", cfg.Recorder.Sink))
	return storage.NewAsyncRecorder(sink, cfg.Recorder.Buffer, logger), nil
}

// mustEngine loads the config and builds the engine, exiting on failure.
// A malformed corpus is fatal at startup.
func mustEngine(ctx context.Context, logger *zap.Logger) (*config.Config, *engine) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	e, err := buildEngine(ctx, cfg, logger)
	if errors.Is(err, corpus.ErrMalformedCorpus) {
		logger.Fatal("Corpus is malformed", zap.Error(err), zap.String("path", cfg.Corpus.Path))
	}
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	return cfg, e
}
