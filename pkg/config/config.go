package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Corpus     CorpusConfig     `mapstructure:"corpus"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Matcher    MatcherConfig    `mapstructure:"matcher"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Recorder   RecorderConfig   `mapstructure:"recorder"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Server     ServerConfig     `mapstructure:"server"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
}

type CorpusConfig struct {
	Path            string `mapstructure:"path"`
	DuplicatePolicy string `mapstructure:"duplicate_policy"`
}

type NormalizerConfig struct {
	Strategy        string `mapstructure:"strategy"`
	DictionaryPath  string `mapstructure:"dictionary_path"`
	MaxEditDistance int    `mapstructure:"max_edit_distance"`
}

type MatcherConfig struct {
	Strategy  string  `mapstructure:"strategy"`
	Threshold float64 `mapstructure:"threshold"`
}

type EmbeddingConfig struct {
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	Dimensions     int    `mapstructure:"dimensions"`
	BatchSize      int    `mapstructure:"batch_size"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type RecorderConfig struct {
	Sink   string `mapstructure:"sink"`
	Path   string `mapstructure:"path"`
	Buffer int    `mapstructure:"buffer"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		if _, err := fmt.Sscanf(u.Port(), "%d", &port); err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q", u.Port())
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	// Remove leading slash from path to get database name
	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("corpus.path", "database.json")
	v.SetDefault("corpus.duplicate_policy", "last")
	v.SetDefault("normalizer.strategy", "language_model")
	v.SetDefault("normalizer.max_edit_distance", 2)
	v.SetDefault("matcher.strategy", "fuzzy")
	v.SetDefault("matcher.threshold", 0.5)
	v.SetDefault("embedding.provider", "hashing")
	v.SetDefault("embedding.dimensions", 512)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.max_concurrency", 1)
	v.SetDefault("recorder.sink", "file")
	v.SetDefault("recorder.path", "chat_log.txt")
	v.SetDefault("recorder.buffer", 256)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("sqlite.path", "interactions.db")
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// LoadConfig reads path (if it exists) on top of the defaults. Nested keys
// can be overridden from the environment as INTENTBOT_SECTION_KEY, e.g.
// INTENTBOT_MATCHER_THRESHOLD.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Enable environment variable support
	v.SetEnvPrefix("intentbot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		config.Telegram.Token = token
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values that cannot be caught later by the component
// constructors.
func (c *Config) Validate() error {
	if c.Matcher.Threshold < 0 || c.Matcher.Threshold > 1 {
		return fmt.Errorf("matcher.threshold must be within [0, 1], got %v", c.Matcher.Threshold)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Corpus.Path == "" {
		return errors.New("corpus.path is required")
	}
	return nil
}
