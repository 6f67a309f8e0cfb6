// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Tokenizer, Dataset, Embedding,
// etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Featurizer ServerConfig    `yaml:"featurizer"`
	Postgres   PostgresConfig  `yaml:"postgres"`
	Kafka      KafkaConfig     `yaml:"kafka"`
	Redis      RedisConfig     `yaml:"redis"`
	Tokenizer  TokenizerConfig `yaml:"tokenizer"`
	Dataset    DatasetConfig   `yaml:"dataset"`
	Embedding  EmbeddingConfig `yaml:"embedding"`
	Logging    LoggingConfig   `yaml:"logging"`
	Metrics    MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings. RateLimit is requests per client
// per minute; zero disables limiting.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	RateLimit       int           `yaml:"rateLimit"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AbstractIngest   string `yaml:"abstractIngest"`
	FeaturesComplete string `yaml:"featuresComplete"`
}

// RedisConfig holds Redis connection and vector cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// TokenizerConfig holds the per-call tokenizer parameters used by services.
type TokenizerConfig struct {
	MinLength int  `yaml:"minLength"`
	Flatten   bool `yaml:"flatten"`
}

// DatasetConfig controls the batch preparation job.
type DatasetConfig struct {
	RawPath      string `yaml:"rawPath"`
	OutputPath   string `yaml:"outputPath"`
	DropListPath string `yaml:"dropListPath"`
	VectorsPath  string `yaml:"vectorsPath"`
	NRows        int    `yaml:"nrows"`
	MinChars     int    `yaml:"minChars"`
	Workers      int    `yaml:"workers"`
}

// EmbeddingConfig points at the trained vocabulary and records the settings
// it was trained with.
type EmbeddingConfig struct {
	VocabularyPath string `yaml:"vocabularyPath"`
	Dimension      int    `yaml:"dimension"`
	Window         int    `yaml:"window"`
	MinCount       int    `yaml:"minCount"`
	Workers        int    `yaml:"workers"`
	Seed           *int64 `yaml:"seed"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a service.
func (c *Config) Validate() error {
	if c.Dataset.Workers < 1 {
		return fmt.Errorf("dataset.workers must be at least 1, got %d", c.Dataset.Workers)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit must not be negative, got %d", c.Server.RateLimit)
	}
	if c.Dataset.MinChars < 0 {
		return fmt.Errorf("dataset.minChars must not be negative, got %d", c.Dataset.MinChars)
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty")
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8081,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
			RateLimit:       600,
		},
		Featurizer: ServerConfig{
			Port:            8083,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "abstractfeatures",
			User:            "abstractfeatures",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "abstractfeatures-group",
			Topics: KafkaTopics{
				AbstractIngest:   "abstract-ingest",
				FeaturesComplete: "features.complete",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Tokenizer: TokenizerConfig{
			MinLength: 3,
			Flatten:   true,
		},
		Dataset: DatasetConfig{
			RawPath:      "data/raw/gtr_projects.csv",
			OutputPath:   "data/processed/gtr_tokenised.csv",
			DropListPath: "data/aux/gtr_projects_abstractText_drop.txt",
			VectorsPath:  "data/processed/gtr_embedding.csv",
			MinChars:     75,
			Workers:      4,
		},
		Embedding: EmbeddingConfig{
			VocabularyPath: "models/gtr_w2v.txt",
			Dimension:      300,
			Window:         10,
			MinCount:       1,
			Workers:        1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads AF_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AF_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("AF_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("AF_FEATURIZER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Featurizer.Port = port
		}
	}
	if v := os.Getenv("AF_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("AF_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("AF_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("AF_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("AF_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("AF_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("AF_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("AF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("AF_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AF_TOKENIZER_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tokenizer.MinLength = n
		}
	}
	if v := os.Getenv("AF_DATASET_NROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dataset.NRows = n
		}
	}
	if v := os.Getenv("AF_DATASET_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dataset.Workers = n
		}
	}
	if v := os.Getenv("AF_EMBEDDING_VOCABULARY_PATH"); v != "" {
		cfg.Embedding.VocabularyPath = v
	}
	if v := os.Getenv("AF_EMBEDDING_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Embedding.Seed = &seed
		}
	}
	if v := os.Getenv("AF_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AF_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
