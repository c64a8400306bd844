package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/thisisjab/usersearch/api"
	"github.com/thisisjab/usersearch/engine"
	"github.com/thisisjab/usersearch/querier"
	"github.com/thisisjab/usersearch/source"
	"github.com/thisisjab/usersearch/storage"
	"go.yaml.in/yaml/v3"
)

const defaultCompileWorkersCount = 4

type Config struct {
	Logger              LoggerConfig                  `yaml:"logger"`
	Search              SearchConfig                  `yaml:"search"`
	Schema              source.FileSchemaSourceConfig `yaml:"schema"`
	Storage             *StorageConfig                `yaml:"storage"`
	API                 *api.Config                   `yaml:"api"`
	CompileWorkersCount uint                          `yaml:"compile_workers_count"`
}

type LoggerConfig struct {
	Level  string `yaml:"level" validate:"required,oneof=debug info warn error"`
	Type   string `yaml:"type" validate:"required,oneof=json text colored-text"`
	Output string `yaml:"output" validate:"omitempty,oneof=stdout stderr"`
}

type SearchConfig struct {
	// DateOrder reads ambiguous numeric dates: dmy (eur), mdy (usa) or ymd (iso).
	DateOrder string `yaml:"date_order"`

	// Timezone is an IANA zone name. Empty means the local zone.
	Timezone string `yaml:"timezone"`

	MaxLimit     int `yaml:"max_limit" validate:"gte=0"`
	DefaultLimit int `yaml:"default_limit" validate:"gte=0"`
}

type StorageConfig struct {
	Type   string `yaml:"type" validate:"required,oneof=clickhouse postgres sqlite"`
	Config any    `yaml:"config"`
}

// Load reads a YAML config file. ${VAR} references are expanded from the
// environment, which is first completed from a .env file next to the config
// file if there is one.
func Load(path string) (Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("cannot load env file: %w", err)
	}

	fileContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file content: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(fileContent))), &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse config file: %w", err)
	}

	if cfg.CompileWorkersCount == 0 {
		cfg.CompileWorkersCount = defaultCompileWorkersCount
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Parse builds the engine configuration and the logger. Storage is created
// but not connected.
func (cfg Config) Parse() (*engine.Config, *slog.Logger, error) {
	logger, err := parseLoggerConfig(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create logger: %w", err)
	}

	opts, err := parseSearchConfig(cfg.Search)
	if err != nil {
		return nil, logger, fmt.Errorf("cannot parse search config: %w", err)
	}

	var st engine.Storage
	if cfg.Storage != nil {
		st, err = parseStorageConfig(logger, *cfg.Storage)
		if err != nil {
			return nil, logger, fmt.Errorf("cannot create storage: %w", err)
		}
	}

	schema := source.NewFileSchemaSource(logger, cfg.Schema)

	return &engine.Config{
		Sources:             map[string]engine.SchemaSource{schema.Name(): schema},
		Storage:             st,
		Search:              opts,
		MaxLimit:            cfg.Search.MaxLimit,
		DefaultLimit:        cfg.Search.DefaultLimit,
		CompileWorkersCount: cfg.CompileWorkersCount,
	}, logger, nil
}

func parseLoggerConfig(cfg LoggerConfig) (*slog.Logger, error) {
	var logger *slog.Logger
	var handler slog.Handler

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var w io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		w = os.Stderr
	}

	switch cfg.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level, AddSource: true, TimeFormat: time.Kitchen})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Type)
	}

	logger = slog.New(handler)

	return logger, nil
}

func parseSearchConfig(cfg SearchConfig) (querier.Options, error) {
	order, err := querier.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return querier.Options{}, err
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return querier.Options{}, fmt.Errorf("invalid timezone: %w", err)
		}
	}

	return querier.Options{DateOrder: order, Location: loc}, nil
}

func parseStorageConfig(logger *slog.Logger, cfg StorageConfig) (engine.Storage, error) {
	validate := validator.New()

	switch cfg.Type {
	case "clickhouse":
		var clickHouseConfig storage.ClickHouseStorageConfig

		if err := remarshal(cfg.Config, &clickHouseConfig); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse storage config: %w", err)
		}
		if err := validate.Struct(clickHouseConfig); err != nil {
			return nil, fmt.Errorf("invalid clickhouse storage config: %w", err)
		}

		s, err := storage.NewClickHouseStorage(logger, clickHouseConfig)
		if err != nil {
			return nil, err
		}

		return s, nil

	case "postgres":
		var postgresConfig storage.PostgresStorageConfig

		if err := remarshal(cfg.Config, &postgresConfig); err != nil {
			return nil, fmt.Errorf("cannot parse postgres storage config: %w", err)
		}
		if err := validate.Struct(postgresConfig); err != nil {
			return nil, fmt.Errorf("invalid postgres storage config: %w", err)
		}

		s, err := storage.NewPostgresStorage(logger, postgresConfig)
		if err != nil {
			return nil, err
		}

		return s, nil

	case "sqlite":
		var sqliteConfig storage.SQLiteStorageConfig

		if err := remarshal(cfg.Config, &sqliteConfig); err != nil {
			return nil, fmt.Errorf("cannot parse sqlite storage config: %w", err)
		}
		if err := validate.Struct(sqliteConfig); err != nil {
			return nil, fmt.Errorf("invalid sqlite storage config: %w", err)
		}

		s, err := storage.NewSQLiteStorage(logger, sqliteConfig)
		if err != nil {
			return nil, err
		}

		return s, nil

	default:
		return nil, fmt.Errorf("invalid storage type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	// Marshal the input to YAML
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	// Unmarshal the YAML into the output
	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
