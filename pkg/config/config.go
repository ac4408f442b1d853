package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tabmine/bayes-classifier/pkg/attset"
)

// Config represents the bcl configuration
type Config struct {
	// Classifier induction settings
	Classifier ClassifierConfig `yaml:"classifier"`

	// Classifier execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Table file layout
	Table TableConfig `yaml:"table"`

	// Model store settings
	Store StoreConfig `yaml:"store"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ClassifierConfig contains the induction parameters
type ClassifierConfig struct {
	Type          string  `yaml:"type"`     // naive, full
	Laplace       float64 `yaml:"laplace"`  // Laplace correction
	MaxLLH        bool    `yaml:"maxllh"`   // maximum likelihood variance
	DWNull        bool    `yaml:"dwnull"`   // distribute null value weight
	Simplify      string  `yaml:"simplify"` // "", add, remove
	Criterion     string  `yaml:"criterion"`
	Relative      bool    `yaml:"relative"` // print class percentages
	MaxLineLength int     `yaml:"max_line_length"`
}

// ExecutionConfig contains the classification output settings
type ExecutionConfig struct {
	Threshold     float64 `yaml:"threshold"`    // two-class decision threshold
	ClassColumn   string  `yaml:"class_column"` // name of the predicted class column
	ProbColumn    string  `yaml:"prob_column"`  // name of the confidence column, empty = none
	ProbFormat    string  `yaml:"prob_format"`
	AllPosteriors bool    `yaml:"all_posteriors"`
	Align         bool    `yaml:"align"`
	Header        bool    `yaml:"header"`
}

// TableConfig describes the lexical layout of table files
type TableConfig struct {
	Blanks       string `yaml:"blanks"`
	FieldSeps    string `yaml:"field_seps"`
	NullChars    string `yaml:"null_chars"`
	CommentChars string `yaml:"comment_chars"`
	Weights      bool   `yaml:"weights"` // last field holds the tuple weight
}

// StoreConfig contains model store settings
type StoreConfig struct {
	// Backend selection: "file", "sqlite" or "redis"
	Backend string `yaml:"backend"`

	// File backend directory
	Path string `yaml:"path"`

	// Sqlite backend
	SqliteDSN string `yaml:"sqlite_dsn"`

	// Redis backend
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`

	// Number of model descriptions kept in memory, 0 = no cache
	CacheSize int `yaml:"cache_size"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	File       string `yaml:"file"`   // log file path, empty = stderr
	Format     string `yaml:"format"` // json, text
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	f := attset.DefaultFormat()
	return &Config{
		Classifier: ClassifierConfig{
			Type:          "naive",
			Criterion:     "accuracy",
			MaxLineLength: 72,
		},
		Execution: ExecutionConfig{
			Threshold:   0.5,
			ClassColumn: "bc",
			ProbFormat:  "%.3f",
			Header:      true,
		},
		Table: TableConfig{
			Blanks:       f.Blanks,
			FieldSeps:    f.FieldSeps,
			NullChars:    f.NullChars,
			CommentChars: f.CommentChars,
		},
		Store: StoreConfig{
			Backend:   "file",
			Path:      "models",
			SqliteDSN: "models.db",
			RedisURL:  "redis://localhost:6379",
			KeyPrefix: "bcl",
			CacheSize: 64,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from a file on fs
func LoadConfig(fs afero.Fs, configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If no config file specified, return defaults
	if configPath == "" {
		return config, nil
	}

	if _, err := fs.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := afero.ReadFile(fs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a file on fs
func (c *Config) SaveConfig(fs afero.Fs, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %v", err)
	}

	err = afero.WriteFile(fs, configPath, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate validates configuration values
func (c *Config) Validate() error {
	cl := c.Classifier
	if !oneOf(cl.Type, "naive", "full") {
		return fmt.Errorf("classifier type must be 'naive' or 'full'")
	}
	if cl.Laplace < 0 {
		return fmt.Errorf("laplace must be >= 0")
	}
	if !oneOf(cl.Simplify, "", "add", "remove") {
		return fmt.Errorf("simplify must be empty, 'add' or 'remove'")
	}
	if cl.Simplify != "" && cl.Type == "full" {
		return fmt.Errorf("simplify is only supported for naive classifiers")
	}
	if !oneOf(cl.Criterion, "accuracy", "loglik") {
		return fmt.Errorf("criterion must be 'accuracy' or 'loglik'")
	}
	if cl.MaxLineLength < 0 {
		return fmt.Errorf("max_line_length must be >= 0")
	}

	if c.Execution.Threshold < 0 || c.Execution.Threshold > 1 {
		return fmt.Errorf("threshold must be between 0 and 1")
	}
	if c.Execution.ClassColumn == "" {
		return fmt.Errorf("class_column cannot be empty")
	}
	if c.Execution.ProbFormat == "" {
		return fmt.Errorf("prob_format cannot be empty")
	}

	if c.Table.FieldSeps == "" {
		return fmt.Errorf("field_seps cannot be empty")
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store path cannot be empty for the file backend")
		}
	case "sqlite":
		if c.Store.SqliteDSN == "" {
			return fmt.Errorf("sqlite_dsn cannot be empty for the sqlite backend")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("redis_url cannot be empty for the redis backend")
		}
	default:
		return fmt.Errorf("store backend must be 'file', 'sqlite' or 'redis'")
	}
	if c.Store.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0")
	}

	// Validate logging level
	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	if !oneOf(c.Logging.Format, "text", "json") {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	return nil
}

// TableFormat returns the table layout for the attset reader and writer
func (c *Config) TableFormat() attset.Format {
	return attset.Format{
		Blanks:       c.Table.Blanks,
		FieldSeps:    c.Table.FieldSeps,
		NullChars:    c.Table.NullChars,
		CommentChars: c.Table.CommentChars,
		Weights:      c.Table.Weights,
	}
}
