package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// EnvPrefix is the prefix viper binds environment variables under
const EnvPrefix = "GITPULSE"

var envKeyReplacer = strings.NewReplacer(".", "_")

// Config holds all configuration settings
type Config struct {
	// Storage configuration
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Git invocation settings
	Git GitConfig `yaml:"git" mapstructure:"git"`

	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Parallelism bounds how many repositories ingest concurrently
	Parallelism int `yaml:"parallelism" mapstructure:"parallelism"`
}

type StorageConfig struct {
	Type           string `yaml:"type" mapstructure:"type"` // "sqlite", "postgres"
	LocalPath      string `yaml:"local_path" mapstructure:"local_path"`
	PostgresDSN    string `yaml:"postgres_dsn" mapstructure:"postgres_dsn"`
	PostgresDriver string `yaml:"postgres_driver" mapstructure:"postgres_driver"` // "pgx", "postgres"
}

type GitConfig struct {
	Binary         string        `yaml:"binary" mapstructure:"binary"`
	AutoFetch      bool          `yaml:"auto_fetch" mapstructure:"auto_fetch"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout" mapstructure:"command_timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
	// MaxSizeMB rotates the log file once it grows past this size
	MaxSizeMB int `yaml:"max_size_mb" mapstructure:"max_size_mb"`
}

type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "table", "json", "yaml"
	Color  bool   `yaml:"color" mapstructure:"color"`
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Storage: StorageConfig{
			Type:           "sqlite",
			LocalPath:      filepath.Join(homeDir, ".gitpulse", "gitpulse.db"),
			PostgresDriver: "pgx",
		},
		Git: GitConfig{
			Binary:         "git",
			FetchTimeout:   5 * time.Minute,
			CommandTimeout: 2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 50,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
		},
		Parallelism: 4,
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// .env files first so the overrides below can see them
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.local_path", cfg.Storage.LocalPath)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("storage.postgres_driver", cfg.Storage.PostgresDriver)
	v.SetDefault("git.binary", cfg.Git.Binary)
	v.SetDefault("git.auto_fetch", cfg.Git.AutoFetch)
	v.SetDefault("git.fetch_timeout", cfg.Git.FetchTimeout)
	v.SetDefault("git.command_timeout", cfg.Git.CommandTimeout)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.json", cfg.Logging.JSON)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.color", cfg.Output.Color)
	v.SetDefault("parallelism", cfg.Parallelism)

	// GITPULSE_GIT_BINARY etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".gitpulse")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".gitpulse"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to unmarshal config")
	}

	applyEnvOverrides(cfg)
	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence. godotenv never
// overwrites a variable that is already set, so earlier files win.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}

	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".gitpulse", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		_ = godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies the unprefixed environment variables, which take
// precedence over the config file
func applyEnvOverrides(cfg *Config) {
	// Storage configuration
	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		cfg.Storage.Type = storageType
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if path := os.Getenv("LOCAL_DB_PATH"); path != "" {
		cfg.Storage.LocalPath = path
	}

	// Git configuration
	if seconds := os.Getenv("GIT_FETCH_TIMEOUT_SECONDS"); seconds != "" {
		if n, err := strconv.Atoi(seconds); err == nil && n > 0 {
			cfg.Git.FetchTimeout = time.Duration(n) * time.Second
		}
	}
	if autoFetch := os.Getenv("GIT_AUTO_FETCH"); autoFetch != "" {
		if b, err := strconv.ParseBool(autoFetch); err == nil {
			cfg.Git.AutoFetch = b
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.Set("storage", c.Storage)
	v.Set("git", map[string]interface{}{
		"binary":          c.Git.Binary,
		"auto_fetch":      c.Git.AutoFetch,
		"fetch_timeout":   c.Git.FetchTimeout.String(),
		"command_timeout": c.Git.CommandTimeout.String(),
	})
	v.Set("logging", c.Logging)
	v.Set("output", c.Output)
	v.Set("parallelism", c.Parallelism)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityMedium, "failed to create config directory")
	}
	if err := v.WriteConfigAs(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityMedium, "failed to write config")
	}
	return nil
}
