package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a Config error, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(strings.TrimSpace(vr.Error()))
}

// Validate validates configuration with auto-detected mode
func (c *Config) Validate() *ValidationResult {
	return c.ValidateWithMode(DetectMode())
}

// ValidateWithMode validates configuration for the given deployment mode. In
// strict modes every warning is promoted to an error.
func (c *Config) ValidateWithMode(mode DeploymentMode) *ValidationResult {
	result := &ValidationResult{Valid: true}

	c.validateStorage(result, mode)
	c.validateGit(result)
	c.validateLogging(result)
	c.validateOutput(result)

	if c.Parallelism < 1 {
		result.AddError("parallelism must be at least 1, got %d", c.Parallelism)
	}

	if mode.RequiresStrictValidation() && len(result.Warnings) > 0 {
		for _, w := range result.Warnings {
			result.AddError("%s (strict in %s mode)", w, mode)
		}
		result.Warnings = nil
	}

	return result
}

func (c *Config) validateStorage(result *ValidationResult, mode DeploymentMode) {
	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.LocalPath == "" {
			result.AddError("storage.local_path is required for sqlite storage")
			return
		}
		dir := filepath.Dir(c.Storage.LocalPath)
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			result.AddError("storage.local_path parent %s is not a directory", dir)
		}
	case "postgres":
		dsn := c.Storage.PostgresDSN
		if dsn == "" {
			result.AddError("POSTGRES_DSN is required when storage.type is postgres")
			return
		}
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			result.AddError("POSTGRES_DSN must start with postgres:// or postgresql://")
		}
		if strings.Contains(dsn, "sslmode=disable") && mode != ModeDevelopment {
			result.AddWarning("PostgreSQL DSN has sslmode=disable. Consider sslmode=require.")
		}
		switch c.Storage.PostgresDriver {
		case "pgx", "postgres":
		default:
			result.AddError("storage.postgres_driver must be pgx or postgres, got %q", c.Storage.PostgresDriver)
		}
	default:
		result.AddError("storage.type must be sqlite or postgres, got %q", c.Storage.Type)
	}
}

func (c *Config) validateGit(result *ValidationResult) {
	if c.Git.Binary == "" {
		result.AddError("git.binary must not be empty")
	}
	if c.Git.CommandTimeout <= 0 {
		result.AddError("git.command_timeout must be positive")
	}
	if c.Git.FetchTimeout <= 0 {
		result.AddError("git.fetch_timeout must be positive")
	}
	if c.Git.CommandTimeout > 0 && c.Git.CommandTimeout < 5*time.Second {
		result.AddWarning("git.command_timeout of %s may fail on large repositories", c.Git.CommandTimeout)
	}
}

func (c *Config) validateLogging(result *ValidationResult) {
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		result.AddError("logging.level %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		result.AddWarning("logging.max_size_mb is not positive; the log file will not be rotated")
	}
}

func (c *Config) validateOutput(result *ValidationResult) {
	switch c.Output.Format {
	case "table", "json", "yaml":
	default:
		result.AddError("output.format must be table, json or yaml, got %q", c.Output.Format)
	}
}
