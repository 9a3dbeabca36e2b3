package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitpulse/internal/errors"
)

// inTempDir keeps .env discovery away from the working tree
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, "pgx", cfg.Storage.PostgresDriver)
	assert.Equal(t, 5*time.Minute, cfg.Git.FetchTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Git.CommandTimeout)
	assert.Equal(t, "table", cfg.Output.Format)

	result := cfg.ValidateWithMode(ModeDevelopment)
	assert.False(t, result.HasErrors(), result.Error())
	assert.NoError(t, result.Err())
}

func TestLoad_FileAndOverrides(t *testing.T) {
	dir := inTempDir(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  type: postgres
  postgres_dsn: postgres://u:p@db:5432/stats
git:
  fetch_timeout: 30s
  auto_fetch: false
output:
  format: json
parallelism: 2
`), 0644))

	t.Setenv("GIT_AUTO_FETCH", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("GITPULSE_GIT_BINARY", "/usr/local/bin/git")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "postgres://u:p@db:5432/stats", cfg.Storage.PostgresDSN)
	assert.Equal(t, "pgx", cfg.Storage.PostgresDriver)
	assert.Equal(t, 30*time.Second, cfg.Git.FetchTimeout)
	assert.True(t, cfg.Git.AutoFetch)
	assert.Equal(t, "/usr/local/bin/git", cfg.Git.Binary)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Parallelism)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GIT_FETCH_TIMEOUT_SECONDS=90\nLOCAL_DB_PATH=~/stats.db\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("GIT_FETCH_TIMEOUT_SECONDS")
		os.Unsetenv("LOCAL_DB_PATH")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Git.FetchTimeout)
	assert.Equal(t, filepath.Join(dir, "stats.db"), cfg.Storage.LocalPath)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasType(err, errors.ErrorTypeConfig))
}

func TestSaveAndLoad(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Git.FetchTimeout = 45 * time.Second
	cfg.Output.Format = "yaml"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, loaded.Git.FetchTimeout)
	assert.Equal(t, "yaml", loaded.Output.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		mode     DeploymentMode
		errors   int
		warnings int
	}{
		{
			name:   "unknown storage type",
			mutate: func(c *Config) { c.Storage.Type = "mysql" },
			mode:   ModeDevelopment,
			errors: 1,
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.Storage.Type = "postgres" },
			mode:   ModeDevelopment,
			errors: 1,
		},
		{
			name: "postgres bad scheme and driver",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.PostgresDSN = "host=db"
				c.Storage.PostgresDriver = "mysql"
			},
			mode:   ModeDevelopment,
			errors: 2,
		},
		{
			name: "sslmode disable warns when packaged",
			mutate: func(c *Config) {
				c.Storage.Type = "postgres"
				c.Storage.PostgresDSN = "postgres://u:p@db/stats?sslmode=disable"
			},
			mode:     ModePackaged,
			warnings: 1,
		},
		{
			name: "warnings become errors in ci",
			mutate: func(c *Config) {
				c.Git.CommandTimeout = time.Second
			},
			mode:   ModeCI,
			errors: 1,
		},
		{
			name: "bad level, format and parallelism",
			mutate: func(c *Config) {
				c.Logging.Level = "loud"
				c.Output.Format = "xml"
				c.Parallelism = 0
			},
			mode:   ModeDevelopment,
			errors: 3,
		},
		{
			name:   "zero timeouts",
			mutate: func(c *Config) { c.Git.FetchTimeout = 0; c.Git.CommandTimeout = 0 },
			mode:   ModeDevelopment,
			errors: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			result := cfg.ValidateWithMode(tt.mode)
			assert.Len(t, result.Errors, tt.errors, result.Error())
			assert.Len(t, result.Warnings, tt.warnings)
			if tt.errors > 0 {
				assert.True(t, errors.HasType(result.Err(), errors.ErrorTypeConfig))
			}
		})
	}
}

func TestDetectMode(t *testing.T) {
	inTempDir(t)
	for _, v := range []string{"CI", "CONTINUOUS_INTEGRATION", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_URL", "BUILDKITE", "TF_BUILD"} {
		t.Setenv(v, "")
	}

	t.Setenv("GITPULSE_MODE", "ci")
	assert.Equal(t, ModeCI, DetectMode())

	t.Setenv("GITPULSE_MODE", "")
	assert.Equal(t, ModePackaged, DetectMode())

	t.Setenv("GITHUB_ACTIONS", "true")
	assert.Equal(t, ModeCI, DetectMode())
}
