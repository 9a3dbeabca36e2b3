package config

import (
	"os"
	"strings"
)

// DeploymentMode represents the context gitpulse runs in. It decides how
// strictly configuration is validated.
type DeploymentMode string

const (
	// ModeDevelopment is a local checkout with a .env file or go.mod nearby
	ModeDevelopment DeploymentMode = "development"

	// ModePackaged is an installed binary run by an end user
	ModePackaged DeploymentMode = "packaged"

	// ModeCI is a pipeline run; configuration problems fail fast
	ModeCI DeploymentMode = "ci"
)

// DetectMode determines the deployment context based on environment
func DetectMode() DeploymentMode {
	// Explicit mode override (highest priority)
	if mode := os.Getenv(EnvPrefix + "_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "development", "dev":
			return ModeDevelopment
		case "packaged", "pkg", "production", "prod":
			return ModePackaged
		case "ci", "cicd":
			return ModeCI
		}
	}

	if isCI() {
		return ModeCI
	}

	for _, marker := range []string{".env", "go.mod"} {
		if _, err := os.Stat(marker); err == nil {
			return ModeDevelopment
		}
	}

	return ModePackaged
}

// isCI detects if running in a CI/CD environment
func isCI() bool {
	ciEnvVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"CIRCLECI",
		"JENKINS_URL",
		"BUILDKITE",
		"TF_BUILD",
	}

	for _, envVar := range ciEnvVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}
	return false
}

// String returns the string representation of the mode
func (m DeploymentMode) String() string {
	return string(m)
}

// RequiresStrictValidation returns true if warnings should be treated as errors
func (m DeploymentMode) RequiresStrictValidation() bool {
	return m == ModeCI
}

// Description returns a human-readable description of the mode
func (m DeploymentMode) Description() string {
	switch m {
	case ModeDevelopment:
		return "Local development"
	case ModePackaged:
		return "Installed binary"
	case ModeCI:
		return "CI/CD pipeline"
	default:
		return "Unknown mode"
	}
}
