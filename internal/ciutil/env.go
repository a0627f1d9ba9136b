package ciutil

import (
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// Environment variables consulted by this package.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	EnvDatabaseURL         = "DATABASE_URL"
	EnvHotelOpsTestDBURL   = "HOTELOPS_TEST_DB_URL"
	EnvHotelOpsDatabaseURL = "HOTELOPS_DATABASE_URL"
)

// IsCI reports whether any common CI provider variable is set.
func IsCI() bool {
	for _, name := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the first non-empty variable in envVars, or
// defaultValue. Using anything but the first name logs a warning.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		if val := os.Getenv(envVar); val != "" {
			if i > 0 && logger != nil {
				logger.Warn("using fallback environment variable",
					"used_var", envVar,
					"preferred_var", envVars[0],
					"value", MaskSensitiveValue(val))
			}
			return val
		}
	}
	return defaultValue
}

// MaskSensitiveValue hides the password of a connection URL and the middle
// of anything that looks like a key or token.
func MaskSensitiveValue(value string) string {
	if strings.Contains(value, "://") {
		if parsed, err := url.Parse(value); err == nil && parsed.User != nil {
			return parsed.Redacted()
		}
	}

	lower := strings.ToLower(value)
	if len(value) > 8 && (strings.Contains(lower, "key") ||
		strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret")) {
		return value[:4] + "****" + value[len(value)-4:]
	}
	return value
}
