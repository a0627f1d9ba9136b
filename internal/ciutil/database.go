package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Connection defaults applied to database URLs in CI.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIPort     = "5432"
	StandardCIDatabase = "hotel_ops_test"
	StandardCIOptions  = "sslmode=disable"
)

// GetTestDatabaseURL returns the integration test database URL from
// DATABASE_URL, HOTELOPS_TEST_DB_URL or HOTELOPS_DATABASE_URL, in that
// order, or "" when none is set. In CI the URL is rewritten to the standard
// credentials, port, database and options.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks(
		[]string{EnvDatabaseURL, EnvHotelOpsTestDBURL, EnvHotelOpsDatabaseURL}, "", logger)
	if dbURL == "" || !IsCI() {
		return dbURL
	}

	standardized, err := StandardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Error("failed to standardize database URL",
				"error", err,
				"original_url", MaskSensitiveValue(dbURL))
		}
		return dbURL
	}
	if standardized != dbURL && logger != nil {
		logger.Info("standardized database URL for CI",
			"original", MaskSensitiveValue(dbURL),
			"standardized", MaskSensitiveValue(standardized))
	}
	return standardized
}

// StandardizeDatabaseURL rewrites a postgres URL to the CI credentials and
// fills in a missing port, database name or query. Other schemes are
// returned unchanged.
func StandardizeDatabaseURL(dbURL string) (string, error) {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return dbURL, nil
	}

	standardized := *parsed
	standardized.User = url.UserPassword(StandardCIUser, StandardCIPassword)

	host := parsed.Hostname()
	if parsed.Port() == "" && (host == "" || host == "localhost" || host == "127.0.0.1") {
		if host == "" {
			host = "localhost"
		}
		standardized.Host = host + ":" + StandardCIPort
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		standardized.Path = "/" + StandardCIDatabase
	}
	if parsed.RawQuery == "" {
		standardized.RawQuery = StandardCIOptions
	}
	return standardized.String(), nil
}
