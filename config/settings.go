package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}

// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
func ReportCacheTTL() time.Duration {
	return secondsFromEnv("REPORT_CACHE_TTL_SECONDS", 120)
}

// Env: ACCOUNT_LOCK_TTL_SECONDS (default 30s)
func AccountLockTTL() time.Duration {
	return secondsFromEnv("ACCOUNT_LOCK_TTL_SECONDS", 30)
}

// SkipMigrations disables AutoMigrate on startup (run it as a separate job instead).
func SkipMigrations() bool {
	return envBool("SKIP_MIGRATIONS")
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func secondsFromEnv(key string, def int) time.Duration {
	n := def
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return time.Duration(n) * time.Second
}
