package config

// RedisRequired makes ConnectRedisWithRetry block until redis answers.
//
// Set via env:
// - REDIS_REQUIRED=true
func RedisRequired() bool {
	return envBool("REDIS_REQUIRED")
}

// ReportCacheEnabled turns on redis caching of tenant-wide reports (aging, budget tracking).
// Cached reports are dropped on every write to the tenant.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return envBool("ENABLE_REPORT_CACHE")
}
