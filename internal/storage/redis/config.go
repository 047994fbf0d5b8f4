package redis

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MaxTxRetries bounds optimistic transaction retries when a watched
	// key changes underneath an update
	MaxTxRetries int

	// AuditStreamMaxLen caps the audit stream (approximate trimming)
	AuditStreamMaxLen int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		MaxTxRetries:      100,
		AuditStreamMaxLen: 100_000,
	}
}
