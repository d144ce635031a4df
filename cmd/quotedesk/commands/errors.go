package commands

import "errors"

var (
	errDatabaseURLRequired = errors.New("database-url is required (set via --database-url or PG_DSN env var)")
	errRedisAddrRequired   = errors.New("redis-addr is required (set via --redis-addr or REDIS_ADDR env var)")
	errQuoteIDRequired     = errors.New("quote-id is required")
)
