package common

const (
	RedisKeySummaryCache = "digest:summary:%s"
	RedisKeyRunLock      = "digest:run:lock"

	MetricsNamespace = "news_digest"
)
