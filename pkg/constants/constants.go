package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	OrgIDKey     ContextKey = "orgID"
	LoggerKey    ContextKey = "logger"
	RequestIDKey ContextKey = "requestID"
	RequestStart ContextKey = "requestStart"
)
