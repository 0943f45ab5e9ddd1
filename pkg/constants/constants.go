package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "request-start"
	RequestIDKey ContextKey = "request-id"
)
