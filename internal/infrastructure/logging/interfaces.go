package logging

import (
	"context"
	"time"
)

// Logger define la interfaz principal para logging estructurado
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger representa loggers especializados por dominio
type DomainLogger interface {
	Logger
	Domain() string
}

// HTTPLogger especializado para logs relacionados con HTTP
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64)
}

// ExternalAPILogger cubre las llamadas a CoinGecko y CryptoPanic
type ExternalAPILogger interface {
	DomainLogger

	RequestStarted(ctx context.Context, service, endpoint, method string)
	RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64)
	Throttled(ctx context.Context, service, endpoint string, cooldown time.Duration)
}

// CacheLogger especializado para logs relacionados con cache
type CacheLogger interface {
	DomainLogger

	Hit(ctx context.Context, key string, operation string)
	Miss(ctx context.Context, key string, operation string)
	Set(ctx context.Context, key string, ttl float64)
	Delete(ctx context.Context, key string)
	CacheError(ctx context.Context, operation, key string, err error)
}

// QueryLogger registra el ciclo de vida de las queries del coordinador
type QueryLogger interface {
	DomainLogger

	FetchStarted(ctx context.Context, key string, background bool)
	FetchSucceeded(ctx context.Context, key string, duration time.Duration)
	FetchFailed(ctx context.Context, key string, attempts int, err error)
	RetryScheduled(ctx context.Context, key string, attempt uint, delay time.Duration, err error)
	QueryEvicted(ctx context.Context, key string)
}

// AlertLogger registra cambios en las alertas de precio
type AlertLogger interface {
	DomainLogger

	AlertCreated(ctx context.Context, id, coinID, condition string, target float64)
	AlertRemoved(ctx context.Context, id string)
	AlertTriggered(ctx context.Context, id, coinID string, target, price float64)
	ValidationFailed(ctx context.Context, input string, reason string)
}

// SecurityLogger especializado para logs relacionados con seguridad
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	InvalidRequest(ctx context.Context, clientIP string, reason string)
	SuspiciousActivity(ctx context.Context, clientIP string, activity string)
}
