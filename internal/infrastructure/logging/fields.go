package logging

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fields representa campos estructurados para logs
type Fields map[string]interface{}

// LogLevel representa los diferentes niveles de log
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Campos estándar
const (
	FieldDomain    = "domain"
	FieldError     = "error"
	FieldErrorType = "error_type"
	FieldDuration  = "duration_ms"
	FieldComponent = "component"
)

// Campos HTTP
const (
	FieldHTTPMethod     = "http_method"
	FieldHTTPPath       = "http_path"
	FieldHTTPStatusCode = "http_status_code"
	FieldHTTPUserAgent  = "http_user_agent"
	FieldHTTPRemoteIP   = "http_remote_ip"
)

// Campos para APIs externas
const (
	FieldExternalService  = "external_service"
	FieldExternalEndpoint = "external_endpoint"
	FieldExternalMethod   = "external_method"
	FieldExternalStatus   = "external_status_code"
	FieldExternalDuration = "external_duration_ms"
	FieldCooldown         = "cooldown_ms"
)

// Campos para cache
const (
	FieldCacheOperation = "cache_operation"
	FieldCacheKey       = "cache_key"
	FieldCacheHit       = "cache_hit"
	FieldCacheTTL       = "cache_ttl_seconds"
)

// Campos del coordinador de queries
const (
	FieldQueryKey   = "query_key"
	FieldAttempt    = "attempt"
	FieldRetryDelay = "retry_delay_ms"
	FieldBackground = "background"
)

// Campos de alertas y mercado
const (
	FieldAlertID     = "alert_id"
	FieldCoinID      = "coin_id"
	FieldCondition   = "condition"
	FieldTargetPrice = "target_price"
	FieldPrice       = "price"
	FieldValidation  = "validation"
)

// Campos para seguridad
const (
	FieldClientIP         = "client_ip"
	FieldSuspiciousReason = "suspicious_reason"
	FieldRateLimit        = "rate_limit"
)

// Operaciones de cache
const (
	CacheOpGet    = "GET"
	CacheOpSet    = "SET"
	CacheOpDelete = "DELETE"
)

// FieldBuilder ayuda a construir campos de manera estandarizada
type FieldBuilder struct {
	fields Fields
}

// NewFieldBuilder crea un nuevo builder de campos
func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{fields: make(Fields)}
}

// WithError añade información del error
func (fb *FieldBuilder) WithError(err error) *FieldBuilder {
	if err != nil {
		fb.fields[FieldError] = err.Error()
		fb.fields[FieldErrorType] = errorType(err)
	}
	return fb
}

// WithDuration añade duración en milliseconds
func (fb *FieldBuilder) WithDuration(duration time.Duration) *FieldBuilder {
	fb.fields[FieldDuration] = durationMillis(duration)
	return fb
}

// WithHTTPInfo añade información HTTP básica
func (fb *FieldBuilder) WithHTTPInfo(method, path string, statusCode int) *FieldBuilder {
	fb.fields[FieldHTTPMethod] = method
	fb.fields[FieldHTTPPath] = path
	if statusCode > 0 {
		fb.fields[FieldHTTPStatusCode] = statusCode
	}
	return fb
}

// WithUserAgent añade user agent
func (fb *FieldBuilder) WithUserAgent(userAgent string) *FieldBuilder {
	if userAgent != "" {
		fb.fields[FieldHTTPUserAgent] = userAgent
	}
	return fb
}

// WithRemoteIP añade IP remota
func (fb *FieldBuilder) WithRemoteIP(ip string) *FieldBuilder {
	if ip != "" {
		fb.fields[FieldHTTPRemoteIP] = ip
	}
	return fb
}

// WithExternalAPI añade información de API externa
func (fb *FieldBuilder) WithExternalAPI(service, endpoint string, statusCode int, duration time.Duration) *FieldBuilder {
	fb.fields[FieldExternalService] = service
	fb.fields[FieldExternalEndpoint] = endpoint
	fb.fields[FieldExternalStatus] = statusCode
	fb.fields[FieldExternalDuration] = durationMillis(duration)
	return fb
}

// WithCache añade información de cache
func (fb *FieldBuilder) WithCache(operation, key string, hit bool) *FieldBuilder {
	fb.fields[FieldCacheOperation] = operation
	fb.fields[FieldCacheKey] = key
	fb.fields[FieldCacheHit] = hit
	return fb
}

// WithQuery añade la clave de la query y el intento actual
func (fb *FieldBuilder) WithQuery(key string, attempt uint) *FieldBuilder {
	fb.fields[FieldQueryKey] = key
	if attempt > 0 {
		fb.fields[FieldAttempt] = attempt
	}
	return fb
}

// WithAlert añade el contexto de una alerta de precio
func (fb *FieldBuilder) WithAlert(id, coinID string, target, price float64) *FieldBuilder {
	fb.fields[FieldAlertID] = id
	fb.fields[FieldCoinID] = coinID
	fb.fields[FieldTargetPrice] = target
	if price > 0 {
		fb.fields[FieldPrice] = price
	}
	return fb
}

// WithCustomField añade un campo personalizado
func (fb *FieldBuilder) WithCustomField(key string, value interface{}) *FieldBuilder {
	if key != "" && value != nil {
		fb.fields[key] = value
	}
	return fb
}

// Build retorna los campos construidos
func (fb *FieldBuilder) Build() Fields {
	if len(fb.fields) == 0 {
		return nil
	}
	return fb.fields
}

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	StartTimeKey contextKey = "start_time"
	UserAgentKey contextKey = "user_agent"
	RemoteIPKey  contextKey = "remote_ip"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, StartTimeKey, startTime)
}

func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, UserAgentKey, userAgent)
}

func WithRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}

func GetUserAgent(ctx context.Context) string {
	if userAgent, ok := ctx.Value(UserAgentKey).(string); ok {
		return userAgent
	}
	return ""
}

func GetRemoteIP(ctx context.Context) string {
	if remoteIP, ok := ctx.Value(RemoteIPKey).(string); ok {
		return remoteIP
	}
	return ""
}

// errorType devuelve el tipo Go del error más interno
func errorType(err error) string {
	if err == nil {
		return ""
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

func durationMillis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
