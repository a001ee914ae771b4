package logging

import (
	"context"
	"time"
)

// BaseDomainLogger añade el campo de dominio a todo lo que registra
type BaseDomainLogger struct {
	Logger
	domain string
}

func newBaseDomainLogger(base Logger, domain string) *BaseDomainLogger {
	return &BaseDomainLogger{Logger: base, domain: domain}
}

// Domain retorna el dominio del logger
func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

func (dl *BaseDomainLogger) tag(fields Fields) Fields {
	tagged := make(Fields, len(fields)+1)
	for k, v := range fields {
		tagged[k] = v
	}
	tagged[FieldDomain] = dl.domain
	return tagged
}

func (dl *BaseDomainLogger) logAt(ctx context.Context, level LogLevel, message string, fields Fields) {
	fields = dl.tag(fields)
	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	default:
		dl.Logger.Info(ctx, message, fields)
	}
}

func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logAt(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.InfoWithError(ctx, message, err, dl.tag(fields))
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.WarnWithError(ctx, message, err, dl.tag(fields))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.Logger.ErrorWithError(ctx, message, err, dl.tag(fields))
}

// levelForStatus mapea un status HTTP a nivel de log
func levelForStatus(statusCode int) LogLevel {
	switch {
	case statusCode >= 500:
		return LevelError
	case statusCode >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// HTTPDomainLogger especializado para logs HTTP
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

// NewHTTPLogger crea un nuevo logger HTTP
func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{newBaseDomainLogger(baseLogger, "http")}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, 0).
		WithUserAgent(userAgent).
		WithRemoteIP(remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.logAt(ctx, levelForStatus(statusCode), "HTTP request completed", fields)
}

func (hl *HTTPDomainLogger) RequestFailed(ctx context.Context, method, path string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.ErrorWithError(ctx, "HTTP request failed", err, fields)
}

// ExternalAPIDomainLogger especializado para APIs externas
type ExternalAPIDomainLogger struct {
	*BaseDomainLogger
}

// NewExternalAPILogger crea un nuevo logger para APIs externas
func NewExternalAPILogger(baseLogger Logger) ExternalAPILogger {
	return &ExternalAPIDomainLogger{newBaseDomainLogger(baseLogger, "external_api")}
}

func (el *ExternalAPIDomainLogger) RequestStarted(ctx context.Context, service, endpoint, method string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalMethod, method).
		Build()

	el.Debug(ctx, "External API request started", fields)
}

func (el *ExternalAPIDomainLogger) RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	el.logAt(ctx, levelForStatus(statusCode), "External API request completed", fields)
}

func (el *ExternalAPIDomainLogger) RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	el.ErrorWithError(ctx, "External API request failed", err, fields)
}

func (el *ExternalAPIDomainLogger) Throttled(ctx context.Context, service, endpoint string, cooldown time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldCooldown, durationMillis(cooldown)).
		Build()

	el.Warn(ctx, "Upstream rate limited, cooling down before retry", fields)
}

// CacheDomainLogger especializado para cache
type CacheDomainLogger struct {
	*BaseDomainLogger
}

// NewCacheLogger crea un nuevo logger de cache
func NewCacheLogger(baseLogger Logger) CacheLogger {
	return &CacheDomainLogger{newBaseDomainLogger(baseLogger, "cache")}
}

func (cl *CacheDomainLogger) Hit(ctx context.Context, key string, operation string) {
	cl.Debug(ctx, "Cache hit", NewFieldBuilder().WithCache(operation, key, true).Build())
}

func (cl *CacheDomainLogger) Miss(ctx context.Context, key string, operation string) {
	cl.Debug(ctx, "Cache miss", NewFieldBuilder().WithCache(operation, key, false).Build())
}

func (cl *CacheDomainLogger) Set(ctx context.Context, key string, ttl float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheOperation, CacheOpSet).
		WithCustomField(FieldCacheTTL, ttl).
		Build()

	cl.Debug(ctx, "Cache set", fields)
}

func (cl *CacheDomainLogger) Delete(ctx context.Context, key string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheKey, key).
		WithCustomField(FieldCacheOperation, CacheOpDelete).
		Build()

	cl.Debug(ctx, "Cache delete", fields)
}

// CacheError se registra como warning: un fallo de cache se trata como miss
func (cl *CacheDomainLogger) CacheError(ctx context.Context, operation, key string, err error) {
	fields := NewFieldBuilder().
		WithCustomField(FieldCacheOperation, operation).
		WithCustomField(FieldCacheKey, key).
		Build()

	cl.WarnWithError(ctx, "Cache operation failed", err, fields)
}

// QueryDomainLogger registra fetches, reintentos y desalojos de queries
type QueryDomainLogger struct {
	*BaseDomainLogger
}

// NewQueryLogger crea un nuevo logger del coordinador de queries
func NewQueryLogger(baseLogger Logger) QueryLogger {
	return &QueryDomainLogger{newBaseDomainLogger(baseLogger, "query")}
}

func (ql *QueryDomainLogger) FetchStarted(ctx context.Context, key string, background bool) {
	fields := NewFieldBuilder().
		WithQuery(key, 0).
		WithCustomField(FieldBackground, background).
		Build()

	ql.Debug(ctx, "Query fetch started", fields)
}

func (ql *QueryDomainLogger) FetchSucceeded(ctx context.Context, key string, duration time.Duration) {
	fields := NewFieldBuilder().
		WithQuery(key, 0).
		WithDuration(duration).
		Build()

	ql.Debug(ctx, "Query fetch succeeded", fields)
}

func (ql *QueryDomainLogger) FetchFailed(ctx context.Context, key string, attempts int, err error) {
	fields := NewFieldBuilder().
		WithQuery(key, uint(attempts)).
		Build()

	ql.ErrorWithError(ctx, "Query fetch failed after retries", err, fields)
}

func (ql *QueryDomainLogger) RetryScheduled(ctx context.Context, key string, attempt uint, delay time.Duration, err error) {
	fields := NewFieldBuilder().
		WithQuery(key, attempt).
		WithCustomField(FieldRetryDelay, durationMillis(delay)).
		Build()

	ql.WarnWithError(ctx, "Query fetch failed, retrying", err, fields)
}

func (ql *QueryDomainLogger) QueryEvicted(ctx context.Context, key string) {
	ql.Debug(ctx, "Query evicted after gc time", NewFieldBuilder().WithQuery(key, 0).Build())
}

// AlertDomainLogger especializado para alertas de precio
type AlertDomainLogger struct {
	*BaseDomainLogger
}

// NewAlertLogger crea un nuevo logger de alertas
func NewAlertLogger(baseLogger Logger) AlertLogger {
	return &AlertDomainLogger{newBaseDomainLogger(baseLogger, "alerts")}
}

func (al *AlertDomainLogger) AlertCreated(ctx context.Context, id, coinID, condition string, target float64) {
	fields := NewFieldBuilder().
		WithAlert(id, coinID, target, 0).
		WithCustomField(FieldCondition, condition).
		Build()

	al.Info(ctx, "Price alert created", fields)
}

func (al *AlertDomainLogger) AlertRemoved(ctx context.Context, id string) {
	al.Info(ctx, "Price alert removed", Fields{FieldAlertID: id})
}

func (al *AlertDomainLogger) AlertTriggered(ctx context.Context, id, coinID string, target, price float64) {
	al.Info(ctx, "Price alert triggered", NewFieldBuilder().WithAlert(id, coinID, target, price).Build())
}

func (al *AlertDomainLogger) ValidationFailed(ctx context.Context, input string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField("input", input).
		WithCustomField("reason", reason).
		WithCustomField(FieldValidation, "failed").
		Build()

	al.Warn(ctx, "Input validation failed", fields)
}

// SecurityDomainLogger especializado para seguridad
type SecurityDomainLogger struct {
	*BaseDomainLogger
}

// NewSecurityLogger crea un nuevo logger de seguridad
func NewSecurityLogger(baseLogger Logger) SecurityLogger {
	return &SecurityDomainLogger{newBaseDomainLogger(baseLogger, "security")}
}

func (sl *SecurityDomainLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("endpoint", endpoint).
		WithCustomField(FieldRateLimit, "exceeded").
		Build()

	sl.Warn(ctx, "Rate limit exceeded", fields)
}

func (sl *SecurityDomainLogger) InvalidRequest(ctx context.Context, clientIP string, reason string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("reason", reason).
		Build()

	sl.Warn(ctx, "Invalid request received", fields)
}

func (sl *SecurityDomainLogger) SuspiciousActivity(ctx context.Context, clientIP string, activity string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField(FieldSuspiciousReason, activity).
		Build()

	sl.Error(ctx, "Suspicious activity detected", fields)
}
