package logging

import (
	"context"
)

// Atajos sobre el logger global, usados desde handlers y servicios.

func Debug(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Debug(ctx, message, fields)
}

func Info(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Info(ctx, message, fields)
}

func Warn(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Warn(ctx, message, fields)
}

func Error(ctx context.Context, message string, fields Fields) {
	GetGlobalLogger().Error(ctx, message, fields)
}

func InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().InfoWithError(ctx, message, err, fields)
}

func WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().WarnWithError(ctx, message, err, fields)
}

func ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	GetGlobalLogger().ErrorWithError(ctx, message, err, fields)
}

// HTTP retorna el logger HTTP global
func HTTP() HTTPLogger {
	return GetGlobalLoggers().HTTP
}

// ExternalAPI retorna el logger de API externa global
func ExternalAPI() ExternalAPILogger {
	return GetGlobalLoggers().ExternalAPI
}

// Cache retorna el logger de cache global
func Cache() CacheLogger {
	return GetGlobalLoggers().Cache
}

// Query retorna el logger global del coordinador de queries
func Query() QueryLogger {
	return GetGlobalLoggers().Query
}

// Alerts retorna el logger global de alertas
func Alerts() AlertLogger {
	return GetGlobalLoggers().Alerts
}

// Security retorna el logger de seguridad global
func Security() SecurityLogger {
	return GetGlobalLoggers().Security
}
