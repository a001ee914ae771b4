package logging

import (
	"fmt"
	"os"
	"sync"
)

// LoggerFactory crea los loggers de dominio sobre un mismo logger base
type LoggerFactory struct {
	baseLogger Logger
}

// NewLoggerFactory crea una nueva factory de loggers
func NewLoggerFactory(config *LoggerConfig) (*LoggerFactory, error) {
	baseLogger, err := NewStructuredLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create base logger: %w", err)
	}

	return &LoggerFactory{baseLogger: baseLogger}, nil
}

// NewLoggerFactoryFromLogger permite inyectar un logger base (tests)
func NewLoggerFactoryFromLogger(base Logger) *LoggerFactory {
	return &LoggerFactory{baseLogger: base}
}

// GetBaseLogger retorna el logger base
func (f *LoggerFactory) GetBaseLogger() Logger {
	return f.baseLogger
}

// UpdateLogLevel actualiza el nivel de log del logger base
func (f *LoggerFactory) UpdateLogLevel(level LogLevel) {
	f.baseLogger.SetLevel(level)
}

// LoggerSet contiene todos los loggers especializados
type LoggerSet struct {
	Base        Logger
	HTTP        HTTPLogger
	ExternalAPI ExternalAPILogger
	Cache       CacheLogger
	Query       QueryLogger
	Alerts      AlertLogger
	Security    SecurityLogger
}

// GetLoggerSet retorna un set completo de loggers especializados
func (f *LoggerFactory) GetLoggerSet() *LoggerSet {
	return &LoggerSet{
		Base:        f.baseLogger,
		HTTP:        NewHTTPLogger(f.baseLogger),
		ExternalAPI: NewExternalAPILogger(f.baseLogger),
		Cache:       NewCacheLogger(f.baseLogger),
		Query:       NewQueryLogger(f.baseLogger),
		Alerts:      NewAlertLogger(f.baseLogger),
		Security:    NewSecurityLogger(f.baseLogger),
	}
}

var (
	globalMu      sync.RWMutex
	globalFactory *LoggerFactory
	globalLoggers *LoggerSet
)

// InitializeGlobalLoggers inicializa los loggers globales
func InitializeGlobalLoggers(config *LoggerConfig) error {
	factory, err := NewLoggerFactory(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global loggers: %w", err)
	}

	setGlobalFactory(factory)
	return nil
}

func setGlobalFactory(factory *LoggerFactory) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalFactory = factory
	globalLoggers = factory.GetLoggerSet()
}

// GetGlobalLoggers retorna todos los loggers globales, creando los de por defecto si hace falta
func GetGlobalLoggers() *LoggerSet {
	globalMu.RLock()
	loggers := globalLoggers
	globalMu.RUnlock()
	if loggers != nil {
		return loggers
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLoggers == nil {
		factory, _ := NewLoggerFactory(DefaultConfig())
		globalFactory = factory
		globalLoggers = factory.GetLoggerSet()
	}
	return globalLoggers
}

// GetGlobalLogger retorna el logger base global
func GetGlobalLogger() Logger {
	return GetGlobalLoggers().Base
}

// SetGlobalLogLevel actualiza el nivel de log global
func SetGlobalLogLevel(level LogLevel) {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory != nil {
		factory.UpdateLogLevel(level)
	}
}

// NewDevelopmentConfig crea una configuración para desarrollo
func NewDevelopmentConfig(service string) *LoggerConfig {
	return NewConfig(service, "dev", "development").
		WithLevel(LevelDebug).
		WithFormat(FormatText).
		WithSource(true)
}

// NewProductionConfig crea una configuración para producción
func NewProductionConfig(service, version string) *LoggerConfig {
	return NewConfig(service, version, "production").
		WithLevel(LevelInfo).
		WithFormat(FormatJSON)
}

// ConfigFromEnvironment crea una configuración basada en variables de entorno
func ConfigFromEnvironment(service, version string) *LoggerConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config := NewConfig(service, version, env)

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.WithLevel(LogLevelFromString(level))
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.WithFormat(LogFormatFromString(format))
	}
	if os.Getenv("LOG_ADD_SOURCE") == "true" {
		config.WithSource(true)
	}

	return config
}
