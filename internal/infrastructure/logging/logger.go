package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// levelRank ordena los niveles de menor a mayor severidad
var levelRank = map[LogLevel]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// StructuredLogger implementa Logger escribiendo una línea por entrada.
// Es seguro para uso concurrente: el coordinador de queries y el hub de
// WebSocket loguean desde muchas goroutines a la vez.
type StructuredLogger struct {
	mu     sync.Mutex
	config *LoggerConfig
	out    io.Writer
	now    func() time.Time
}

// LogEntry representa una entrada de log estructurada
type LogEntry struct {
	Timestamp   string   `json:"timestamp"`
	Level       LogLevel `json:"level"`
	Message     string   `json:"message"`
	RequestID   string   `json:"request_id,omitempty"`
	Service     string   `json:"service"`
	Version     string   `json:"version,omitempty"`
	Environment string   `json:"environment,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Source      string   `json:"source,omitempty"`
	Fields      Fields   `json:"fields,omitempty"`
}

// NewStructuredLogger crea un nuevo logger estructurado
func NewStructuredLogger(config *LoggerConfig) (*StructuredLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	configCopy := *config
	return &StructuredLogger{
		config: &configCopy,
		out:    configCopy.Output,
		now:    time.Now,
	}, nil
}

func (sl *StructuredLogger) enabled(level LogLevel) bool {
	sl.mu.Lock()
	min := sl.config.Level
	sl.mu.Unlock()
	return levelRank[level] >= levelRank[min]
}

func (sl *StructuredLogger) log(ctx context.Context, level LogLevel, message string, fields Fields) {
	if !sl.enabled(level) {
		return
	}

	entry := sl.newEntry(ctx, level, message, fields)

	var line string
	if sl.config.Format == FormatText {
		line = formatText(entry)
	} else {
		line = formatJSON(entry)
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	_, _ = io.WriteString(sl.out, line+"\n")
}

func (sl *StructuredLogger) newEntry(ctx context.Context, level LogLevel, message string, fields Fields) *LogEntry {
	if ctx == nil {
		ctx = context.Background()
	}

	// copia para no mutar el mapa del caller
	entryFields := make(Fields, len(fields)+1)
	for k, v := range fields {
		entryFields[k] = v
	}

	entry := &LogEntry{
		Timestamp:   sl.now().UTC().Format(time.RFC3339Nano),
		Level:       level,
		Message:     message,
		Service:     sl.config.Service,
		Version:     sl.config.Version,
		Environment: sl.config.Environment,
		RequestID:   GetRequestID(ctx),
	}

	if domain, ok := entryFields[FieldDomain].(string); ok {
		entry.Domain = domain
		delete(entryFields, FieldDomain)
	}

	if startTime := GetStartTime(ctx); !startTime.IsZero() {
		if _, set := entryFields[FieldDuration]; !set {
			entryFields[FieldDuration] = durationMillis(time.Since(startTime))
		}
	}

	if len(entryFields) > 0 {
		entry.Fields = entryFields
	}

	if sl.config.AddSource {
		entry.Source = callerName()
	}

	return entry
}

func formatJSON(entry *LogEntry) string {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf("[%s] %s - %s (unencodable fields: %v)", entry.Level, entry.RequestID, entry.Message, err)
	}
	return string(data)
}

func formatText(entry *LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp)
	sb.WriteString(" [")
	sb.WriteString(string(entry.Level))
	sb.WriteString("]")

	if entry.RequestID != "" {
		sb.WriteString(" req:")
		sb.WriteString(entry.RequestID)
	}
	if entry.Domain != "" {
		sb.WriteString(" domain:")
		sb.WriteString(entry.Domain)
	}
	sb.WriteString(" ")
	sb.WriteString(entry.Message)

	// orden estable para que las líneas se puedan comparar
	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Fields[k])
	}

	return sb.String()
}

// callerName devuelve la función que llamó al logger saltando los frames del paquete
func callerName() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "/internal/infrastructure/logging.") {
			name := frame.Function
			if idx := strings.LastIndex(name, "/"); idx != -1 {
				name = name[idx+1:]
			}
			return name
		}
		if !more {
			return ""
		}
	}
}

// Debug logs a debug message
func (sl *StructuredLogger) Debug(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelDebug, message, fields)
}

// Info logs an info message
func (sl *StructuredLogger) Info(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelInfo, message, fields)
}

// Warn logs a warning message
func (sl *StructuredLogger) Warn(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelWarn, message, fields)
}

// Error logs an error message
func (sl *StructuredLogger) Error(ctx context.Context, message string, fields Fields) {
	sl.log(ctx, LevelError, message, fields)
}

// InfoWithError logs an info message with error details
func (sl *StructuredLogger) InfoWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelInfo, message, withError(fields, err))
}

// WarnWithError logs a warning message with error details
func (sl *StructuredLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelWarn, message, withError(fields, err))
}

// ErrorWithError logs an error message with error details
func (sl *StructuredLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	sl.log(ctx, LevelError, message, withError(fields, err))
}

func withError(fields Fields, err error) Fields {
	if err == nil {
		return fields
	}
	enriched := make(Fields, len(fields)+2)
	for k, v := range fields {
		enriched[k] = v
	}
	enriched[FieldError] = err.Error()
	enriched[FieldErrorType] = errorType(err)
	return enriched
}

// SetLevel establece el nivel de logging
func (sl *StructuredLogger) SetLevel(level LogLevel) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.config.Level = level
}

// GetLevel retorna el nivel actual de logging
func (sl *StructuredLogger) GetLevel() LogLevel {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.config.Level
}
