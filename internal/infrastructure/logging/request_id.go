package logging

import (
	"strings"

	"github.com/google/uuid"
)

// RequestIDGenerator generates unique request IDs
type RequestIDGenerator struct {
	prefix string
}

// NewRequestIDGenerator creates a new request ID generator
func NewRequestIDGenerator(prefix string) *RequestIDGenerator {
	if prefix == "" {
		prefix = "req"
	}
	return &RequestIDGenerator{prefix: prefix}
}

// Generate creates a new unique request ID: {prefix}_{uuid}
func (g *RequestIDGenerator) Generate() string {
	return g.prefix + "_" + uuid.NewString()
}

// GenerateShort keeps the first block of a random UUID
func (g *RequestIDGenerator) GenerateShort() string {
	id := uuid.NewString()
	return g.prefix + "_" + id[:strings.IndexByte(id, '-')]
}

var defaultGenerator = NewRequestIDGenerator("req")

// GenerateRequestID generates a request ID using the default generator
func GenerateRequestID() string {
	return defaultGenerator.Generate()
}

// GenerateShortRequestID generates a short request ID using the default generator
func GenerateShortRequestID() string {
	return defaultGenerator.GenerateShort()
}
