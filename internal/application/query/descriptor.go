package query

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
)

// FetchFunc produces the payload of a query. It must honour ctx.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// Descriptor identifies a logical request. Two descriptors with the same
// Key share cache state and in-flight fetches.
type Descriptor struct {
	Scope    string
	Resource string
	Params   []string
}

// NewDescriptor builds a descriptor; params are kept in the given order
func NewDescriptor(scope, resource string, params ...string) Descriptor {
	return Descriptor{Scope: scope, Resource: resource, Params: params}
}

// Key serializes the descriptor as scope:resource:p1:p2. Parameters are
// escaped so a ':' inside a value cannot collide with another tuple.
func (d Descriptor) Key() string {
	parts := make([]string, 0, len(d.Params)+2)
	if d.Scope != "" {
		parts = append(parts, d.Scope)
	}
	parts = append(parts, d.Resource)
	for _, p := range d.Params {
		parts = append(parts, url.QueryEscape(p))
	}
	return strings.Join(parts, ":")
}

// Label is the bounded scope:resource name used for metrics
func (d Descriptor) Label() string {
	if d.Scope == "" {
		return d.Resource
	}
	return d.Scope + ":" + d.Resource
}

func (d Descriptor) String() string {
	return d.Key()
}
