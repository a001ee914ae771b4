package query

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle phase of a query
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the view every subscriber of a query observes.
// Data survives a failed refresh; Err is cleared by the next success.
type State struct {
	Key          string
	Status       Status
	Data         json.RawMessage
	Err          error
	LastUpdated  time.Time
	IsFetching   bool
	FailureCount int
}

// IsLoading is true only for the first fetch, when there is no data yet
func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

// Settled reports whether no fetch is running for the query
func (s State) Settled() bool {
	return !s.IsFetching && s.Status != StatusLoading
}

// HasData reports whether a payload is available, fresh or not
func (s State) HasData() bool {
	return len(s.Data) > 0
}

// ErrorMessage devuelve el texto del error o "" si no hay
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func (s State) isStale(now time.Time, staleTime time.Duration) bool {
	if !s.HasData() {
		return true
	}
	return now.Sub(s.LastUpdated) >= staleTime
}
