package query

import "errors"

var (
	ErrClosed        = errors.New("query coordinator closed")
	ErrQueryDisabled = errors.New("query is disabled")
	ErrNoSubscribers = errors.New("subscription is no longer active")
	ErrFetchPanicked = errors.New("query fetch panicked")
)
