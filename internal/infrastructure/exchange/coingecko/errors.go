package coingecko

import "errors"

var (
	ErrRateLimited      = errors.New("coingecko rate limit exceeded")
	ErrUpstreamStatus   = errors.New("coingecko returned non-2xx status")
	ErrMalformedPayload = errors.New("malformed coingecko payload")
	ErrRequestFailed    = errors.New("coingecko request failed")
	ErrInvalidArgument  = errors.New("invalid coingecko request argument")
)
