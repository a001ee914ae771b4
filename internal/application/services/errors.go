package services

import "errors"

var (
	ErrUnknownResource = errors.New("unknown market resource")
	ErrAlertNotFound   = errors.New("alert not found")
	ErrInvalidAlert    = errors.New("invalid alert")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	ErrEmptyCoinID     = errors.New("coin id is required")
	ErrInvalidDays     = errors.New("invalid chart range")
)
