package model

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrEmptyResult      = errors.New("empty result")
)

// InsufficientDataError is returned when a series is too short, or has too
// few usable positive consecutive observations, to estimate parameters.
type InsufficientDataError struct {
	Points   int // observations in the series
	Returns  int // usable log-returns
	Required int // minimum log-returns needed
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d points, %d usable log-returns (need at least %d)",
		e.Points, e.Returns, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// InvalidParameterError reports a simulation parameter outside its domain.
type InvalidParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// EmptyResultError is returned when aggregation is requested on zero paths.
type EmptyResultError struct{}

func (e *EmptyResultError) Error() string { return "empty result: no simulated paths to aggregate" }

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }
