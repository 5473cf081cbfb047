package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an expected prediction failure.
type ErrorKind string

const (
	KindInsufficientPoints ErrorKind = "insufficient_points"
	KindModelUnavailable   ErrorKind = "model_unavailable"
	KindPredictionFailure  ErrorKind = "prediction_failure"
)

var (
	ErrInsufficientPoints = errors.New("route has too few points")
	ErrModelUnavailable   = errors.New("prediction model not loaded")
	ErrPredictionFailure  = errors.New("prediction failed")
	ErrNotFound           = errors.New("not found")
)

// MinRoutePoints is the smallest route that yields a segment.
const MinRoutePoints = 2

// PredictionError is returned by the prediction pipeline for every expected
// failure. errors.Is matches it against the sentinel of its Kind.
type PredictionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PredictionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *PredictionError) Unwrap() error { return e.Err }

func (e *PredictionError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInsufficientPoints:
		return ErrInsufficientPoints
	case KindModelUnavailable:
		return ErrModelUnavailable
	default:
		return ErrPredictionFailure
	}
}

// NewPredictionError builds a PredictionError of the given kind.
func NewPredictionError(kind ErrorKind, message string, err error) *PredictionError {
	return &PredictionError{Kind: kind, Message: message, Err: err}
}

// InsufficientPoints reports a route with fewer than MinRoutePoints points.
func InsufficientPoints(n int) error {
	return NewPredictionError(KindInsufficientPoints,
		fmt.Sprintf("Route has too few points (%d, need at least %d)", n, MinRoutePoints), nil)
}

// ModelUnavailable reports a missing, corrupt or unloaded model artifact.
func ModelUnavailable(message string, err error) error {
	return NewPredictionError(KindModelUnavailable, message, err)
}

// PredictionFailure reports any other failure during feature build or inference.
func PredictionFailure(message string, err error) error {
	return NewPredictionError(KindPredictionFailure, message, err)
}

// KindOf classifies err. Unclassified errors are prediction failures.
func KindOf(err error) ErrorKind {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, ErrInsufficientPoints):
		return KindInsufficientPoints
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	}
	return KindPredictionFailure
}
