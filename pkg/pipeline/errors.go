package pipeline

import (
	"errors"
	"fmt"
)

// ErrProcessingError

type ErrProcessingError struct {
	error
	Category         string
	AdditionalInputs []Input
}

type Input struct {
	Source string
	Key    string
	Value  []byte
}

const (
	UnknownCategory = "unknown"
	PanicCategory   = "panic"
)

func NewErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return ErrProcessingError{
		error:            err,
		Category:         category,
		AdditionalInputs: additionalInputs,
	}
}

func (e ErrProcessingError) Unwrap() error {
	return e.error
}

// ErrRetryableError

var ErrRetryableError = errors.New("retryable error")

func NewErrRetryableError(err error) error {
	return fmt.Errorf("%w: %w", ErrRetryableError, err)
}

func NewRetryableErrProcessingError(err error, category string, additionalInputs []Input) ErrProcessingError {
	return NewErrProcessingError(NewErrRetryableError(err), category, additionalInputs)
}

// Subscription errors
//
// Every subscription error sends the runner to backoff, these only change how it is reported.

var (
	ErrAPIError           = errors.New("api error")
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrUnexpected         = errors.New("unexpected error")
)

func NewErrAPIError(err error) error {
	return fmt.Errorf("%w: %w", ErrAPIError, err)
}
