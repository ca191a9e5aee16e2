package pipeline

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
)

// Handler feeds the payloads of one subscription to the processing, one at a time.
type Handler[Payload any] struct {
	logger *logr.Logger

	processing      Processing[Payload]
	errorProcessing ErrorProcessing
}

func NewHandler[Payload any](processing Processing[Payload], errProcessing ErrorProcessing) Handler[Payload] {
	return Handler[Payload]{
		processing:      processing,
		errorProcessing: errProcessing,
	}
}

func (h Handler[Payload]) WithLogger(logger logr.Logger) Handler[Payload] {
	h.logger = &logger

	return h
}

// Consume blocks until the subscription fails or the context is cancelled.
// A processing failure never ends the consumption, it is handed to the error processing.
func (h Handler[Payload]) Consume(ctx context.Context, subscription Subscription[Payload]) error {
	for {
		payload, err := subscription.Next(ctx)
		if err != nil {
			// Cancellation surfaces as a subscription error, report the cause instead
			ctxErr := ctx.Err()
			if ctxErr != nil {
				return ctxErr
			}

			return err
		}

		err = h.processing.Process(ctx, payload)
		if err != nil {
			h.processError(ctx, err)
		}
	}
}

func (h Handler[Payload]) processError(ctx context.Context, pipelineError error) {
	// Payload will be re-delivered by the resync following the next subscription
	err := ctx.Err()
	if err != nil {
		h.logInfo(1, "Not processing error, context has been cancelled")

		return
	}

	h.logError(pipelineError, "Processing failed")

	if h.errorProcessing == nil {
		return
	}

	processingError := createProcessingError(pipelineError)

	err = h.errorProcessing.Process(ctx, processingError)
	if err != nil {
		h.logError(err, "Error pipeline failed")

		h.dumpErrorContext(processingError)
	}
}

func (h Handler[Payload]) dumpErrorContext(err ErrProcessingError) {
	if h.logger == nil {
		return
	}

	h.logger.Error(err,
		"Failed to process payload",
		"additionalInputs", err.AdditionalInputs,
		"category", err.Category,
	)
}

func (h Handler[Payload]) logInfo(level int, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.V(level).Info(msg, keysAndValues...)
}

func (h Handler[Payload]) logError(err error, msg string, keysAndValues ...any) {
	if h.logger == nil {
		return
	}

	h.logger.Error(err, msg, keysAndValues...)
}

func createProcessingError(err error) ErrProcessingError {
	ret := ErrProcessingError{}
	if errors.As(err, &ret) {
		return ret
	}

	return NewErrProcessingError(err, UnknownCategory, nil)
}
