package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultRetryable = "retryable"
)

var defaultBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

// Result classifies the outcome of a processing for metrics.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrRetryableError):
		return ResultRetryable
	default:
		return ResultFailure
	}
}

// Parallel Processing

type parallel[Payload any] struct {
	procs []Processing[Payload]
}

// NewParallelProcessing runs every processing concurrently and returns the first error.
func NewParallelProcessing[Payload any](p ...Processing[Payload]) Processing[Payload] {
	return parallel[Payload]{
		procs: p,
	}
}

func (p parallel[Payload]) Process(ctx context.Context, payload Payload) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for _, proc := range p.procs {
		group.Go(func() error {
			return proc.Process(groupCtx, payload)
		})
	}

	return group.Wait()
}

// Panic handler Processing

type panicHandler[Payload any] struct {
	processing Processing[Payload]
}

// NewPanicHandlerProcessing turns a panic of the inner processing into an ErrProcessingError
// carrying the stack.
func NewPanicHandlerProcessing[Payload any](p Processing[Payload]) Processing[Payload] {
	return panicHandler[Payload]{
		processing: p,
	}
}

func (p panicHandler[Payload]) Process(ctx context.Context, payload Payload) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		stack := Input{Source: "panic", Key: "stack", Value: debug.Stack()}

		err = NewErrProcessingError(fmt.Errorf("%w: %v", ErrUnexpected, r), PanicCategory, []Input{stack})
	}()

	return p.processing.Process(ctx, payload)
}

// Retry Processing

type RetryConfig struct {
	MaxAttempt uint
	Delay      time.Duration

	// Clock drives the delay between attempts, real clock when nil.
	Clock clockwork.Clock

	// OnRetry is called before every new attempt.
	OnRetry func(attempt uint, err error)
}

type retryProcessing[Payload any] struct {
	processing Processing[Payload]
	options    []retry.Option
}

// NewRetryProcessing retries the inner processing as long as it returns an ErrRetryableError.
// MaxAttempt must be strictly positive, 0 would retry forever.
func NewRetryProcessing[Payload any](p Processing[Payload], config RetryConfig) Processing[Payload] {
	clock := config.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	options := []retry.Option{
		retry.Attempts(config.MaxAttempt),
		retry.Delay(config.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.WithTimer(clock),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrRetryableError)
		}),
	}

	if config.OnRetry != nil {
		options = append(options, retry.OnRetry(config.OnRetry))
	}

	return retryProcessing[Payload]{
		processing: p,
		options:    options,
	}
}

func (p retryProcessing[Payload]) Process(ctx context.Context, payload Payload) error {
	options := append([]retry.Option{retry.Context(ctx)}, p.options...)

	return retry.Do(
		func() error {
			return p.processing.Process(ctx, payload)
		},
		options...,
	)
}

// Duration Metric Processing

type MetricsConfig struct {
	Namespace   string
	Buckets     []float64
	ConstLabels prometheus.Labels
}

type durationDecorator[Payload any] struct {
	processing Processing[Payload]
	histogram  *prometheus.HistogramVec
	clock      clockwork.Clock
}

// NewDurationMetricsDecoratorProcessing observes the processing duration in milliseconds, by result.
func NewDurationMetricsDecoratorProcessing[Payload any](p Processing[Payload], registry prometheus.Registerer, clock clockwork.Clock, config MetricsConfig) (Processing[Payload], error) {
	buckets := config.Buckets
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}

	histogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   config.Namespace,
		Name:        "processing_duration_milliseconds",
		Help:        "Time taken to process payload, by result.",
		Buckets:     buckets,
		ConstLabels: config.ConstLabels,
	}, []string{"result"})

	err := registry.Register(histogram)
	if err != nil {
		return nil, fmt.Errorf("failed to register duration histogram: %w", err)
	}

	return durationDecorator[Payload]{
		processing: p,
		histogram:  histogram,
		clock:      clock,
	}, nil
}

func (p durationDecorator[Payload]) Process(ctx context.Context, payload Payload) error {
	start := p.clock.Now()

	err := p.processing.Process(ctx, payload)

	elapsed := float64(p.clock.Since(start)) / float64(time.Millisecond)

	p.histogram.WithLabelValues(Result(err)).Observe(elapsed)

	return err
}

// Error Metric Processing

type errorCountProcessing struct {
	counter *prometheus.CounterVec
}

// NewErrorCountProcessing counts processing errors by category and retryability.
func NewErrorCountProcessing(registry prometheus.Registerer, config MetricsConfig) (Processing[ErrProcessingError], error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   config.Namespace,
		Name:        "processing_error_total",
		Help:        "Error counter by category.",
		ConstLabels: config.ConstLabels,
	}, []string{"category", "retryable"})

	err := registry.Register(counter)
	if err != nil {
		return nil, fmt.Errorf("failed to register error counter: %w", err)
	}

	return errorCountProcessing{
		counter: counter,
	}, nil
}

func (p errorCountProcessing) Process(_ context.Context, processingError ErrProcessingError) error {
	category := processingError.Category
	if category == "" {
		category = UnknownCategory
	}

	retryable := errors.Is(processingError, ErrRetryableError)

	p.counter.WithLabelValues(category, fmt.Sprintf("%t", retryable)).Inc()

	return nil
}
