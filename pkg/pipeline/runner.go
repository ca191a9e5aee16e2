package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
)

const DefaultBackoff = 5 * time.Second

type State string

const (
	StateConnecting State = "connecting"
	StateStreaming  State = "streaming"
	StateBackoff    State = "backoff"
	StateStopped    State = "stopped"
)

var States = []State{StateConnecting, StateStreaming, StateBackoff, StateStopped}

type RunnerConfig struct {
	Name string

	// Backoff is the fixed delay between a subscription failure and the next attempt.
	Backoff time.Duration
}

// Runner supervises the subscription of a single source:
//
//	connecting --> streaming --> backoff --> connecting --> ... --> stopped
//
// Every failure leads to backoff, the runner only stops when its context is done.
type Runner[Payload any] struct {
	name    string
	source  Source[Payload]
	handler Handler[Payload]

	backoff  time.Duration
	clock    clockwork.Clock
	observer func(State)

	logger *logr.Logger
}

func NewRunner[Payload any](source Source[Payload], processing Processing[Payload], errorProcessing ErrorProcessing, config RunnerConfig) Runner[Payload] {
	backoff := config.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	return Runner[Payload]{
		name:    config.Name,
		source:  source,
		handler: NewHandler(processing, errorProcessing),
		backoff: backoff,
		clock:   clockwork.NewRealClock(),
	}
}

func (r Runner[Payload]) WithLogger(logger logr.Logger) Runner[Payload] {
	logger = logger.WithValues("runner", r.name)

	r.logger = &logger
	r.handler = r.handler.WithLogger(logger)

	return r
}

func (r Runner[Payload]) WithClock(clock clockwork.Clock) Runner[Payload] {
	r.clock = clock

	return r
}

// WithStateObserver registers a callback invoked synchronously on every state transition.
func (r Runner[Payload]) WithStateObserver(observer func(State)) Runner[Payload] {
	r.observer = observer

	return r
}

func (r Runner[Payload]) Start(ctx context.Context) error {
	defer r.transition(StateStopped)

	r.logInfo(0, "Starting runner", "backoff", r.backoff)

	err := retry.Do(
		func() error {
			return r.subscribe(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(r.backoff),
		retry.DelayType(retry.FixedDelay),
		retry.WithTimer(r.clock),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(attempt uint, err error) {
			r.logSubscriptionError(err, attempt)
			r.transition(StateBackoff)
		}),
	)

	ctxErr := ctx.Err()
	if ctxErr != nil {
		r.logInfo(0, "Context expired")

		return ctxErr
	}

	return err
}

func (r Runner[Payload]) subscribe(ctx context.Context) (err error) {
	defer func() {
		rec := recover()
		if rec != nil {
			err = fmt.Errorf("%w: %v", ErrUnexpected, rec)
		}
	}()

	r.transition(StateConnecting)

	subscription, err := r.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	defer subscription.Close()

	r.transition(StateStreaming)

	err = r.handler.Consume(ctx, subscription)
	if err != nil {
		return fmt.Errorf("consumption stopped: %w", err)
	}

	return nil
}

func (r Runner[Payload]) transition(state State) {
	r.logInfo(1, "Runner state changed", "state", state)

	if r.observer != nil {
		r.observer(state)
	}
}

func (r Runner[Payload]) logSubscriptionError(err error, attempt uint) {
	switch {
	case errors.Is(err, ErrSubscriptionClosed):
		r.logInfo(1, "Subscription closed, reconnecting", "backoff", r.backoff, "attempt", attempt)
	case errors.Is(err, ErrAPIError):
		r.logError(err, "API error, retrying", "backoff", r.backoff, "attempt", attempt)
	default:
		r.logError(err, "Unexpected error, retrying", "backoff", r.backoff, "attempt", attempt)
	}
}

func (r Runner[Payload]) logInfo(level int, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.V(level).Info(msg, keysAndValues...)
}

func (r Runner[Payload]) logError(err error, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.Error(err, msg, keysAndValues...)
}
