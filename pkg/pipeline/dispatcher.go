package pipeline

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Dispatcher starts every pipeline as an independent goroutine and waits for all of them.
// Pipelines do not share a group context: one of them stopping leaves the others running.
type Dispatcher struct {
	pipelines []Pipeline

	logger *logr.Logger
}

func NewDispatcher(pipelines ...Pipeline) Dispatcher {
	return Dispatcher{
		pipelines: pipelines,
	}
}

func (d Dispatcher) WithLogger(logger logr.Logger) Dispatcher {
	d.logger = &logger

	return d
}

// Start returns once every pipeline returned. A cancelled context is a clean shutdown and is not
// reported as an error.
func (d Dispatcher) Start(ctx context.Context) error {
	var group errgroup.Group

	for _, p := range d.pipelines {
		pipeline := p

		group.Go(func() error {
			err := pipeline.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				d.logError(err, "Pipeline stopped")

				return err
			}

			return nil
		})
	}

	d.logInfo(0, "Pipelines started", "count", len(d.pipelines))

	err := group.Wait()

	d.logInfo(0, "Pipelines stopped")

	return err
}

func (d Dispatcher) logInfo(level int, msg string, keysAndValues ...any) {
	if d.logger == nil {
		return
	}

	d.logger.V(level).Info(msg, keysAndValues...)
}

func (d Dispatcher) logError(err error, msg string, keysAndValues ...any) {
	if d.logger == nil {
		return
	}

	d.logger.Error(err, msg, keysAndValues...)
}
