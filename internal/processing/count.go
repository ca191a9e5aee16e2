package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

type CountEvents struct {
	counter *prometheus.CounterVec
	inner   pipeline.Processing[entity.ResourceEvent]
}

func NewCountEvents(p pipeline.Processing[entity.ResourceEvent], registry prometheus.Registerer, config pipeline.MetricsConfig) (pipeline.Processing[entity.ResourceEvent], error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: config.Namespace,
		Name:      "events_total",
		Help:      "Event counter by kind and change type.",
	}, []string{"kind", "change_type"})

	// Kinds share the counter
	err := registry.Register(counter)
	if err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}

		counter = are.ExistingCollector.(*prometheus.CounterVec)
	}

	ret := CountEvents{
		counter: counter,
		inner:   p,
	}

	return ret, nil
}

func (p CountEvents) Process(ctx context.Context, event entity.ResourceEvent) error {
	defer p.counter.WithLabelValues(event.Kind, string(event.ChangeType)).Inc()

	return p.inner.Process(ctx, event)
}
