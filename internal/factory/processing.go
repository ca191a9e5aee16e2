package factory

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/internal/processing"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

const (
	deadLetterAttempts = 3
	deadLetterDelay    = 500 * time.Millisecond
)

/*
 * DecorateProcessing decorates the processing of one kind as follow:
 *
 * count --> panic --> duration --> [retry] --> main (processor)
 *
 * retry is only added when more than one registry attempt is configured.
 */
func DecorateProcessing(mainProcessing pipeline.Processing[entity.ResourceEvent], registry prometheus.Registerer, kind string, conf config.Processing, logger logr.Logger) (pipeline.Processing[entity.ResourceEvent], error) {
	ret := mainProcessing

	if conf.RegistryAttempts > 1 {
		ret = pipeline.NewRetryProcessing(ret, pipeline.RetryConfig{
			MaxAttempt: conf.RegistryAttempts,
			Delay:      conf.RegistryDelay,
			OnRetry: func(attempt uint, err error) {
				logger.V(1).Info("Registry unavailable, retrying", "attempt", attempt+1, "maxAttempt", conf.RegistryAttempts, "error", err.Error())
			},
		})
	}

	ret, err := pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clockwork.NewRealClock(), pipeline.MetricsConfig{
		Namespace:   metricsNamespace,
		ConstLabels: prometheus.Labels{"kind": kind},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	ret, err = processing.NewCountEvents(ret, registry, pipeline.MetricsConfig{Namespace: metricsNamespace})
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}

	return ret, nil
}

/*
 * DecorateErrorProcessing decorates the error processing of one kind as follow:
 *
 *										---> retry --> dead letter (optional)
 *	panic --> duration --> parallel ---|
 *										---> error count
 */
func DecorateErrorProcessing(deadLetter pipeline.ErrorProcessing, registry prometheus.Registerer, kind string) (pipeline.ErrorProcessing, error) {
	metricsConfig := pipeline.MetricsConfig{
		Namespace:   metricsNamespace + "_error",
		ConstLabels: prometheus.Labels{"kind": kind},
	}

	ret, err := pipeline.NewErrorCountProcessing(registry, metricsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create error count processing: %w", err)
	}

	if deadLetter != nil {
		ret = pipeline.NewParallelProcessing(ret, pipeline.NewRetryProcessing[pipeline.ErrProcessingError](deadLetter, pipeline.RetryConfig{MaxAttempt: deadLetterAttempts, Delay: deadLetterDelay}))
	}

	ret, err = pipeline.NewDurationMetricsDecoratorProcessing(ret, registry, clockwork.NewRealClock(), metricsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration metrics processor: %w", err)
	}

	ret = pipeline.NewPanicHandlerProcessing(ret)

	return ret, nil
}
