package factory

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"

	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/internal/domain/repo"
	"github.com/nok-base/consul-sync/internal/kube"
	"github.com/nok-base/consul-sync/internal/processing"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

// Dependencies shared by every supervisor.
type Dependencies struct {
	Kube       dynamic.Interface
	Registry   repo.Registry
	Cursors    repo.CursorStore
	DeadLetter pipeline.ErrorProcessing
	Metrics    prometheus.Registerer
	Logger     logr.Logger
}

// CreateSupervisors creates one watch supervisor per configured kind.
func CreateSupervisors(conf *config.Config, deps Dependencies) ([]pipeline.Pipeline, error) {
	stateGauge, err := NewStateGauge(deps.Metrics)
	if err != nil {
		return nil, err
	}

	ret := make([]pipeline.Pipeline, 0, len(conf.Kinds))

	for _, kind := range conf.Kinds {
		supervisor, err := createSupervisor(conf, kind, deps, stateGauge)
		if err != nil {
			return nil, fmt.Errorf("failed to create supervisor of %s: %w", kind.Name, err)
		}

		ret = append(ret, supervisor)
	}

	return ret, nil
}

func createSupervisor(conf *config.Config, kind config.Kind, deps Dependencies, stateGauge StateGauge) (pipeline.Pipeline, error) {
	logger := deps.Logger.WithValues("kind", kind.Name)

	processor := processing.NewProcessor(CreateMapper(kind, conf.Registry.DefaultServicePort), deps.Registry).WithLogger(logger)

	mainProcessing, err := DecorateProcessing(processor, deps.Metrics, kind.Name, conf.Processing, logger)
	if err != nil {
		return nil, err
	}

	errorProcessing, err := DecorateErrorProcessing(deps.DeadLetter, deps.Metrics, kind.Name)
	if err != nil {
		return nil, err
	}

	source := kube.NewSource(deps.Kube, deps.Cursors, kube.SourceConfig{
		Kind: kind.Name,
		Resource: schema.GroupVersionResource{
			Group:    kind.Group,
			Version:  kind.Version,
			Resource: kind.Resource,
		},
		Namespace:    conf.Watch.Namespace,
		Resume:       conf.Watch.Resume,
		ResyncPeriod: conf.Watch.ResyncPeriod,
	}).WithLogger(deps.Logger)

	runner := pipeline.NewRunner[entity.ResourceEvent](source, mainProcessing, errorProcessing, pipeline.RunnerConfig{
		Name:    kind.Name,
		Backoff: conf.Watch.Backoff,
	}).
		WithLogger(deps.Logger).
		WithStateObserver(stateGauge.Observer(kind.Name))

	return runner, nil
}

func CreateMapper(kind config.Kind, defaultPort int) processing.Mapper {
	if kind.Role == entity.RolePrimary {
		return processing.NewPrimaryMapper(kind.Tag, kind.RegionLabelKey, defaultPort)
	}

	return processing.NewSecondaryMapper(kind.Tag, defaultPort)
}
