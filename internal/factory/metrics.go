package factory

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

const metricsNamespace = "consul_sync"

func CreatePrometheusServer(conf config.Metrics, gatherer prometheus.Gatherer) *http.Server {
	ret := &http.Server{Addr: fmt.Sprintf(":%v", conf.Port)}
	ret.SetKeepAlivesEnabled(true)
	ret.IdleTimeout = 5 * time.Second
	ret.ReadHeaderTimeout = 5 * time.Second

	router := http.NewServeMux()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	ret.Handler = router

	return ret
}

// StateGauge exposes the current state of every supervisor: 1 for the current state, 0 for the others.
type StateGauge struct {
	gauge *prometheus.GaugeVec
}

func NewStateGauge(registry prometheus.Registerer) (StateGauge, error) {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "supervisor_state",
		Help:      "Current state of the watch supervisor of each kind.",
	}, []string{"kind", "state"})

	err := registry.Register(gauge)
	if err != nil {
		return StateGauge{}, fmt.Errorf("failed to register metric: %w", err)
	}

	return StateGauge{gauge: gauge}, nil
}

func (g StateGauge) Observer(kind string) func(pipeline.State) {
	return func(current pipeline.State) {
		for _, state := range pipeline.States {
			value := 0.0
			if state == current {
				value = 1
			}

			g.gauge.WithLabelValues(kind, string(state)).Set(value)
		}
	}
}
