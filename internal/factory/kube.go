package factory

import (
	"errors"
	"fmt"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/internal/log"
)

// CreateKubeClient uses the in-cluster credentials when available, the kubeconfig otherwise.
func CreateKubeClient(conf config.Kube) (dynamic.Interface, error) {
	restConfig, err := loadRestConfig(conf)
	if err != nil {
		return nil, err
	}

	restConfig.QPS = conf.QPS
	restConfig.Burst = conf.Burst

	ret, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	return ret, nil
}

func loadRestConfig(conf config.Kube) (*rest.Config, error) {
	logger := log.Logger()

	ret, err := rest.InClusterConfig()
	if err == nil {
		logger.V(1).Info("Using in-cluster config")

		return ret, nil
	}

	if !errors.Is(err, rest.ErrNotInCluster) {
		return nil, fmt.Errorf("failed to load in-cluster config: %w", err)
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	rules.ExplicitPath = conf.Kubeconfig

	ret, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, &clientcmd.ConfigOverrides{}).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	logger.V(1).Info("Using kubeconfig", "path", conf.Kubeconfig)

	return ret, nil
}
