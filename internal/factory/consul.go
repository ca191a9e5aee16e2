package factory

import (
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/nok-base/consul-sync/internal/config"
	"github.com/nok-base/consul-sync/internal/log"
)

func CreateConsulClient(conf config.Registry) (*api.Client, error) {
	endpoint, err := config.ParseEndpoint(conf.Address)
	if err != nil {
		// endpoint is still usable, see ParseEndpoint
		log.Logger().V(0).Info("Invalid registry port", "reason", err.Error(), "endpoint", endpoint.String())
	}

	consulConfig := api.DefaultConfig()
	consulConfig.Address = endpoint.HostPort()
	consulConfig.Scheme = endpoint.Scheme
	consulConfig.Token = string(conf.Token)

	ret, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client for %s: %w", endpoint, err)
	}

	return ret, nil
}
