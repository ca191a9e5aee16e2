package registry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/consul/api"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

// ConsulRegistry writes records to the local consul agent catalog.
type ConsulRegistry struct {
	logger *logr.Logger

	client  *api.Client
	timeout time.Duration
}

func NewConsulRegistry(client *api.Client, timeout time.Duration) ConsulRegistry {
	return ConsulRegistry{
		client:  client,
		timeout: timeout,
	}
}

func (r ConsulRegistry) WithLogger(logger logr.Logger) ConsulRegistry {
	r.logger = &logger

	return r
}

// Upsert registers the record, replacing any service already registered with the same id.
func (r ConsulRegistry) Upsert(ctx context.Context, record entity.RegistryRecord) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	registration := &api.AgentServiceRegistration{
		ID:      record.ID,
		Name:    record.Name,
		Address: record.Address,
		Port:    record.Port,
		Tags:    dedupTags(record.Tags),
	}

	err := r.client.Agent().ServiceRegisterOpts(registration, api.ServiceRegisterOpts{}.WithContext(ctx))
	if err != nil {
		return r.wrapError(err, []pipeline.Input{recordInput(record)}, "failed to register %s", record.ID)
	}

	r.logInfo(2, "Service registered", "id", record.ID, "address", record.Address, "port", record.Port, "tags", registration.Tags)

	return nil
}

// Remove deregisters the service. Removing an unknown id is not an error.
func (r ConsulRegistry) Remove(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.client.Agent().ServiceDeregisterOpts(id, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			r.logInfo(2, "Service already absent", "id", id)

			return nil
		}

		return r.wrapError(err, []pipeline.Input{{Source: "registry", Key: "id", Value: []byte(id)}}, "failed to deregister %s", id)
	}

	r.logInfo(2, "Service deregistered", "id", id)

	return nil
}

func (r ConsulRegistry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.timeout)
}

func (r ConsulRegistry) wrapError(err error, inputs []pipeline.Input, reason string, args ...interface{}) error {
	if isRetryable(err) {
		return common.NewRetryableErrProcessingError(err, common.CategoryRegistryUnavailable, inputs, reason, args...)
	}

	return common.NewErrProcessingError(err, common.CategoryRegistryUnavailable, inputs, reason, args...)
}

func (r ConsulRegistry) logInfo(level int, msg string, keysAndValues ...any) {
	if r.logger == nil {
		return
	}

	r.logger.V(level).Info(msg, keysAndValues...)
}

func isNotFound(err error) bool {
	statusErr := api.StatusError{}
	if !errors.As(err, &statusErr) {
		return false
	}

	return statusErr.Code == http.StatusNotFound
}

// Client side errors are not worth another attempt, everything else is.
func isRetryable(err error) bool {
	statusErr := api.StatusError{}
	if !errors.As(err, &statusErr) {
		return true
	}

	return statusErr.Code >= http.StatusInternalServerError || statusErr.Code == http.StatusTooManyRequests
}

func dedupTags(tags []string) []string {
	ret := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		_, found := seen[tag]
		if found || tag == "" {
			continue
		}

		seen[tag] = struct{}{}
		ret = append(ret, tag)
	}

	return ret
}

func recordInput(record entity.RegistryRecord) pipeline.Input {
	// RegistryRecord only holds strings and ints
	b, _ := json.Marshal(record)

	return pipeline.Input{Source: "registry", Key: "record", Value: b}
}
