package audit

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"

	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/internal/domain/repo"
)

// Registry publishes every successful mutation of the wrapped registry.
// Publication failures are logged only: the registry stays the source of truth.
type Registry struct {
	logger *logr.Logger

	inner  repo.Registry
	writer repo.MutationWriter
	clock  clockwork.Clock
}

func NewRegistry(inner repo.Registry, writer repo.MutationWriter) Registry {
	return Registry{
		inner:  inner,
		writer: writer,
		clock:  clockwork.NewRealClock(),
	}
}

func (r Registry) WithLogger(logger logr.Logger) Registry {
	r.logger = &logger

	return r
}

func (r Registry) WithClock(clock clockwork.Clock) Registry {
	r.clock = clock

	return r
}

func (r Registry) Upsert(ctx context.Context, record entity.RegistryRecord) error {
	err := r.inner.Upsert(ctx, record)
	if err != nil {
		return err
	}

	r.publish(ctx, entity.Mutation{
		Operation: entity.OperationUpsert,
		ID:        record.ID,
		Record:    &record,
		Timestamp: r.clock.Now(),
	})

	return nil
}

func (r Registry) Remove(ctx context.Context, id string) error {
	err := r.inner.Remove(ctx, id)
	if err != nil {
		return err
	}

	r.publish(ctx, entity.Mutation{
		Operation: entity.OperationRemove,
		ID:        id,
		Timestamp: r.clock.Now(),
	})

	return nil
}

func (r Registry) publish(ctx context.Context, mutation entity.Mutation) {
	err := r.writer.WriteMutation(ctx, mutation)
	if err != nil && r.logger != nil {
		r.logger.Error(err, "Failed to publish mutation", "id", mutation.ID, "operation", mutation.Operation)
	}
}
