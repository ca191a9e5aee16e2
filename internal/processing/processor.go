package processing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-logr/logr"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/internal/domain/repo"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

var errInvalidPort = errors.New("invalid port")

// Processor applies the change events of one kind to the registry.
//
//	Deleted            --> remove
//	Added / Modified   --> no address: skip
//	                   --> not ready (gated kinds only): remove
//	                   --> upsert
//	anything else      --> skip
type Processor struct {
	logger *logr.Logger

	mapper   Mapper
	registry repo.Registry
}

func NewProcessor(mapper Mapper, registry repo.Registry) Processor {
	return Processor{
		mapper:   mapper,
		registry: registry,
	}
}

func (p Processor) WithLogger(logger logr.Logger) Processor {
	p.logger = &logger

	return p
}

func (p Processor) Process(ctx context.Context, event entity.ResourceEvent) error {
	switch event.ChangeType {
	case entity.ChangeDeleted:
		return p.remove(ctx, event, p.mapper.RecordID(event))
	case entity.ChangeAdded, entity.ChangeModified:
		return p.apply(ctx, event)
	default:
		p.logInfo(0, "Ignoring unrecognized event", "reason", common.CategoryUnrecognizedEvent, "resource", event.Key(), "type", event.ChangeType)

		return nil
	}
}

func (p Processor) apply(ctx context.Context, event entity.ResourceEvent) error {
	record, err := p.mapper.Map(event)
	if err != nil {
		if errors.Is(err, entity.ErrMissingAddress) {
			p.logInfo(0, "Skipping resource without address", "reason", common.CategoryMissingAddress, "resource", event.Key())

			return nil
		}

		return err
	}

	if p.mapper.ReadinessGated() && !IsReady(event.Status) {
		p.logInfo(0, "Resource not ready, removing it", "reason", "not_ready", "resource", event.Key(), "id", record.ID)

		return p.remove(ctx, event, record.ID)
	}

	err = p.registry.Upsert(ctx, record)
	if err != nil {
		return registryError(err, event, "failed to upsert %s", record.ID)
	}

	p.logInfo(2, "Record upserted", "resource", event.Key(), "id", record.ID)

	return nil
}

func (p Processor) remove(ctx context.Context, event entity.ResourceEvent, id string) error {
	err := p.registry.Remove(ctx, id)
	if err != nil {
		return registryError(err, event, "failed to remove %s", id)
	}

	p.logInfo(2, "Record removed", "resource", event.Key(), "id", id)

	return nil
}

func (p Processor) logInfo(level int, msg string, keysAndValues ...any) {
	if p.logger == nil {
		return
	}

	p.logger.V(level).Info(msg, keysAndValues...)
}

// The event comes first in the inputs, followed by whatever the registry reported.
func registryError(err error, event entity.ResourceEvent, reason string, args ...interface{}) error {
	inputs := eventInputs(event)

	pErr := pipeline.ErrProcessingError{}
	if errors.As(err, &pErr) {
		inputs = append(inputs, pErr.AdditionalInputs...)
	}

	return common.NewErrProcessingError(err, common.CategoryRegistryUnavailable, inputs, reason, args...)
}

func eventInputs(event entity.ResourceEvent) []pipeline.Input {
	// Spec and Status come from a json decoded object
	b, _ := json.Marshal(event)

	return []pipeline.Input{{Source: "event", Key: event.Key(), Value: b}}
}
