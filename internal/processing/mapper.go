package processing

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/runtime"

	"github.com/nok-base/consul-sync/internal/common"
	"github.com/nok-base/consul-sync/internal/domain/entity"
)

const (
	regionTagPrefix = "region:"
	labelTagPrefix  = "label:"
	primaryKindTag  = "kind-type:primary"

	maxPort = 65535
)

// Mapper turns the events of one kind into registry records.
type Mapper interface {
	// RecordID computes the record id without requiring an address, so deletions can be mapped.
	RecordID(event entity.ResourceEvent) string

	// Map fails with entity.ErrMissingAddress when the resource has no address.
	Map(event entity.ResourceEvent) (entity.RegistryRecord, error)

	// ReadinessGated tells whether not ready resources must be removed from the registry.
	ReadinessGated() bool
}

type PrimaryMapper struct {
	tag            string
	regionLabelKey string
	defaultPort    int
}

func NewPrimaryMapper(tag string, regionLabelKey string, defaultPort int) PrimaryMapper {
	return PrimaryMapper{
		tag:            tag,
		regionLabelKey: regionLabelKey,
		defaultPort:    defaultPort,
	}
}

func (m PrimaryMapper) RecordID(event entity.ResourceEvent) string {
	return event.Identity.Name
}

func (m PrimaryMapper) Map(event entity.ResourceEvent) (entity.RegistryRecord, error) {
	spec := entity.PrimarySpec{}

	err := decodeSpec(event, &spec)
	if err != nil {
		return entity.RegistryRecord{}, err
	}

	if spec.Address == "" {
		return entity.RegistryRecord{}, fmt.Errorf("%w: %s", entity.ErrMissingAddress, event.Key())
	}

	tags := appendTag(nil, m.tag)

	region, found := event.Labels[m.regionLabelKey]
	if found && m.regionLabelKey != "" && region != "" {
		tags = append(tags, regionTagPrefix+region)
	}

	tags = append(tags, primaryKindTag)

	return entity.RegistryRecord{
		ID:      event.Identity.Name,
		Name:    event.Identity.Name,
		Address: spec.Address,
		Port:    m.defaultPort,
		Tags:    tags,
	}, nil
}

func (m PrimaryMapper) ReadinessGated() bool {
	return true
}

type SecondaryMapper struct {
	tag         string
	defaultPort int
}

func NewSecondaryMapper(tag string, defaultPort int) SecondaryMapper {
	return SecondaryMapper{
		tag:         tag,
		defaultPort: defaultPort,
	}
}

// RecordID falls back to the resource name when the spec has no usable id.
func (m SecondaryMapper) RecordID(event entity.ResourceEvent) string {
	spec := entity.SecondarySpec{}

	err := decodeSpec(event, &spec)
	if err != nil || spec.ID == "" {
		return event.Identity.Name
	}

	return spec.ID
}

func (m SecondaryMapper) Map(event entity.ResourceEvent) (entity.RegistryRecord, error) {
	spec := entity.SecondarySpec{}

	err := decodeSpec(event, &spec)
	if err != nil {
		return entity.RegistryRecord{}, err
	}

	if spec.Address == "" {
		return entity.RegistryRecord{}, fmt.Errorf("%w: %s", entity.ErrMissingAddress, event.Key())
	}

	id := spec.ID
	if id == "" {
		id = event.Identity.Name
	}

	port := m.defaultPort
	if spec.Port != nil {
		if *spec.Port <= 0 || *spec.Port > maxPort {
			return entity.RegistryRecord{}, common.NewErrProcessingError(errInvalidPort, common.CategoryInvalidSpec, eventInputs(event), "port %d of %s", *spec.Port, event.Key())
		}

		port = int(*spec.Port)
	}

	tags := appendTag(nil, m.tag)

	tags = append(tags, spec.Tags...)

	for _, key := range sortedKeys(event.Labels) {
		tags = append(tags, fmt.Sprintf("%s%s=%s", labelTagPrefix, key, event.Labels[key]))
	}

	return entity.RegistryRecord{
		ID:      id,
		Name:    id,
		Address: spec.Address,
		Port:    port,
		Tags:    tags,
	}, nil
}

func (m SecondaryMapper) ReadinessGated() bool {
	return false
}

func decodeSpec(event entity.ResourceEvent, spec interface{}) error {
	if event.Spec == nil {
		return nil
	}

	err := runtime.DefaultUnstructuredConverter.FromUnstructured(event.Spec, spec)
	if err != nil {
		return common.NewErrProcessingError(err, common.CategoryInvalidSpec, eventInputs(event), "failed to decode spec of %s", event.Key())
	}

	return nil
}

func appendTag(tags []string, tag string) []string {
	if tag == "" {
		return tags
	}

	return append(tags, tag)
}

func sortedKeys(labels map[string]string) []string {
	ret := make([]string, 0, len(labels))

	for key := range labels {
		ret = append(ret, key)
	}

	sort.Strings(ret)

	return ret
}
