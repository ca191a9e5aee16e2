package kube

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/jonboulle/clockwork"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/nok-base/consul-sync/internal/domain/entity"
	"github.com/nok-base/consul-sync/internal/domain/repo"
	"github.com/nok-base/consul-sync/pkg/pipeline"
)

type SourceConfig struct {
	Kind      string
	Resource  schema.GroupVersionResource
	Namespace string

	// Resume reopens the watch from the last observed resource version instead of resyncing.
	Resume bool

	// ResyncPeriod re-delivers every resource as Modified on each period, 0 disables it.
	ResyncPeriod time.Duration
}

// Source opens watches on one resource kind through the dynamic client.
type Source struct {
	logger *logr.Logger

	client  dynamic.Interface
	cursors repo.CursorStore
	clock   clockwork.Clock

	config SourceConfig
}

func NewSource(client dynamic.Interface, cursors repo.CursorStore, config SourceConfig) Source {
	return Source{
		client:  client,
		cursors: cursors,
		clock:   clockwork.NewRealClock(),
		config:  config,
	}
}

func (s Source) WithLogger(logger logr.Logger) Source {
	logger = logger.WithValues("kind", s.config.Kind)

	s.logger = &logger

	return s
}

func (s Source) WithClock(clock clockwork.Clock) Source {
	s.clock = clock

	return s
}

// Subscribe opens a watch. Without cursor the watch starts with a synthetic Added event per
// existing resource, which is the full resync.
func (s Source) Subscribe(ctx context.Context) (pipeline.Subscription[entity.ResourceEvent], error) {
	cursor := s.readCursor(ctx)

	opts := metav1.ListOptions{
		ResourceVersion:     cursor,
		AllowWatchBookmarks: true,
	}

	watcher, err := s.resource().Watch(ctx, opts)
	if err != nil {
		if isExpired(err) {
			s.resetCursor(ctx)
		}

		return nil, pipeline.NewErrAPIError(fmt.Errorf("failed to watch %s: %w", s.config.Resource, err))
	}

	s.logInfo(1, "Watch opened", "cursor", cursor)

	ret := &Subscription{
		source:  s,
		watcher: watcher,
	}

	if s.config.ResyncPeriod > 0 {
		ret.ticker = s.clock.NewTicker(s.config.ResyncPeriod)
	}

	return ret, nil
}

func (s Source) resource() dynamic.ResourceInterface {
	if s.config.Namespace == "" {
		return s.client.Resource(s.config.Resource)
	}

	return s.client.Resource(s.config.Resource).Namespace(s.config.Namespace)
}

func (s Source) readCursor(ctx context.Context) string {
	if !s.config.Resume || s.cursors == nil {
		return ""
	}

	ret, err := s.cursors.GetCursor(ctx, s.config.Kind)
	if err != nil {
		s.logError(err, "Failed to read cursor, resyncing")

		return ""
	}

	return ret
}

func (s Source) writeCursor(ctx context.Context, cursor string) {
	if !s.config.Resume || s.cursors == nil || cursor == "" {
		return
	}

	err := s.cursors.SetCursor(ctx, s.config.Kind, cursor)
	if err != nil {
		s.logError(err, "Failed to store cursor", "cursor", cursor)
	}
}

func (s Source) resetCursor(ctx context.Context) {
	if !s.config.Resume || s.cursors == nil {
		return
	}

	s.logInfo(1, "Cursor expired, next watch resyncs")

	err := s.cursors.SetCursor(ctx, s.config.Kind, "")
	if err != nil {
		s.logError(err, "Failed to reset cursor")
	}
}

func (s Source) list(ctx context.Context) ([]entity.ResourceEvent, error) {
	list, err := s.resource().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.config.Resource, err)
	}

	ret := make([]entity.ResourceEvent, 0, len(list.Items))

	for i := range list.Items {
		ret = append(ret, s.toEvent(entity.ChangeModified, &list.Items[i]))
	}

	return ret, nil
}

func (s Source) toEvent(changeType entity.ChangeType, obj *unstructured.Unstructured) entity.ResourceEvent {
	return entity.ResourceEvent{
		Kind:       s.config.Kind,
		ChangeType: changeType,
		Identity: entity.Identity{
			Name:      obj.GetName(),
			Namespace: obj.GetNamespace(),
		},
		ResourceVersion: obj.GetResourceVersion(),
		Spec:            section(obj, "spec"),
		Status:          section(obj, "status"),
		Labels:          obj.GetLabels(),
	}
}

func (s Source) logInfo(level int, msg string, keysAndValues ...any) {
	if s.logger == nil {
		return
	}

	s.logger.V(level).Info(msg, keysAndValues...)
}

func (s Source) logError(err error, msg string, keysAndValues ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Error(err, msg, keysAndValues...)
}

// Subscription is not safe for concurrent use, the runner reads it from a single goroutine.
type Subscription struct {
	source  Source
	watcher watch.Interface
	ticker  clockwork.Ticker

	resynced []entity.ResourceEvent

	// resource version of the last delivered watch event, stored once the next one is requested
	delivered string
}

// Next returns the next event in delivery order. Calling Next acknowledges the previous event.
func (s *Subscription) Next(ctx context.Context) (entity.ResourceEvent, error) {
	s.acknowledge(ctx)

	var tick <-chan time.Time
	if s.ticker != nil {
		tick = s.ticker.Chan()
	}

	for {
		if len(s.resynced) > 0 {
			ret := s.resynced[0]
			s.resynced = s.resynced[1:]

			return ret, nil
		}

		select {
		case <-ctx.Done():
			return entity.ResourceEvent{}, ctx.Err()
		case <-tick:
			s.resync(ctx)
		case event, ok := <-s.watcher.ResultChan():
			if !ok {
				return entity.ResourceEvent{}, pipeline.ErrSubscriptionClosed
			}

			ret, deliver, err := s.handle(ctx, event)
			if err != nil {
				return entity.ResourceEvent{}, err
			}

			if deliver {
				return ret, nil
			}
		}
	}
}

func (s *Subscription) Close() {
	s.watcher.Stop()

	if s.ticker != nil {
		s.ticker.Stop()
	}
}

func (s *Subscription) handle(ctx context.Context, event watch.Event) (entity.ResourceEvent, bool, error) {
	if event.Type == watch.Error {
		err := apierrors.FromObject(event.Object)
		if isExpired(err) {
			s.source.resetCursor(ctx)
		}

		return entity.ResourceEvent{}, false, pipeline.NewErrAPIError(fmt.Errorf("watch failed: %w", err))
	}

	obj, ok := event.Object.(*unstructured.Unstructured)
	if !ok {
		return entity.ResourceEvent{}, false, fmt.Errorf("%w: unexpected object %T in %s event", pipeline.ErrUnexpected, event.Object, event.Type)
	}

	if event.Type == watch.Bookmark {
		s.source.logInfo(3, "Bookmark received", "cursor", obj.GetResourceVersion())
		s.source.writeCursor(ctx, obj.GetResourceVersion())

		return entity.ResourceEvent{}, false, nil
	}

	ret := s.source.toEvent(toChangeType(event.Type), obj)
	s.delivered = ret.ResourceVersion

	s.source.logInfo(3, "Event received", "type", event.Type, "resource", ret.Identity, "resourceVersion", ret.ResourceVersion)

	return ret, true, nil
}

func (s *Subscription) acknowledge(ctx context.Context) {
	if s.delivered == "" {
		return
	}

	s.source.writeCursor(ctx, s.delivered)
	s.delivered = ""
}

// A failed sweep keeps the watch open, the next tick tries again.
func (s *Subscription) resync(ctx context.Context) {
	events, err := s.source.list(ctx)
	if err != nil {
		s.source.logError(err, "Resync failed")

		return
	}

	s.source.logInfo(1, "Resyncing", "count", len(events))

	s.resynced = append(s.resynced, events...)
}

func toChangeType(eventType watch.EventType) entity.ChangeType {
	switch eventType {
	case watch.Added:
		return entity.ChangeAdded
	case watch.Modified:
		return entity.ChangeModified
	case watch.Deleted:
		return entity.ChangeDeleted
	default:
		return entity.ChangeUnknown
	}
}

func section(obj *unstructured.Unstructured, field string) map[string]interface{} {
	value, found, err := unstructured.NestedFieldNoCopy(obj.Object, field)
	if err != nil || !found {
		return nil
	}

	ret, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}

	return ret
}

func isExpired(err error) bool {
	return apierrors.IsGone(err) || apierrors.IsResourceExpired(err)
}
