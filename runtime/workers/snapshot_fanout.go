package workers

import (
	"context"
	"errors"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	lcerrors "livechat/errors"
	"log/slog"
	"sync"
	"time"
)

var _ contract.Worker = (*SnapshotFanout)(nil)

// SnapshotFanout turns committed inserts into fresh snapshots for live subscribers.
//
// Subscribers sharing the same query share one read. A slow sink is cut off
// after sinkTimeout, it will catch up with the next snapshot since every
// push is a full result set.
type SnapshotFanout struct {
	log         *slog.Logger
	reader      contract.SnapshotReader
	registry    contract.IRegistry
	inserted    <-chan event.Event
	telemetry   chan<- event.Event
	sinkTimeout time.Duration
}

func NewSnapshotFanout(log *slog.Logger,
	reader contract.SnapshotReader,
	registry contract.IRegistry,
	inserted <-chan event.Event,
	telemetry chan<- event.Event,
	sinkTimeout time.Duration) *SnapshotFanout {
	return &SnapshotFanout{
		log:         log,
		reader:      reader,
		registry:    registry,
		inserted:    inserted,
		telemetry:   telemetry,
		sinkTimeout: sinkTimeout,
	}
}

func (w *SnapshotFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping snapshot fanout")
			return nil
		case evt, ok := <-w.inserted:
			if !ok {
				w.log.Debug("Inserted channel is closed")
				return nil
			}
			payload, ok := evt.Payload.(event.DocumentInserted)
			if !ok {
				w.log.Error(lcerrors.ErrInvalidPayload.Error(), "type", evt.Type)
				continue
			}
			w.Fanout(ctx, payload.Collection)
		}
	}
}

// Fanout pushes one snapshot to every subscriber of the collection.
func (w *SnapshotFanout) Fanout(ctx context.Context, collection string) {
	subscribers := w.registry.GetSinksForCollection(collection)
	if len(subscribers) == 0 {
		return
	}

	snapshots := make(map[domain.Query]domain.Snapshot)
	var wg sync.WaitGroup
	for subscriberID, subscriber := range subscribers {
		snapshot, ok := snapshots[subscriber.Query]
		if !ok {
			var err error
			snapshot, err = w.reader.Snapshot(subscriber.Query)
			if err != nil {
				w.log.Error("Unable to read snapshot", "collection", collection, "error", err)
				w.endSubscription(subscriber, err)
				continue
			}
			snapshots[subscriber.Query] = snapshot
		}

		wg.Add(1)
		go func(subscriberID string, subscriber contract.Subscriber, snapshot domain.Snapshot) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			err := subscriber.Sink.Consume(sinkCtx, snapshot)
			switch {
			case err == nil:
			case errors.Is(err, lcerrors.ErrSubscriptionClosed):
				w.registry.Unsubscribe(subscriberID)
			default:
				w.log.Warn("Sink failed to consume snapshot", "subscriber", subscriberID, "error", err)
			}
		}(subscriberID, subscriber, snapshot)
	}
	wg.Wait()
}

// endSubscription fails the subscriber when it can be failed, the owner
// then sees the error through the subscription itself.
func (w *SnapshotFanout) endSubscription(subscriber contract.Subscriber, err error) {
	if failer, ok := subscriber.Sink.(interface{ Fail(error) }); ok {
		failer.Fail(err)
	}
	if w.telemetry == nil {
		return
	}
	select {
	case w.telemetry <- event.New(event.SubscriptionEndedType, event.SubscriptionEnded{Query: subscriber.Query, Err: err}):
	default:
		w.log.Debug("Telemetry event lost", "type", event.SubscriptionEndedType)
	}
}
