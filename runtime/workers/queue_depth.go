package workers

import (
	"context"
	"livechat/contract"
	"livechat/domain/event"
	"log/slog"
	"time"
)

var _ contract.Worker = (*QueueDepthWorker)(nil)

// WatchedQueue samples one buffered channel.
type WatchedQueue struct {
	Name     string
	length   func() int
	capacity int
}

func Watch[T any](name string, ch chan T) WatchedQueue {
	return WatchedQueue{Name: name, length: func() int { return len(ch) }, capacity: cap(ch)}
}

// QueueDepthWorker periodically reports how full the internal queues are.
// len and cap never block, a sample lost on a full telemetry channel is fine.
type QueueDepthWorker struct {
	log       *slog.Logger
	queues    []WatchedQueue
	telemetry chan<- event.Event
	interval  time.Duration
}

func NewQueueDepthWorker(log *slog.Logger, queues []WatchedQueue,
	telemetry chan<- event.Event, interval time.Duration) *QueueDepthWorker {
	return &QueueDepthWorker{log: log, queues: queues, telemetry: telemetry, interval: interval}
}

func (w QueueDepthWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, q := range w.queues {
				e := event.New(event.QueueDepthType, event.QueueDepth{
					Queue:    q.Name,
					Length:   q.length(),
					Capacity: q.capacity,
				})
				select {
				case <-ctx.Done():
					return nil
				case w.telemetry <- e:
				default:
					w.log.Debug("Queue depth sample lost", "queue", q.Name)
				}
			}
		}
	}
}
