// Package runtime wires the workers of the store and of the chat client.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"livechat/domain/event"
	"livechat/infrastructure/storage"
	"livechat/runtime/workers"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Engine is the store side: the badger document store, its registry of
// live subscribers and the workers pushing snapshots to them.
type Engine struct {
	log        *slog.Logger
	registry   *Registry
	store      *storage.DocumentStore
	supervisor *workers.Supervisor
	inserted   chan event.Event
	telemetry  chan event.Event
	counter    *event.Counter
}

type EngineConfig struct {
	BufferSize      int
	SinkTimeout     time.Duration
	RestartInterval time.Duration

	// Queue depth and self stats sampling are off when MetricInterval is zero.
	MetricInterval       time.Duration
	LowCapacityThreshold int
	MaxRSS               uint64
}

func NewEngine(log *slog.Logger, db *badger.DB, config EngineConfig) *Engine {
	inserted := make(chan event.Event, config.BufferSize)
	telemetry := make(chan event.Event, config.BufferSize)
	registry := NewRegistry()
	store := storage.NewDocumentStore(db, log, registry, inserted)
	counter := event.NewCounter()

	supervisor := workers.NewSupervisor(log, telemetry, config.RestartInterval)
	supervisor.Add(
		workers.NewSnapshotFanout(log, store, registry, inserted, telemetry, config.SinkTimeout),
		workers.NewTelemetryWorker(log, telemetry, []event.Handler{
			event.NewWorkerRestartedAfterPanicHandler(log, counter),
			event.NewSubscriptionEndedHandler(log),
			event.NewQueueDepthHandler(log, config.LowCapacityThreshold),
			event.NewSelfStatsHandler(log, config.MaxRSS),
		}),
	)
	if config.MetricInterval > 0 {
		supervisor.Add(
			workers.NewQueueDepthWorker(log, []workers.WatchedQueue{
				workers.Watch("inserted", inserted),
				workers.Watch("telemetry", telemetry),
			}, telemetry, config.MetricInterval),
			workers.NewSelfStatsWorker(log, telemetry, config.MetricInterval),
		)
	}

	return &Engine{
		log:        log,
		registry:   registry,
		store:      store,
		supervisor: supervisor,
		inserted:   inserted,
		telemetry:  telemetry,
		counter:    counter,
	}
}

func (e *Engine) Store() *storage.DocumentStore {
	return e.store
}

func (e *Engine) Registry() *Registry {
	return e.registry
}

// Start blocks until ctx is canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.log.Info("Starting store engine")
	e.supervisor.Run(ctx)
}

// Restarts counts the workers restarted after a panic or an error.
func (e *Engine) Restarts() uint64 {
	return e.counter.Get(event.RestartedAfterPanicType)
}

func (e *Engine) Stop() {
	e.log.Info("Requesting store engine shutdown", "restarts", e.Restarts())
	e.supervisor.Stop()
}
