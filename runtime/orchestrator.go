package runtime

import (
	"context"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	"livechat/errors"
	"livechat/runtime/workers"
	"log/slog"
	"time"
)

var _ contract.Dispatcher = (*Orchestrator)(nil)

// Orchestrator is the chat side: it queues outgoing messages and runs the
// sender pool writing them to the store.
type Orchestrator struct {
	log           *slog.Logger
	numWorkers    int
	supervisor    contract.ISupervisor
	store         contract.Store
	errorSink     contract.ErrorSink
	commands      chan domain.PostMessageCommand
	insertTimeout time.Duration
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	store contract.Store, errorSink contract.ErrorSink,
	numWorkers, bufferSize int, insertTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:           log,
		numWorkers:    numWorkers,
		supervisor:    supervisor,
		store:         store,
		errorSink:     errorSink,
		commands:      make(chan domain.PostMessageCommand, bufferSize),
		insertTimeout: insertTimeout,
	}
}

// PostMessage queues a write and returns at once.
// When the queue is full the message is reported as not delivered.
func (o *Orchestrator) PostMessage(cmd domain.PostMessageCommand) {
	select {
	case o.commands <- cmd:
	default:
		o.log.Warn("Outgoing queue full, dropping message", "uid", cmd.UID)
		o.errorSink.Report(event.New(event.InsertFailedType, event.InsertFailed{Command: cmd, Err: errors.ErrQueueFull}))
	}
}

// Start registers the sender pool and blocks while it runs.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.numWorkers; i++ {
		o.supervisor.Add(workers.NewSenderWorker(o.store, o.commands, o.errorSink, o.insertTimeout, o.log))
	}
	o.log.Info("Starting orchestrator and all supervised workers", "senders", o.numWorkers)
	o.supervisor.Run(ctx)
}

// Stop cancels the sender pool. Messages still queued are dropped.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
