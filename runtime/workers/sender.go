package workers

import (
	"context"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	"log/slog"
	"time"
)

// Ensure *SenderWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SenderWorker)(nil)

// SenderWorker writes queued messages to the store.
// Nobody waits for the result: failures are handed to the error sink.
type SenderWorker struct {
	store         contract.Store
	commands      <-chan domain.PostMessageCommand
	errorSink     contract.ErrorSink
	insertTimeout time.Duration
	log           *slog.Logger
}

func NewSenderWorker(
	store contract.Store,
	commands <-chan domain.PostMessageCommand,
	errorSink contract.ErrorSink,
	insertTimeout time.Duration,
	log *slog.Logger) *SenderWorker {
	return &SenderWorker{
		store:         store,
		commands:      commands,
		errorSink:     errorSink,
		insertTimeout: insertTimeout,
		log:           log,
	}
}

func (w *SenderWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping sender worker")
			return nil
		case cmd, ok := <-w.commands:
			if !ok {
				w.log.Debug("Command channel is closed")
				return nil
			}
			w.send(ctx, cmd)
		}
	}
}

func (w *SenderWorker) send(ctx context.Context, cmd domain.PostMessageCommand) {
	insertCtx, cancel := context.WithTimeout(ctx, w.insertTimeout)
	defer cancel()
	id, err := w.store.Insert(insertCtx, cmd)
	if err != nil {
		w.errorSink.Report(event.New(event.InsertFailedType, event.InsertFailed{Command: cmd, Err: err}))
		return
	}
	w.log.Debug("Message inserted", "id", id, "uid", cmd.UID)
}
