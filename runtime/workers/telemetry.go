package workers

import (
	"context"
	"livechat/contract"
	"livechat/domain/event"
	"log/slog"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker drains technical events into their handlers.
type TelemetryWorker struct {
	log           *slog.Logger
	telemetryChan <-chan event.Event
	handlers      []event.Handler
}

func NewTelemetryWorker(log *slog.Logger, telemetryChan <-chan event.Event, handlers []event.Handler) *TelemetryWorker {
	return &TelemetryWorker{
		log:           log,
		telemetryChan: telemetryChan,
		handlers:      handlers,
	}
}

func (w TelemetryWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.telemetryChan:
			if !ok {
				w.log.Debug("Telemetry channel is closed")
				return nil
			}
			w.handle(evt)
		}
	}
}

func (w TelemetryWorker) handle(event event.Event) {
	for _, h := range w.handlers {
		h.Handle(event)
	}
}
