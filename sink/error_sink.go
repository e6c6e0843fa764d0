package sink

import (
	"livechat/contract"
	"livechat/domain/event"
	"log/slog"
)

var _ contract.ErrorSink = (*ErrorSink)(nil)

// ErrorSink collects failures of fire-and-forget operations.
// Every report goes through the handlers, then is offered to the
// notification channel when one is attached. A full channel drops it.
type ErrorSink struct {
	log      *slog.Logger
	handlers []event.Handler
	notify   chan<- event.Event
}

func NewErrorSink(log *slog.Logger, notify chan<- event.Event, handlers ...event.Handler) *ErrorSink {
	return &ErrorSink{log: log, handlers: handlers, notify: notify}
}

func (s *ErrorSink) Report(e event.Event) {
	for _, h := range s.handlers {
		h.Handle(e)
	}
	if s.notify == nil {
		return
	}
	select {
	case s.notify <- e:
	default:
		s.log.Debug("Error notification lost", "type", e.Type)
	}
}
