package event

import (
	"livechat/errors"
	"log/slog"
)

// InsertFailedHandler handles writes that could not be delivered to the store.
// The composer already cleared its buffer, so this is the only trace of the lost message.
type InsertFailedHandler struct {
	log     *slog.Logger
	counter *Counter
}

func NewInsertFailedHandler(log *slog.Logger, counter *Counter) *InsertFailedHandler {
	return &InsertFailedHandler{log: log, counter: counter}
}

func (h *InsertFailedHandler) Handle(event Event) {
	switch event.Type {
	case InsertFailedType:
		payload, ok := event.Payload.(InsertFailed)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.counter.Increment(InsertFailedType)
		h.log.Error("message not delivered",
			"uid", payload.Command.UID,
			"length", len(payload.Command.Text),
			"error", payload.Err,
			"total", h.counter.Get(InsertFailedType))
	}
}
