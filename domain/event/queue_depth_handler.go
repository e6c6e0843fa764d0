package event

import (
	"fmt"
	"livechat/errors"
	"log/slog"
)

// QueueDepthHandler warns when an internal queue is about to fill up.
// A full queue means dropped notifications on the store side and
// undelivered messages on the chat side.
type QueueDepthHandler struct {
	log                  *slog.Logger
	lowCapacityThreshold int
}

func NewQueueDepthHandler(log *slog.Logger, lowCapacityThreshold int) *QueueDepthHandler {
	return &QueueDepthHandler{log: log, lowCapacityThreshold: lowCapacityThreshold}
}

func (h QueueDepthHandler) Handle(event Event) {
	switch event.Type {
	case QueueDepthType:
		payload, ok := event.Payload.(QueueDepth)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf("Queue %s usage: %d / %d", payload.Queue, payload.Length, payload.Capacity))
		if payload.Capacity <= 0 {
			return
		}
		if left := payload.Capacity - payload.Length; left <= h.lowCapacityThreshold {
			h.log.Warn("Queue almost full", "queue", payload.Queue, "left", left)
		}
	}
}
