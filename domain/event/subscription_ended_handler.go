package event

import (
	"livechat/errors"
	"log/slog"
)

// SubscriptionEndedHandler logs live queries that stopped.
// No retry is attempted: the feed simply stops updating.
type SubscriptionEndedHandler struct {
	log *slog.Logger
}

func NewSubscriptionEndedHandler(log *slog.Logger) *SubscriptionEndedHandler {
	return &SubscriptionEndedHandler{log: log}
}

func (h SubscriptionEndedHandler) Handle(event Event) {
	switch event.Type {
	case SubscriptionEndedType:
		payload, ok := event.Payload.(SubscriptionEnded)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		if payload.Err == nil {
			h.log.Debug("Subscription closed", "collection", payload.Query.Collection)
			return
		}
		h.log.Warn("Subscription stopped, feed will no longer update",
			"collection", payload.Query.Collection, "error", payload.Err)
	}
}
