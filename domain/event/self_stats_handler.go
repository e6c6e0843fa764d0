package event

import (
	"fmt"
	"livechat/errors"
	"log/slog"
)

// SelfStatsHandler logs the resource usage of the running process.
// It warns once RSS goes above maxRSS, zero disables the warning.
type SelfStatsHandler struct {
	log    *slog.Logger
	maxRSS uint64
}

func NewSelfStatsHandler(log *slog.Logger, maxRSS uint64) *SelfStatsHandler {
	return &SelfStatsHandler{log: log, maxRSS: maxRSS}
}

func (h SelfStatsHandler) Handle(event Event) {
	switch event.Type {
	case SelfStatsType:
		payload, ok := event.Payload.(SelfStats)
		if !ok {
			h.log.Error(errors.ErrInvalidPayload.Error())
			return
		}
		h.log.Debug(fmt.Sprintf("PID %d | STATUS %s | CPU %.2f%% | RSS %d bytes",
			payload.PID, payload.Status, payload.CPU, payload.RSS))
		if h.maxRSS > 0 && payload.RSS > h.maxRSS {
			h.log.Warn("Memory above limit", "rss", payload.RSS, "max", h.maxRSS)
		}
	}
}
