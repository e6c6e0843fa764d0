package workers

import (
	"context"
	"livechat/domain/event"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestTelemetryWorker_Dispatches_To_Handlers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	counter := event.NewCounter()
	telemetry := make(chan event.Event, 2)
	worker := NewTelemetryWorker(log, telemetry, []event.Handler{
		event.NewWorkerRestartedAfterPanicHandler(log, counter),
	})

	// Given two restarts reported
	telemetry <- event.New(event.RestartedAfterPanicType, event.WorkerRestartedAfterPanic{WorkerName: "SenderWorker"})
	telemetry <- event.New(event.RestartedAfterPanicType, event.WorkerRestartedAfterPanic{WorkerName: "SenderWorker"})
	close(telemetry)

	// When the worker drains the channel
	req.NoError(worker.Run(context.Background()))

	// Then both were counted
	req.Equal(uint64(2), counter.Get(event.RestartedAfterPanicType))
}

func TestTelemetryWorker_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	worker := NewTelemetryWorker(logs.GetLoggerFromLevel(slog.LevelDebug), make(chan event.Event), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	req.NoError(worker.Run(ctx))
}
