package main

import (
	"context"
	"fmt"
	"livechat/contract"
	"livechat/domain/event"
	"livechat/infrastructure/grpc/client"
	"livechat/internal"
	"livechat/runtime"
	"livechat/runtime/workers"
	"livechat/sink"
	"livechat/ui"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.ChatConfig
	if err := internal.Load(&config); err != nil {
		return exitConfig, err
	}

	// The terminal belongs to the UI, logs go to a file.
	logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return exitConfig, fmt.Errorf("unable to open log file %s: %w", config.LogFile, err)
	}
	defer logFile.Close()

	logger := newFileLogger(logFile, config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Store, embedded or remote
	var store contract.Store
	if config.Embedded() {
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLogger(nil))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer db.Close()

		engine := runtime.NewEngine(logger, db, runtime.EngineConfig{
			BufferSize:           config.BufferSize,
			SinkTimeout:          config.SinkTimeout,
			RestartInterval:      config.RestartInterval,
			MetricInterval:       config.MetricInterval,
			LowCapacityThreshold: config.LowCapacityThreshold,
			MaxRSS:               config.MaxRSS(),
		})
		engineDone := make(chan struct{})
		go func() {
			engine.Start(ctx)
			close(engineDone)
		}()
		defer func() {
			engine.Stop()
			<-engineDone
		}()
		store = engine.Store()
		logger.Info("Running with an embedded store", "path", config.BadgerFilepath)
	} else {
		conn, err := grpc.NewClient(config.StoreAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return exitConfig, fmt.Errorf("unable to reach store %s: %w", config.StoreAddr, err)
		}
		defer conn.Close()
		store = client.NewStoreClient(conn, config.Metadata(), logger)
		logger.Info("Running against a remote store", "address", config.StoreAddr)
	}

	// 4. Outgoing path: failures, telemetry and the sender pool
	counter := event.NewCounter()
	failures := make(chan event.Event, config.BufferSize)
	telemetry := make(chan event.Event, config.BufferSize)
	errorSink := sink.NewErrorSink(logger, failures, event.NewInsertFailedHandler(logger, counter))

	supervisor := workers.NewSupervisor(logger, telemetry, config.RestartInterval)
	supervisor.Add(
		workers.NewTelemetryWorker(logger, telemetry, []event.Handler{
			event.NewWorkerRestartedAfterPanicHandler(logger, counter),
			event.NewQueueDepthHandler(logger, config.LowCapacityThreshold),
			event.NewSelfStatsHandler(logger, config.MaxRSS()),
		}),
		workers.NewQueueDepthWorker(logger, []workers.WatchedQueue{
			workers.Watch("failures", failures),
			workers.Watch("telemetry", telemetry),
		}, telemetry, config.MetricInterval),
	)
	if !config.Embedded() {
		// The embedded engine already samples this process.
		supervisor.Add(workers.NewSelfStatsWorker(logger, telemetry, config.MetricInterval))
	}
	orchestrator := runtime.NewOrchestrator(logger, supervisor, store, errorSink,
		config.NumberOfWorkers, config.BufferSize, config.InsertTimeout)

	orchestratorDone := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(orchestratorDone)
	}()
	defer func() {
		orchestrator.Stop()
		<-orchestratorDone
	}()

	// 5. UI
	app := ui.NewApp(ctx, logger, store, orchestrator, failures, config.FeedWindow)
	program := tea.NewProgram(app, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		return exitRuntime, fmt.Errorf("ui error: %w", err)
	}
	logger.Info("Chat closed",
		"not_delivered", counter.Get(event.InsertFailedType),
		"restarts", counter.Get(event.RestartedAfterPanicType))
	return exitOK, nil
}

// newFileLogger writes JSON logs to w, an unknown level falls back to INFO.
func newFileLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logs.GetLevelFromString(level),
	}))
}
