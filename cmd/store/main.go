package main

import (
	"context"
	"errors"
	"fmt"
	"livechat/domain"
	"livechat/infrastructure/grpc/server"
	"livechat/infrastructure/storage"
	"livechat/internal"
	"livechat/runtime"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Store terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Returning instead of exiting lets every deferred cleanup run.
func run() (int, error) {
	// 1. Configuration & Logger
	var config internal.StoreConfig
	if err := internal.Load(&config); err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s?prefix=doc:", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, MessageMapper)
	}

	// 3. Engine (registry, fanout and telemetry workers)
	engine := runtime.NewEngine(logger, db, runtime.EngineConfig{
		BufferSize:           config.BufferSize,
		SinkTimeout:          config.SinkTimeout,
		RestartInterval:      config.RestartInterval,
		MetricInterval:       config.MetricInterval,
		LowCapacityThreshold: config.LowCapacityThreshold,
		MaxRSS:               config.MaxRSS(),
	})

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	engineDone := make(chan struct{})
	go func() {
		engine.Start(ctx)
		close(engineDone)
	}()

	// 5. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(logger),
			server.APIKeyInterceptor(config.APIKey),
		),
		grpc.ChainStreamInterceptor(
			server.APIKeyStreamInterceptor(config.APIKey),
		))
	server.RegisterDocumentStoreServer(s, server.NewStoreServer(logger, engine.Store()))

	go func() {
		logger.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			logger.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		engine.Stop()
		<-engineDone
		return exitRuntime, err
	}

	// 7. Graceful Shutdown
	// Streams end with their context, then the workers drain.
	logger.Info("Shutting down gracefully...")
	s.GracefulStop()
	engine.Stop()
	<-engineDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.StoreConfig, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// MessageMapper shows stored messages in the debug inspector.
func MessageMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	var record structpb.Struct
	if err := proto.Unmarshal(val, &record); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	message, err := storage.DecodeMessage(key[strings.LastIndex(key, ":")+1:], &record)
	if err != nil {
		row.Detail = err.Error()
		return row
	}
	row.Type = strings.ToUpper(domain.Collection)
	row.Detail = fmt.Sprintf("%s: %s", message.UID, message.Text)
	return row
}
