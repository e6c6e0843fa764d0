package runtime

import (
	"context"
	"livechat/domain"
	"livechat/domain/event"
	"livechat/errors"
	"livechat/mocks"
	"livechat/runtime/workers"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrchestrator_PostMessage_Reaches_Store(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	errorSink := mocks.NewMockErrorSink(ctrl)
	orchestrator := NewOrchestrator(log, workers.NewSupervisor(log, nil, time.Millisecond), store, errorSink, 2, 10, time.Second)
	cmd := domain.NewPostMessageCommand("hello", "Alice")
	inserted := make(chan struct{})

	store.EXPECT().Insert(gomock.Any(), cmd).
		DoAndReturn(func(context.Context, domain.PostMessageCommand) (string, error) {
			close(inserted)
			return "id-1", nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		orchestrator.Start(ctx)
		close(done)
	}()

	// When a message is posted
	orchestrator.PostMessage(cmd)

	// Then a sender writes it
	select {
	case <-inserted:
	case <-time.After(time.Second):
		req.Fail("message not inserted")
	}
	cancel()
	<-done
}

func TestOrchestrator_PostMessage_Full_Queue_Is_Reported(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	errorSink := mocks.NewMockErrorSink(ctrl)
	supervisor := mocks.NewMockISupervisor(ctrl)
	orchestrator := NewOrchestrator(log, supervisor, mocks.NewMockStore(ctrl), errorSink, 1, 1, time.Second)
	var reported event.Event

	// Given a queue of one and no sender running
	errorSink.EXPECT().Report(gomock.Any()).Do(func(e event.Event) { reported = e }).Times(1)

	// When two messages are posted
	orchestrator.PostMessage(domain.NewPostMessageCommand("first", "Alice"))
	orchestrator.PostMessage(domain.NewPostMessageCommand("second", "Alice"))

	// Then the second one is reported as not delivered
	req.Equal(event.InsertFailedType, reported.Type)
	payload := reported.Payload.(event.InsertFailed)
	req.Equal("second", payload.Command.Text)
	req.ErrorIs(payload.Err, errors.ErrQueueFull)
}
