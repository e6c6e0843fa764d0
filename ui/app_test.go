package ui

import (
	"context"
	"livechat/domain"
	"livechat/domain/event"
	"livechat/errors"
	"livechat/mocks"
	"livechat/sink"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func typeText(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func pressEnter(app *App) tea.Cmd {
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return cmd
}

func message(id, uid, text string, at time.Time) domain.Message {
	return domain.Message{ID: id, Text: text, UID: uid, PhotoURL: domain.AvatarURL(uid), CreatedAt: at}
}

// mountChat enters the name and runs the subscription commands until the
// first snapshot is applied.
func mountChat(t *testing.T, app *App, name string) {
	req := require.New(t)
	typeText(app, name)
	cmd := pressEnter(app)
	req.NotNil(cmd)
	_, cmd = app.Update(cmd())
	req.NotNil(cmd)
	_, _ = app.Update(cmd())
}

func TestApp_Gate_Rejects_Blank_Name(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	app := NewApp(context.Background(), logs.GetLoggerFromLevel(slog.LevelDebug), store, mocks.NewMockDispatcher(ctrl), nil, 100)

	// Given a whitespace only name
	typeText(app, "   ")
	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Times(0)

	// When the user confirms
	cmd := pressEnter(app)

	// Then the gate does not transition
	req.Nil(cmd)
	req.Equal(gateScreen, app.screen)
	req.Equal(domain.Anonymous, app.Session().State())
	req.Contains(app.View(), title)
}

func TestApp_Gate_Enters_Once_And_Mounts_Feed(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	app := NewApp(ctx, logs.GetLoggerFromLevel(slog.LevelDebug), store, mocks.NewMockDispatcher(ctrl), nil, 100)

	now := time.Now().UTC()
	live := sink.NewLiveSink(nil)
	req.NoError(live.Consume(ctx, domain.Snapshot{
		Query:    domain.FeedQuery(100),
		Version:  1,
		Messages: []domain.Message{message("1", "Bob", "hi Alice", now), message("2", "Alice", "hi Bob", now.Add(time.Second))},
	}))

	// Given the store accepts exactly one subscription with the feed query
	store.EXPECT().Subscribe(gomock.Any(), domain.FeedQuery(100)).Return(live, nil).Times(1)

	// When Alice enters a name with surrounding spaces
	mountChat(t, app, "  Alice ")

	// Then the chat screen is mounted with the first snapshot
	req.Equal(chatScreen, app.screen)
	req.Equal(domain.Entered, app.Session().State())
	req.Equal("Alice", app.Session().Name())
	req.Len(app.Feed().Messages(), 2)
	req.Contains(app.View(), "hi Bob")
	req.False(app.Session().Enter("Bob"))
}

func TestApp_Submit_Dispatches_And_Clears_Input(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	app := NewApp(context.Background(), logs.GetLoggerFromLevel(slog.LevelDebug), store, dispatcher, nil, 100)
	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(sink.NewLiveSink(nil), nil).Times(1)

	// Given Alice in the chat room, with no snapshot delivered yet
	typeText(app, "Alice")
	cmd := pressEnter(app)
	app.Update(cmd())
	req.Empty(app.Feed().Messages())

	// When Alice submits an empty buffer then "hello"
	req.Nil(pressEnter(app))
	dispatcher.EXPECT().PostMessage(domain.NewPostMessageCommand("hello", "Alice")).Times(1)
	typeText(app, "hello")
	req.True(app.composer.CanSubmit())
	pressEnter(app)

	// Then only "hello" was dispatched and the input is already empty
	req.Equal("", app.messageInput.Value())
	req.Equal("", app.composer.Text())
	req.Empty(app.Feed().Messages())
}

func TestApp_Unmount_Releases_Subscription(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	app := NewApp(ctx, logs.GetLoggerFromLevel(slog.LevelDebug), store, mocks.NewMockDispatcher(ctrl), nil, 100)

	live := sink.NewLiveSink(nil)
	req.NoError(live.Consume(ctx, domain.Snapshot{Query: domain.FeedQuery(100), Version: 1}))
	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(live, nil).Times(1)
	mountChat(t, app, "Alice")
	staleMount := app.mountID

	// When the user quits
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	// Then the subscription is closed
	req.NotNil(cmd)
	select {
	case <-live.Done():
	default:
		req.Fail("subscription should be closed")
	}
	req.ErrorIs(live.Consume(ctx, domain.Snapshot{Version: 2}), errors.ErrSubscriptionClosed)

	// And a push still in flight is not processed
	app.Update(snapshotMsg{mountID: staleMount, snapshot: domain.Snapshot{
		Version:  3,
		Messages: []domain.Message{message("1", "Bob", "late", time.Now())},
	}})
	req.Empty(app.Feed().Messages())
}

func TestApp_Delivery_Failure_Is_Shown(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	failures := make(chan event.Event, 1)
	app := NewApp(context.Background(), logs.GetLoggerFromLevel(slog.LevelDebug), store, mocks.NewMockDispatcher(ctrl), failures, 100)

	// Given a failed insert reported by the sender
	failures <- event.New(event.InsertFailedType, event.InsertFailed{
		Command: domain.NewPostMessageCommand("hello", "Alice"),
		Err:     errors.ErrStoreClosed,
	})

	// When the failure listener fires
	msg := app.waitForFailure()()
	_, cmd := app.Update(msg)

	// Then a status line is shown and the listener is re-armed
	req.NotNil(cmd)
	req.Contains(app.status, "message not delivered")
	req.Contains(app.status, errors.ErrStoreClosed.Error())
}

func TestApp_Long_Name_And_Text_Are_Kept_Whole(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	app := NewApp(context.Background(), logs.GetLoggerFromLevel(slog.LevelDebug), store, dispatcher, nil, 100)
	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(sink.NewLiveSink(nil), nil).Times(1)

	name := strings.Repeat("n", 70)
	text := strings.Repeat("x", 1500)
	var sent domain.PostMessageCommand
	dispatcher.EXPECT().PostMessage(gomock.Any()).Do(func(cmd domain.PostMessageCommand) { sent = cmd }).Times(1)

	// Given a 70 rune name
	typeText(app, name)
	cmd := pressEnter(app)
	app.Update(cmd())

	// When a 1500 rune message is typed and submitted
	typeText(app, text)
	pressEnter(app)

	// Then neither was truncated
	req.Equal(name, app.Session().Name())
	req.Equal(text, sent.Text)
	req.Equal(name, sent.UID)
}

func TestApp_Chat_Screen_Fills_The_Terminal(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx := context.Background()
	app := NewApp(ctx, logs.GetLoggerFromLevel(slog.LevelDebug), store, mocks.NewMockDispatcher(ctrl), nil, 100)

	live := sink.NewLiveSink(nil)
	req.NoError(live.Consume(ctx, domain.Snapshot{
		Query:    domain.FeedQuery(100),
		Version:  1,
		Messages: []domain.Message{message("1", "Bob", "hi", time.Now())},
	}))
	store.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(live, nil).Times(1)

	// Given a 80x24 terminal
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	// When the chat screen is mounted
	mountChat(t, app, "Alice")

	// Then the feed takes every row left by the header, status, input and help lines
	req.Equal(20, app.viewport.Height)
	req.Equal(24, lipgloss.Height(app.View()))
}
