// Package ui is the terminal surface of the chat: a name gate, then the
// chat room made of the message feed and the composer.
package ui

import (
	"context"
	"fmt"
	"livechat/contract"
	"livechat/domain"
	"livechat/domain/event"
	"livechat/projection"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const title = "Chat App"

type screen int

const (
	gateScreen screen = iota
	chatScreen
)

// chrome is the number of lines taken by everything but the feed:
// header, status, input and help.
const chrome = 4

type (
	subscribedMsg struct {
		mountID int
		sub     contract.Subscription
		err     error
	}
	snapshotMsg struct {
		mountID  int
		snapshot domain.Snapshot
	}
	subscriptionEndedMsg struct {
		mountID int
		err     error
	}
	deliveryFailedMsg struct {
		event event.Event
	}
)

// App is the root shell. It owns the session and mounts the chat screen
// once a name has been entered.
type App struct {
	ctx        context.Context
	log        *slog.Logger
	store      contract.Store
	dispatcher contract.Dispatcher
	failures   <-chan event.Event
	window     int

	screen       screen
	session      *domain.Session
	nameInput    textinput.Model
	messageInput textinput.Model
	viewport     viewport.Model
	composer     *Composer
	feed         *projection.Feed
	sub          contract.Subscription
	mountID      int
	follow       bool
	status       string
	width        int
	height       int
}

func NewApp(ctx context.Context, log *slog.Logger, store contract.Store,
	dispatcher contract.Dispatcher, failures <-chan event.Event, window int) *App {
	nameInput := textinput.New()
	nameInput.Placeholder = "Enter your name"
	nameInput.Focus()

	messageInput := textinput.New()
	messageInput.Placeholder = "Type a message..."

	session := domain.NewSession()
	return &App{
		ctx:          ctx,
		log:          log,
		store:        store,
		dispatcher:   dispatcher,
		failures:     failures,
		window:       window,
		screen:       gateScreen,
		session:      session,
		nameInput:    nameInput,
		messageInput: messageInput,
		viewport:     viewport.New(80, 20),
		composer:     NewComposer(session, dispatcher),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.waitForFailure())
}

// ScrollToLatest is called by the feed when its content changed.
func (a *App) ScrollToLatest() {
	a.follow = true
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-chrome, 1)
		a.refreshFeed()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.unmount()
			return a, tea.Quit
		}
		if a.screen == gateScreen {
			return a.updateGate(msg)
		}
		return a.updateChat(msg)

	case subscribedMsg:
		if msg.mountID != a.mountID || a.screen != chatScreen {
			if msg.sub != nil {
				msg.sub.Close()
			}
			return a, nil
		}
		if msg.err != nil {
			a.log.Warn("Unable to subscribe to the feed", "error", msg.err)
			return a, nil
		}
		a.sub = msg.sub
		return a, waitForSnapshot(msg.mountID, msg.sub)

	case snapshotMsg:
		if msg.mountID != a.mountID || a.sub == nil {
			return a, nil
		}
		a.feed.Apply(msg.snapshot)
		a.refreshFeed()
		return a, waitForSnapshot(msg.mountID, a.sub)

	case subscriptionEndedMsg:
		if msg.mountID != a.mountID {
			return a, nil
		}
		if msg.err != nil {
			a.log.Warn("Feed subscription stopped", "error", msg.err)
		}
		a.sub = nil
		return a, nil

	case deliveryFailedMsg:
		if failed, ok := msg.event.Payload.(event.InsertFailed); ok {
			a.status = fmt.Sprintf("message not delivered: %v", failed.Err)
		}
		return a, a.waitForFailure()
	}
	return a, nil
}

func (a *App) updateGate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		if !a.session.Enter(a.nameInput.Value()) {
			return a, nil
		}
		a.nameInput.Blur()
		return a, a.mount()
	}
	var cmd tea.Cmd
	a.nameInput, cmd = a.nameInput.Update(msg)
	return a, cmd
}

func (a *App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if a.composer.Submit() {
			a.messageInput.Reset()
			a.status = ""
		}
		return a, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.messageInput, cmd = a.messageInput.Update(msg)
	a.composer.SetText(a.messageInput.Value())
	return a, cmd
}

// mount switches to the chat screen and opens the one live subscription
// of this mount.
func (a *App) mount() tea.Cmd {
	a.screen = chatScreen
	a.mountID++
	a.feed = projection.NewFeed(a.window, a)
	a.messageInput.Focus()
	a.refreshFeed()

	mountID, store, ctx, query := a.mountID, a.store, a.ctx, domain.FeedQuery(a.window)
	return func() tea.Msg {
		sub, err := store.Subscribe(ctx, query)
		return subscribedMsg{mountID: mountID, sub: sub, err: err}
	}
}

// unmount releases the subscription, pushes already in flight are ignored.
func (a *App) unmount() {
	a.mountID++
	if a.sub != nil {
		a.sub.Close()
		a.sub = nil
	}
}

func waitForSnapshot(mountID int, sub contract.Subscription) tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-sub.Snapshots()
		if !ok {
			return subscriptionEndedMsg{mountID: mountID, err: sub.Err()}
		}
		return snapshotMsg{mountID: mountID, snapshot: snapshot}
	}
}

func (a *App) waitForFailure() tea.Cmd {
	if a.failures == nil {
		return nil
	}
	failures := a.failures
	return func() tea.Msg {
		e, ok := <-failures
		if !ok {
			return nil
		}
		return deliveryFailedMsg{event: e}
	}
}

func (a *App) refreshFeed() {
	if a.feed == nil {
		return
	}
	rows := make([]string, 0, a.window)
	for _, message := range a.feed.Messages() {
		rows = append(rows, RenderRow(message, a.session.Name()).View())
	}
	a.viewport.SetContent(strings.Join(rows, "\n"))
	if a.follow {
		a.viewport.GotoBottom()
		a.follow = false
	}
}

func (a *App) View() string {
	header := headerStyle.Render(title)
	if a.screen == gateScreen {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			a.nameInput.View(),
			dimStyle.Render("Enter: join  Esc: quit"),
		)
	}

	send := dimStyle.Render("Enter: send")
	if a.composer.CanSubmit() {
		send = ownTextStyle.Render("Enter: send")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header+dimStyle.Render(a.session.Name()),
		a.viewport.View(),
		statusStyle.Render(a.status),
		a.messageInput.View(),
		send+dimStyle.Render("  PgUp/PgDn: scroll  Esc: quit"),
	)
}

// Session exposes the session for the binary and for tests.
func (a *App) Session() *domain.Session {
	return a.session
}

// Feed is nil until the chat screen is mounted.
func (a *App) Feed() *projection.Feed {
	return a.feed
}
