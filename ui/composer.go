package ui

import (
	"livechat/contract"
	"livechat/domain"
)

// Composer owns the outgoing text buffer of the chat screen.
type Composer struct {
	buffer     string
	session    *domain.Session
	dispatcher contract.Dispatcher
}

func NewComposer(session *domain.Session, dispatcher contract.Dispatcher) *Composer {
	return &Composer{session: session, dispatcher: dispatcher}
}

func (c *Composer) SetText(text string) {
	c.buffer = text
}

func (c *Composer) Text() string {
	return c.buffer
}

// CanSubmit tells whether the send action is enabled.
func (c *Composer) CanSubmit() bool {
	return c.buffer != ""
}

// Submit hands the buffer to the dispatcher and clears it right away,
// without waiting for the write or for the feed to show it.
// It returns false and leaves the buffer alone when there is nothing to send.
func (c *Composer) Submit() bool {
	if !c.CanSubmit() {
		return false
	}
	c.dispatcher.PostMessage(domain.NewPostMessageCommand(c.buffer, c.session.Name()))
	c.buffer = ""
	return true
}
