// Package projection builds the local message feed from store snapshots.
// Handles ordering, deduplication and the visible window.
// Does not talk to the store or render anything.
package projection

import (
	"livechat/domain"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Anchor is told when the feed content changed.
// The view implements it by scrolling to its newest entry.
type Anchor interface {
	ScrollToLatest()
}

// Feed holds the messages currently shown, oldest first.
// Each snapshot replaces the whole content; a snapshot older than the
// current one is ignored.
type Feed struct {
	mu       sync.RWMutex
	window   int
	anchor   Anchor
	version  uint64
	received bool
	messages []domain.Message
}

func NewFeed(window int, anchor Anchor) *Feed {
	return &Feed{window: window, anchor: anchor}
}

// Apply replaces the feed content with the snapshot.
// It returns true when the visible content changed, the anchor is then
// asked to scroll to the latest message.
func (f *Feed) Apply(snapshot domain.Snapshot) bool {
	f.mu.Lock()
	if f.received && snapshot.Version < f.version {
		f.mu.Unlock()
		return false
	}
	next := normalize(snapshot.Messages, snapshot.Query.Direction, f.window)
	changed := !f.received || !sameMessages(f.messages, next)
	f.received = true
	f.version = snapshot.Version
	f.messages = next
	f.mu.Unlock()

	if changed && f.anchor != nil {
		f.anchor.ScrollToLatest()
	}
	return changed
}

// Messages returns a copy of the visible messages, oldest first.
func (f *Feed) Messages() []domain.Message {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.messages)
}

func (f *Feed) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// normalize puts messages oldest first, drops duplicate ids and keeps
// only the most recent window.
func normalize(messages []domain.Message, direction domain.Direction, window int) []domain.Message {
	ordered := slices.Clone(messages)
	if direction == domain.Descending {
		slices.Reverse(ordered)
	}
	ordered = lo.UniqBy(ordered, func(m domain.Message) string { return m.ID })
	if window > 0 && len(ordered) > window {
		ordered = ordered[len(ordered)-window:]
	}
	return ordered
}

func sameMessages(a, b []domain.Message) bool {
	return slices.EqualFunc(a, b, func(x, y domain.Message) bool {
		return x.ID == y.ID && x.Text == y.Text && x.UID == y.UID &&
			x.PhotoURL == y.PhotoURL && x.CreatedAt.Equal(y.CreatedAt)
	})
}
