// Package domain contains core concepts of the chat system.
// This file defines Message records and related rules.
// Messages are immutable once the store has written them.
package domain

import (
	"net/url"
	"strings"
	"time"
)

// Collection is the only collection the chat reads and writes.
const Collection = "messages"

// Field names of a stored message record.
// They are part of the persisted layout and must not change.
const (
	FieldText      = "text"
	FieldCreatedAt = "createdAt"
	FieldUID       = "uid"
	FieldPhotoURL  = "photoURL"
)

const avatarEndpoint = "https://ui-avatars.com/api/"

// Message represents an immutable chat record.
type Message struct {
	ID        string // assigned by the store
	Text      string
	UID       string
	PhotoURL  string
	CreatedAt time.Time // assigned by the store
}

// IsOwnedBy reports whether the message was written under the given session name.
// The comparison is exact and case-sensitive.
func (m Message) IsOwnedBy(name string) bool {
	return m.UID == name
}

// AvatarURL derives the avatar reference of an author.
// It is recomputed from the name, never stored separately from it.
func AvatarURL(name string) string {
	// Spaces are percent-encoded, not turned into "+".
	return avatarEndpoint + "?name=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
