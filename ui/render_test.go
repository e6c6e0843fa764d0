package ui

import (
	"livechat/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderRow_Variant(t *testing.T) {
	message := domain.Message{ID: "1", Text: "hi", UID: "Alice", PhotoURL: domain.AvatarURL("Alice")}

	tests := []struct {
		name    string
		session string
		want    Variant
	}{
		{name: "same name", session: "Alice", want: Own},
		{name: "other name", session: "Bob", want: Other},
		{name: "case differs", session: "alice", want: Other},
		{name: "prefix only", session: "Ali", want: Other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			row := RenderRow(message, tt.session)
			req.Equal(tt.want, row.Variant)
			req.Equal("hi", row.Text)
			req.Equal(message.PhotoURL, row.PhotoURL)
			req.Contains(row.View(), "hi")
		})
	}
}

func TestInitials(t *testing.T) {
	req := require.New(t)
	req.Equal("AL", Initials("alice"))
	req.Equal("BM", Initials("bob marley"))
	req.Equal("J", Initials("j"))
	req.Equal("?", Initials("   "))
	req.Equal("ÉL", Initials("élodie"))
}
