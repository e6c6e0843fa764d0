package ui

import (
	"fmt"
	"livechat/domain"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

type Variant int

const (
	Other Variant = iota
	Own
)

// Row is the visual form of one message.
type Row struct {
	Variant  Variant
	Avatar   string
	PhotoURL string
	UID      string
	Text     string
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	avatarStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("232")).Background(lipgloss.Color("250")).Padding(0, 1)
	ownAvatarStyle = avatarStyle.Background(lipgloss.Color("39"))
	ownTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	otherTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// RenderRow maps a message to its row for the current session name.
// A message is Own only when its uid equals the name exactly.
func RenderRow(message domain.Message, name string) Row {
	variant := Other
	if message.IsOwnedBy(name) {
		variant = Own
	}
	return Row{
		Variant:  variant,
		Avatar:   Initials(message.UID),
		PhotoURL: message.PhotoURL,
		UID:      message.UID,
		Text:     message.Text,
	}
}

func (r Row) View() string {
	if r.Variant == Own {
		return fmt.Sprintf("%s %s", ownAvatarStyle.Render(r.Avatar), ownTextStyle.Render(r.Text))
	}
	return fmt.Sprintf("%s %s", avatarStyle.Render(r.Avatar), otherTextStyle.Render(r.Text))
}

// Initials mimics the avatar service: first letter of the first two words,
// or the first two letters of a single word, upper-cased.
func Initials(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "?"
	case 1:
		runes := []rune(words[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	default:
		first := []rune(words[0])[0]
		second := []rune(words[1])[0]
		return string([]rune{unicode.ToUpper(first), unicode.ToUpper(second)})
	}
}
