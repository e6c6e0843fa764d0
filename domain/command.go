package domain

// PostMessageCommand is the intent of writing one message.
// CreatedAt has no field here, the store assigns it.
type PostMessageCommand struct {
	Text     string
	UID      string
	PhotoURL string
}

func NewPostMessageCommand(text, name string) PostMessageCommand {
	return PostMessageCommand{
		Text:     text,
		UID:      name,
		PhotoURL: AvatarURL(name),
	}
}

// Document returns the fields written by the client.
func (c PostMessageCommand) Document() map[string]string {
	return map[string]string{
		FieldText:     c.Text,
		FieldUID:      c.UID,
		FieldPhotoURL: c.PhotoURL,
	}
}
