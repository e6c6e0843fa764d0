package storage

import (
	"fmt"
	"livechat/domain"
	"livechat/errors"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeMessage builds the stored record of a message.
// The identifier is not part of the record, it lives in the key.
func EncodeMessage(message domain.Message) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		domain.FieldText:      message.Text,
		domain.FieldCreatedAt: message.CreatedAt.UTC().Format(time.RFC3339Nano),
		domain.FieldUID:       message.UID,
		domain.FieldPhotoURL:  message.PhotoURL,
	})
}

// DecodeMessage rebuilds a message from its record and identifier.
func DecodeMessage(id string, record *structpb.Struct) (domain.Message, error) {
	text, err := stringField(record, domain.FieldText)
	if err != nil {
		return domain.Message{}, err
	}
	uid, err := stringField(record, domain.FieldUID)
	if err != nil {
		return domain.Message{}, err
	}
	photoURL, err := stringField(record, domain.FieldPhotoURL)
	if err != nil {
		return domain.Message{}, err
	}
	rawCreatedAt, err := stringField(record, domain.FieldCreatedAt)
	if err != nil {
		return domain.Message{}, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rawCreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %s: %v", errors.ErrInvalidDocument, domain.FieldCreatedAt, err)
	}
	return domain.Message{
		ID:        id,
		Text:      text,
		UID:       uid,
		PhotoURL:  photoURL,
		CreatedAt: createdAt.UTC(),
	}, nil
}

func stringField(record *structpb.Struct, name string) (string, error) {
	value, ok := record.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: missing field %s", errors.ErrInvalidDocument, name)
	}
	str, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: field %s is not a string", errors.ErrInvalidDocument, name)
	}
	return str.StringValue, nil
}
