package storage

import (
	"livechat/domain"
	"livechat/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeMessage_Keeps_Collection_Field_Names(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC)

	record, err := EncodeMessage(domain.Message{ID: "id-1", Text: "hi", UID: "Alice", PhotoURL: domain.AvatarURL("Alice"), CreatedAt: at})

	req.NoError(err)
	req.Len(record.GetFields(), 4)
	req.Equal("hi", record.GetFields()["text"].GetStringValue())
	req.Equal("Alice", record.GetFields()["uid"].GetStringValue())
	req.Equal("https://ui-avatars.com/api/?name=Alice", record.GetFields()["photoURL"].GetStringValue())
	req.Equal("2024-05-01T12:30:00.000000123Z", record.GetFields()["createdAt"].GetStringValue())
	req.NotContains(record.GetFields(), "id")
}

func TestDecodeMessage_Rejects_Broken_Records(t *testing.T) {
	req := require.New(t)

	missing, err := structpb.NewStruct(map[string]any{"text": "hi", "uid": "Alice", "photoURL": "x"})
	req.NoError(err)
	_, err = DecodeMessage("id", missing)
	req.ErrorIs(err, errors.ErrInvalidDocument)

	wrongType, err := structpb.NewStruct(map[string]any{"text": 42.0, "uid": "Alice", "photoURL": "x", "createdAt": "2024-05-01T12:30:00Z"})
	req.NoError(err)
	_, err = DecodeMessage("id", wrongType)
	req.ErrorIs(err, errors.ErrInvalidDocument)

	badDate, err := structpb.NewStruct(map[string]any{"text": "hi", "uid": "Alice", "photoURL": "x", "createdAt": "yesterday"})
	req.NoError(err)
	_, err = DecodeMessage("id", badDate)
	req.ErrorIs(err, errors.ErrInvalidDocument)
}
