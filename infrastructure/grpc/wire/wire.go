// Package wire describes the DocumentStore gRPC service and maps domain
// values to the well-known protobuf types travelling on it.
package wire

import (
	"fmt"
	"livechat/domain"
	"livechat/errors"
	"livechat/infrastructure/storage"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName             = "livechat.store.v1.DocumentStore"
	InsertFullMethodName    = "/" + ServiceName + "/Insert"
	SubscribeFullMethodName = "/" + ServiceName + "/Subscribe"

	// APIKeyHeader carries the store api key of the caller.
	APIKeyHeader = "x-api-key"
)

const (
	fieldCollection = "collection"
	fieldDocument   = "document"
	fieldID         = "id"
	fieldOrderBy    = "orderBy"
	fieldDirection  = "direction"
	fieldLimit      = "limit"
	fieldVersion    = "version"
	fieldDocuments  = "documents"
)

// SubscribeStreamDesc is shared by the server registration and the client.
var SubscribeStreamDesc = grpc.StreamDesc{
	StreamName:    "Subscribe",
	ServerStreams: true,
}

func EncodeInsertRequest(cmd domain.PostMessageCommand) *structpb.Struct {
	document := make(map[string]*structpb.Value, 3)
	for name, value := range cmd.Document() {
		document[name] = structpb.NewStringValue(value)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCollection: structpb.NewStringValue(domain.Collection),
		fieldDocument:   structpb.NewStructValue(&structpb.Struct{Fields: document}),
	}}
}

func DecodeInsertRequest(req *structpb.Struct) (domain.PostMessageCommand, error) {
	fields := req.GetFields()
	if collection := fields[fieldCollection].GetStringValue(); collection != domain.Collection {
		return domain.PostMessageCommand{}, fmt.Errorf("%w: unknown collection %q", errors.ErrInvalidDocument, collection)
	}
	document := fields[fieldDocument].GetStructValue().GetFields()
	if document == nil {
		return domain.PostMessageCommand{}, fmt.Errorf("%w: missing %s", errors.ErrInvalidDocument, fieldDocument)
	}
	return domain.PostMessageCommand{
		Text:     document[domain.FieldText].GetStringValue(),
		UID:      document[domain.FieldUID].GetStringValue(),
		PhotoURL: document[domain.FieldPhotoURL].GetStringValue(),
	}, nil
}

func EncodeInsertResponse(id string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldID: structpb.NewStringValue(id),
	}}
}

func DecodeInsertResponse(res *structpb.Struct) (string, error) {
	id := res.GetFields()[fieldID].GetStringValue()
	if id == "" {
		return "", fmt.Errorf("%w: missing %s", errors.ErrInvalidDocument, fieldID)
	}
	return id, nil
}

func EncodeQuery(query domain.Query) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCollection: structpb.NewStringValue(query.Collection),
		fieldOrderBy:    structpb.NewStringValue(query.OrderBy),
		fieldDirection:  structpb.NewStringValue(string(query.Direction)),
		fieldLimit:      structpb.NewNumberValue(float64(query.Limit)),
	}}
}

func DecodeQuery(req *structpb.Struct) (domain.Query, error) {
	fields := req.GetFields()
	query := domain.Query{
		Collection: fields[fieldCollection].GetStringValue(),
		OrderBy:    fields[fieldOrderBy].GetStringValue(),
		Direction:  domain.Direction(fields[fieldDirection].GetStringValue()),
		Limit:      int(fields[fieldLimit].GetNumberValue()),
	}
	return query, query.Validate()
}

// EncodeSnapshot lists the documents with their id next to the record fields.
func EncodeSnapshot(snapshot domain.Snapshot) (*structpb.Struct, error) {
	documents := make([]*structpb.Value, 0, len(snapshot.Messages))
	for _, message := range snapshot.Messages {
		record, err := storage.EncodeMessage(message)
		if err != nil {
			return nil, err
		}
		record.Fields[fieldID] = structpb.NewStringValue(message.ID)
		documents = append(documents, structpb.NewStructValue(record))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldVersion:   structpb.NewStringValue(strconv.FormatUint(snapshot.Version, 10)),
		fieldDocuments: structpb.NewListValue(&structpb.ListValue{Values: documents}),
	}}, nil
}

// DecodeSnapshot rebuilds a snapshot pushed for query.
func DecodeSnapshot(query domain.Query, res *structpb.Struct) (domain.Snapshot, error) {
	fields := res.GetFields()
	version, err := strconv.ParseUint(fields[fieldVersion].GetStringValue(), 10, 64)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %s: %v", errors.ErrInvalidDocument, fieldVersion, err)
	}
	values := fields[fieldDocuments].GetListValue().GetValues()
	messages := make([]domain.Message, 0, len(values))
	for _, value := range values {
		record := value.GetStructValue()
		message, err := storage.DecodeMessage(record.GetFields()[fieldID].GetStringValue(), record)
		if err != nil {
			return domain.Snapshot{}, err
		}
		messages = append(messages, message)
	}
	return domain.Snapshot{Query: query, Version: version, Messages: messages}, nil
}
