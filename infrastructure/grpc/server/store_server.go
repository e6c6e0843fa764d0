package server

import (
	"context"
	"fmt"
	"livechat/contract"
	"livechat/errors"
	"livechat/infrastructure/grpc/wire"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// DocumentStoreServer is the server API of the DocumentStore service.
// Requests and responses are google.protobuf.Struct values, see package wire.
type DocumentStoreServer interface {
	Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Subscribe(req *structpb.Struct, stream grpc.ServerStream) error
}

var DocumentStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*DocumentStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Insert", Handler: insertHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    wire.SubscribeStreamDesc.StreamName,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "livechat/store/v1/store.proto",
}

func RegisterDocumentStoreServer(s grpc.ServiceRegistrar, srv DocumentStoreServer) {
	s.RegisterService(&DocumentStoreServiceDesc, srv)
}

func insertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DocumentStoreServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.InsertFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DocumentStoreServer).Insert(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(DocumentStoreServer).Subscribe(in, stream)
}

type StoreServer struct {
	store contract.Store
	log   *slog.Logger
}

func NewStoreServer(log *slog.Logger, store contract.Store) *StoreServer {
	return &StoreServer{store: store, log: log}
}

// Insert writes one document and returns its store assigned id.
func (s *StoreServer) Insert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd, err := wire.DecodeInsertRequest(req)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	id, err := s.store.Insert(ctx, cmd)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return wire.EncodeInsertResponse(id), nil
}

// Subscribe streams full snapshots of the query until the client goes away.
// The store subscription is tied to the stream context and released on return.
func (s *StoreServer) Subscribe(req *structpb.Struct, stream grpc.ServerStream) error {
	query, err := wire.DecodeQuery(req)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	ctx := stream.Context()
	sub, err := s.store.Subscribe(ctx, query)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer sub.Close()

	streamID := uuid.NewString()
	s.log.Debug("Client subscribed", "stream_id", streamID, "collection", query.Collection)
	for {
		select {
		case <-ctx.Done():
			s.log.Debug(fmt.Sprintf("Client %s disconnected", streamID))
			return nil
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				return errors.MapToGRPCError(sub.Err())
			}
			res, err := wire.EncodeSnapshot(snapshot)
			if err != nil {
				return errors.MapToGRPCError(err)
			}
			if err = stream.SendMsg(res); err != nil {
				s.log.Error("failed to push snapshot to stream",
					"stream_id", streamID,
					"error", err)
				return err
			}
		}
	}
}
