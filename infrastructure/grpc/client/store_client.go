package client

import (
	"context"
	"errors"
	"io"
	"livechat/contract"
	"livechat/domain"
	"livechat/infrastructure/grpc/wire"
	"livechat/sink"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ contract.Store = (*StoreClient)(nil)

// StoreClient reaches a remote DocumentStore.
// The connection is shared by every call, md is attached to each of them.
type StoreClient struct {
	conn grpc.ClientConnInterface
	md   metadata.MD
	log  *slog.Logger
}

func NewStoreClient(conn grpc.ClientConnInterface, md metadata.MD, log *slog.Logger) *StoreClient {
	return &StoreClient{conn: conn, md: md, log: log}
}

func (c *StoreClient) Insert(ctx context.Context, cmd domain.PostMessageCommand) (string, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), wire.InsertFullMethodName, wire.EncodeInsertRequest(cmd), out); err != nil {
		return "", err
	}
	return wire.DecodeInsertResponse(out)
}

// Subscribe opens the server stream and relays its snapshots.
// Errors of the stream itself, rejected credentials included, are reported
// through the subscription once it ends.
func (c *StoreClient) Subscribe(ctx context.Context, query domain.Query) (contract.Subscription, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	streamCtx, cancel := context.WithCancel(c.outgoing(ctx))
	stream, err := c.conn.NewStream(streamCtx, &wire.SubscribeStreamDesc, wire.SubscribeFullMethodName)
	if err != nil {
		cancel()
		return nil, err
	}
	if err = stream.SendMsg(wire.EncodeQuery(query)); err != nil {
		cancel()
		return nil, err
	}
	if err = stream.CloseSend(); err != nil {
		cancel()
		return nil, err
	}

	live := sink.NewLiveSink(cancel)
	go c.relay(streamCtx, query, stream, live)
	return live, nil
}

func (c *StoreClient) relay(ctx context.Context, query domain.Query, stream grpc.ClientStream, live *sink.LiveSink) {
	for {
		res := new(structpb.Struct)
		if err := stream.RecvMsg(res); err != nil {
			switch {
			case errors.Is(err, io.EOF), ctx.Err() != nil, status.Code(err) == codes.Canceled:
				live.Close()
			default:
				c.log.Warn("Subscription stream failed", "collection", query.Collection, "error", err)
				live.Fail(err)
			}
			return
		}
		snapshot, err := wire.DecodeSnapshot(query, res)
		if err != nil {
			live.Fail(err)
			return
		}
		if err = live.Consume(ctx, snapshot); err != nil {
			return
		}
	}
}

func (c *StoreClient) outgoing(ctx context.Context) context.Context {
	if len(c.md) == 0 {
		return ctx
	}
	return metadata.NewOutgoingContext(ctx, c.md)
}
