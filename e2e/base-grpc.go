package e2e

import (
	"context"
	"fmt"
	"livechat/infrastructure/grpc/client"
	"livechat/infrastructure/grpc/wire"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.StoreAddr == "" {
		s.T().Skip("STORE_ADDR is not set, no store to talk to")
	}
}

var marshaler = protojson.MarshalOptions{
	UseProtoNames:   true,
	Multiline:       true,
	EmitUnpopulated: true,
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string, addr string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			stream, err := streamer(ctx, desc, cc, method, opts...)
			t.Logf("GRPC %s stream opened [%s]", method, status.Code(err))
			if err != nil || !s.Config.DebugJSON {
				return stream, err
			}
			return &debugStream{ClientStream: stream, t: t}, nil
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+addr)
	return conn
}

// debugStream dumps every snapshot received on a subscription.
type debugStream struct {
	grpc.ClientStream
	t *testing.T
}

func (d *debugStream) RecvMsg(m any) error {
	err := d.ClientStream.RecvMsg(m)
	if err == nil {
		d.t.Logf("SNAPSHOT:\n%s", marshaler.Format(m.(proto.Message)))
	}
	return err
}

// WithStore provides a store client within a contextual test step
func (s *BaseGrpcSuite) WithStore(name string, fn func(ctx context.Context, store *client.StoreClient)) {
	conn := s.GrpcConn(s.T(), name, s.Config.StoreAddr)
	defer conn.Close()

	md := metadata.MD{}
	if s.Config.APIKey != "" {
		md.Set(wire.APIKeyHeader, s.Config.APIKey)
	}
	store := client.NewStoreClient(conn, md, slog.Default())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fn(ctx, store)
}
