// Package rpc carries channel messages between processes as a Connect unary
// call. Each SendAndAwait is one HTTP round trip, so a reply is paired with
// its request by the transport itself; the reply still echoes the request ID.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/messaging"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "bridge.v1.ChannelService"

	// SendProcedure is the fully-qualified name of the unary Send RPC.
	SendProcedure = "/" + ServiceName + "/Send"
)

type server struct {
	router *channel.Router
	logger *slog.Logger
}

// NewHandler builds the Connect handler serving router. The returned path is
// the mount point for an http.ServeMux.
func NewHandler(router *channel.Router, logger *slog.Logger, opts ...connect.HandlerOption) (string, http.Handler) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{router: router, logger: logger}

	mux := http.NewServeMux()
	mux.Handle(SendProcedure, connect.NewUnaryHandler(SendProcedure, s.send, opts...))
	return "/" + ServiceName + "/", mux
}

func (s *server) send(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	request, err := messaging.FromStruct(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if !request.IsRequest() {
		return nil, connect.NewError(
			connect.CodeInvalidArgument,
			fmt.Errorf("%w: expected request, got %s", messaging.ErrMalformed, request.Type),
		)
	}

	response, err := s.router.Dispatch(ctx, request)
	if err != nil {
		s.logger.DebugContext(
			ctx,
			"rpc dispatch failed",
			slog.String("command", request.Command),
			slog.String("request_id", request.ID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, channel.ErrNoReceiver) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	st, err := messaging.ToStruct(response)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(st), nil
}

// Client is a Sender that reaches a remote Router through its Connect
// handler.
type Client struct {
	client *connect.Client[structpb.Struct, structpb.Struct]
}

var _ channel.Sender = (*Client)(nil)

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		client: connect.NewClient[structpb.Struct, structpb.Struct](
			httpClient,
			strings.TrimRight(baseURL, "/")+SendProcedure,
			opts...,
		),
	}
}

func (c *Client) SendAndAwait(ctx context.Context, command string, payload any) (any, error) {
	data, err := messaging.Normalize(payload)
	if err != nil {
		return nil, err
	}

	request := messaging.NewRequest(command, data).Build()
	st, err := messaging.ToStruct(request)
	if err != nil {
		return nil, err
	}

	res, err := c.client.CallUnary(ctx, connect.NewRequest(st))
	if err != nil {
		return nil, callError(ctx, command, err)
	}

	response, err := messaging.FromStruct(res.Msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrChannel, err)
	}
	if response.ReplyTo != request.ID {
		return nil, fmt.Errorf("%w: reply %q does not match request %q", channel.ErrChannel, response.ReplyTo, request.ID)
	}

	if err := response.Err(); err != nil {
		return nil, err
	}
	return response.Data, nil
}

func callError(ctx context.Context, command string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}

	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %s", channel.ErrNoReceiver, command)
	default:
		return fmt.Errorf("%w: %v", channel.ErrChannel, err)
	}
}
