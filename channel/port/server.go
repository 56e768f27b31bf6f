package port

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/messaging"
)

// Fault codes for delivery failures detected on the serving side. The Port
// turns them back into channel errors.
const (
	CodeNoReceiver = "channel.no_receiver"
	CodeDelivery   = "channel.delivery"
)

type Server struct {
	router   *channel.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewServer(router *channel.Router, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: logger,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "port upgrade failed", slog.String("error", err.Error()))
		return
	}

	s.logger.DebugContext(r.Context(), "port connected", slog.String("remote", conn.RemoteAddr().String()))
	s.serve(r.Context(), conn)
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(ctx)

	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)

	defer conn.Close()
	defer wg.Wait()
	defer cancel()

	for {
		request := &messaging.Message{}
		if err := conn.ReadJSON(request); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.DebugContext(ctx, "port read ended", slog.String("error", err.Error()))
			}
			return
		}

		if !request.IsRequest() {
			s.logger.WarnContext(
				ctx,
				"port ignoring non-request message",
				slog.String("message_id", request.ID),
				slog.String("type", string(request.Type)),
			)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			response, err := s.router.Dispatch(ctx, request)
			if err != nil {
				code := CodeDelivery
				if errors.Is(err, channel.ErrNoReceiver) {
					code = CodeNoReceiver
				}
				response = messaging.NewFaultResponse(request, messaging.NewFault(code, err.Error())).Build()
			}

			writeMu.Lock()
			defer writeMu.Unlock()

			if err := conn.WriteJSON(response); err != nil {
				s.logger.DebugContext(
					ctx,
					"port write failed",
					slog.String("request_id", request.ID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
}
