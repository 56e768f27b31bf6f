package port

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tailored-agentic-units/bridge/channel"
	"github.com/tailored-agentic-units/bridge/messaging"
)

type reply struct {
	message *messaging.Message
	err     error
}

// Port is the dialing end of a WebSocket channel.
type Port struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	pending   map[string]chan reply
	pendingMu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

var _ channel.Sender = (*Port)(nil)

// Dial connects to a Server at url (ws:// or wss://).
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Port, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", channel.ErrChannel, url, err)
	}

	p := &Port{
		conn:    conn,
		pending: make(map[string]chan reply),
		closed:  make(chan struct{}),
		logger:  logger,
	}
	go p.readLoop()

	return p, nil
}

func (p *Port) SendAndAwait(ctx context.Context, command string, payload any) (any, error) {
	data, err := messaging.Normalize(payload)
	if err != nil {
		return nil, err
	}

	request := messaging.NewRequest(command, data).Build()
	replies := make(chan reply, 1)

	p.pendingMu.Lock()
	if p.isClosed() {
		p.pendingMu.Unlock()
		return nil, fmt.Errorf("%w: %s", channel.ErrClosed, command)
	}
	p.pending[request.ID] = replies
	p.pendingMu.Unlock()

	defer func() {
		p.pendingMu.Lock()
		delete(p.pending, request.ID)
		p.pendingMu.Unlock()
	}()

	p.writeMu.Lock()
	err = p.conn.WriteJSON(request)
	p.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrClosed, err)
	}

	select {
	case r := <-replies:
		return r.result(command)
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
	case <-p.closed:
		select {
		case r := <-replies:
			return r.result(command)
		default:
			return nil, fmt.Errorf("%w: %s", channel.ErrClosed, command)
		}
	}
}

func (r reply) result(command string) (any, error) {
	if r.err != nil {
		return nil, r.err
	}

	if fault := r.message.Fault; fault != nil {
		switch fault.Code {
		case CodeNoReceiver:
			return nil, fmt.Errorf("%w: %s", channel.ErrNoReceiver, command)
		case CodeDelivery:
			return nil, fmt.Errorf("%w: %s", channel.ErrChannel, fault.Message)
		}
		return nil, fault
	}
	return r.message.Data, nil
}

// Close ends the connection. Pending calls fail with channel.ErrClosed.
func (p *Port) Close() error {
	p.writeMu.Lock()
	err := p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	p.writeMu.Unlock()

	p.shutdown()

	if err != nil && err != websocket.ErrCloseSent {
		return fmt.Errorf("%w: %v", channel.ErrClosed, err)
	}
	return nil
}

func (p *Port) readLoop() {
	defer p.shutdown()

	for {
		msg := &messaging.Message{}
		if err := p.conn.ReadJSON(msg); err != nil {
			p.logger.Debug("port connection lost", slog.String("error", err.Error()))
			return
		}

		if !msg.IsResponse() {
			continue
		}

		p.pendingMu.Lock()
		replies, exists := p.pending[msg.ReplyTo]
		p.pendingMu.Unlock()

		if !exists {
			p.logger.Debug("dropping reply for abandoned request", slog.String("reply_to", msg.ReplyTo))
			continue
		}

		select {
		case replies <- reply{message: msg}:
		default:
		}
	}
}

func (p *Port) shutdown() {
	p.closeOnce.Do(func() {
		p.pendingMu.Lock()
		close(p.closed)
		p.pendingMu.Unlock()
		p.conn.Close()
	})
}

func (p *Port) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}
