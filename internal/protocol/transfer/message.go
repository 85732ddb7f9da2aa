package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

type inbound struct {
	mt   int
	data []byte
	err  error
}

// MessageConn carries one packet per binary websocket message. A pump
// goroutine owns the websocket reader so a wait can be abandoned without
// failing the connection.
type MessageConn struct {
	id      ulid.ULID
	ws      *websocket.Conn
	timeout time.Duration
	stats   *protocol.Stats
	wmu     sync.Mutex

	inbox     chan inbound
	quit      chan struct{}
	closeOnce sync.Once
	head      *inbound // message seen by Watch, handed to the next Recv
	failed    error    // terminal read error, repeated on every later Recv
}

func NewMessageConn(id ulid.ULID, ws *websocket.Conn, timeout time.Duration) *MessageConn {
	c := &MessageConn{
		id:      id,
		ws:      ws,
		timeout: timeout,
		stats:   protocol.NewStats(),
		inbox:   make(chan inbound),
		quit:    make(chan struct{}),
	}
	go c.pump()
	return c
}

// Gateway upgrades HTTP requests into MessageConns.
type Gateway struct {
	upgrader websocket.Upgrader
	timeout  time.Duration
}

// NewGateway accepts browser origins listed in origins ("*" for any). With no
// list only same-host origins pass. Requests without an Origin header, such
// as bots, always pass.
func NewGateway(origins []string, timeout time.Duration) *Gateway {
	return &Gateway{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		timeout: timeout,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return nil // gorilla's same-host check
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

// Upgrade turns an HTTP request into a MessageConn with a fresh session ID.
func (g *Gateway) Upgrade(w http.ResponseWriter, r *http.Request) (*MessageConn, error) {
	id, err := utils.NewULID()
	if err != nil {
		http.Error(w, "session id", http.StatusInternalServerError)
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewMessageConn(id, ws, g.timeout), nil
}

// DialWebSocket connects to a ws:// or wss:// URL.
func DialWebSocket(ctx context.Context, url string, timeout time.Duration) (*MessageConn, error) {
	id, err := utils.NewULID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	d := websocket.Dialer{HandshakeTimeout: timeout}
	ws, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return NewMessageConn(id, ws, timeout), nil
}

func (c *MessageConn) ID() ulid.ULID          { return c.id }
func (c *MessageConn) Transport() string      { return TransportWS }
func (c *MessageConn) RemoteAddr() string     { return c.ws.RemoteAddr().String() }
func (c *MessageConn) Stats() *protocol.Stats { return c.stats }

func (c *MessageConn) pump() {
	for {
		mt, data, err := c.ws.ReadMessage()
		select {
		case c.inbox <- inbound{mt: mt, data: data, err: err}:
		case <-c.quit:
			return
		}
		if err != nil {
			return
		}
	}
}

func (c *MessageConn) Recv(kind packets.Kind) (protocol.Packet, error) {
	pkt, size, err := c.recv(kind)
	recordRecv(TransportWS, c.stats, kind, size, err)
	return pkt, err
}

func (c *MessageConn) recv(kind packets.Kind) (protocol.Packet, int, error) {
	in, err := c.next()
	if err != nil {
		return nil, 0, err
	}
	if in.mt != websocket.BinaryMessage {
		return nil, 0, fmt.Errorf("%w: %d", ErrMessageType, in.mt)
	}

	pkt, n, err := packets.Unmarshal(kind, in.data)
	if err != nil {
		return nil, 0, err
	}
	if n != len(in.data) {
		return nil, 0, fmt.Errorf("%w: %d of %d bytes used", ErrTrailingData, n, len(in.data))
	}
	return pkt, n, nil
}

func (c *MessageConn) next() (inbound, error) {
	if c.head != nil {
		in := *c.head
		c.head = nil
		return in, nil
	}
	if c.failed != nil {
		return inbound{}, c.failed
	}

	var expired <-chan time.Time
	if c.timeout > 0 {
		timer := time.NewTimer(c.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case in := <-c.inbox:
		return c.take(in)
	case <-expired:
		return inbound{}, fmt.Errorf("%w: %w", protocol.ErrStream, os.ErrDeadlineExceeded)
	case <-c.quit:
		return inbound{}, fmt.Errorf("%w: %w", protocol.ErrStream, net.ErrClosed)
	}
}

func (c *MessageConn) take(in inbound) (inbound, error) {
	if in.err == nil {
		return in, nil
	}
	err := in.err
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = io.EOF
	}
	c.failed = fmt.Errorf("%w: %w", protocol.ErrStream, err)
	return inbound{}, c.failed
}

func (c *MessageConn) Watch(ctx context.Context) error {
	if c.head != nil {
		return nil
	}
	if c.failed != nil {
		return c.failed
	}

	select {
	case in := <-c.inbox:
		if _, err := c.take(in); err != nil {
			return err
		}
		c.head = &in
		return nil
	case <-ctx.Done():
		return nil
	case <-c.quit:
		return fmt.Errorf("%w: %w", protocol.ErrStream, net.ErrClosed)
	}
}

// Send is safe to call from several goroutines.
func (c *MessageConn) Send(pkt protocol.Packet) error {
	buf, err := pkt.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal packet: %w", err)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.timeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, buf); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	recordSent(TransportWS, c.stats, pkt, len(buf))
	return nil
}

func (c *MessageConn) Close() error {
	c.closeOnce.Do(func() { close(c.quit) })

	c.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.wmu.Unlock()
	return c.ws.Close()
}
