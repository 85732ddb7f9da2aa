package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/oklog/ulid/v2"
)

// StreamConn carries packets back to back over a byte stream such as TCP.
type StreamConn struct {
	id      ulid.ULID
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	timeout time.Duration
	stats   *protocol.Stats
	wmu     sync.Mutex
}

func NewStreamConn(id ulid.ULID, conn net.Conn, timeout time.Duration) *StreamConn {
	return &StreamConn{
		id:      id,
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		timeout: timeout,
		stats:   protocol.NewStats(),
	}
}

// DialTCP connects to addr and wraps the connection with a fresh session ID.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (*StreamConn, error) {
	id, err := utils.NewULID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewStreamConn(id, conn, timeout), nil
}

func (c *StreamConn) ID() ulid.ULID          { return c.id }
func (c *StreamConn) Transport() string      { return TransportTCP }
func (c *StreamConn) RemoteAddr() string     { return c.conn.RemoteAddr().String() }
func (c *StreamConn) Stats() *protocol.Stats { return c.stats }

func (c *StreamConn) Recv(kind packets.Kind) (protocol.Packet, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
	}

	cr := &countingReader{r: c.r}
	pkt, err := packets.Read(kind, cr)
	recordRecv(TransportTCP, c.stats, kind, cr.n, err)
	if err != nil {
		return nil, err
	}
	return pkt, nil
}

func (c *StreamConn) Watch(ctx context.Context) error {
	_ = c.conn.SetReadDeadline(time.Time{})
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
		close(fired)
	})
	defer func() {
		if !stop() {
			<-fired
		}
		_ = c.conn.SetReadDeadline(time.Time{})
	}()

	if _, err := c.r.Peek(1); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", protocol.ErrStream, err)
	}
	return nil
}

// Send is safe to call from several goroutines.
func (c *StreamConn) Send(pkt protocol.Packet) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}

	buf, err := packets.SendPacket(c.w, pkt)
	if err != nil {
		return err
	}
	recordSent(TransportTCP, c.stats, pkt, len(buf))
	return nil
}

func (c *StreamConn) Close() error {
	c.wmu.Lock()
	_ = c.w.Flush()
	c.wmu.Unlock()
	return c.conn.Close()
}

type countingReader struct {
	r io.Reader
	n int
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += n
	return n, err
}
