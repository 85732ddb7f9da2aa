package transfer

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/testutil/testlog"
	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

func pipe(t *testing.T) (*StreamConn, *StreamConn) {
	t.Helper()
	a, b := net.Pipe()
	ca := NewStreamConn(ulid.Make(), a, time.Second)
	cb := NewStreamConn(ulid.Make(), b, time.Second)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func sendAsync(c Conn, pkts ...protocol.Packet) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		for _, pkt := range pkts {
			if err := c.Send(pkt); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()
	return errCh
}

func TestStreamConnSendRecv(t *testing.T) {
	testlog.Start(t)
	a, b := pipe(t)

	hello, _ := packets.NewClientHello("Alice")
	card := packets.NewClientPacket(protocol.Card{Value: 7, Suit: protocol.SuitClubs})
	errCh := sendAsync(a, hello, card)

	got, err := b.Recv(packets.KindClientHello)
	if err != nil {
		t.Fatalf("recv hello: %v", err)
	}
	if got.(*packets.ClientHello).Name != "Alice" {
		t.Fatalf("unexpected hello: %+v", got)
	}
	got, err = b.Recv(packets.KindClientPacket)
	if err != nil {
		t.Fatalf("recv card: %v", err)
	}
	if got.(*packets.ClientPacket).Card != card.Card {
		t.Fatalf("unexpected card: %+v", got)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("send: %v", err)
	}

	snap := b.Stats().Snapshot()
	if snap.PacketsRcvd != 2 || snap.BytesRcvd != 6+5 {
		t.Fatalf("unexpected recv stats: %+v", snap)
	}
	if sent := a.Stats().Snapshot(); sent.PacketsSent != 2 || sent.BytesSent != 11 {
		t.Fatalf("unexpected send stats: %+v", sent)
	}
}

func TestStreamConnCleanClose(t *testing.T) {
	testlog.Start(t)
	a, b := pipe(t)

	go a.Close()
	_, err := b.Recv(packets.KindServerPlay)
	if !IsClosed(err) {
		t.Fatalf("expected clean close, got %v", err)
	}
	if !errors.Is(err, protocol.ErrStream) {
		t.Fatalf("expected ErrStream, got %v", err)
	}
}

func TestStreamConnMidPacketClose(t *testing.T) {
	testlog.Start(t)
	x, y := net.Pipe()
	defer x.Close()
	b := NewStreamConn(ulid.Make(), y, time.Second)
	defer b.Close()

	go func() {
		// name length 5 with only one byte behind it
		x.Write([]byte{0x05, 'A'})
		x.Close()
	}()

	_, err := b.Recv(packets.KindClientHello)
	if IsClosed(err) {
		t.Fatalf("mid-packet close reported as clean: %v", err)
	}
	if !errors.Is(err, protocol.ErrStream) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrStream wrapping ErrUnexpectedEOF, got %v", err)
	}
}

func TestStreamConnUnknownSuit(t *testing.T) {
	testlog.Start(t)
	x, y := net.Pipe()
	defer x.Close()
	b := NewStreamConn(ulid.Make(), y, time.Second)
	defer b.Close()

	go x.Write([]byte{0x00, 0x00, 0x00, 0x02, 0x09})

	_, err := b.Recv(packets.KindClientPacket)
	if !errors.Is(err, protocol.ErrUnknownSuit) {
		t.Fatalf("expected ErrUnknownSuit, got %v", err)
	}
}

func TestStreamConnReadTimeout(t *testing.T) {
	testlog.Start(t)
	x, y := net.Pipe()
	defer x.Close()
	b := NewStreamConn(ulid.Make(), y, 20*time.Millisecond)
	defer b.Close()

	_, err := b.Recv(packets.KindClientPacket)
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func wsServer(t *testing.T, origins ...string) (string, <-chan *MessageConn) {
	t.Helper()
	gw := NewGateway(origins, time.Second)
	conns := make(chan *MessageConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := gw.Upgrade(w, r)
		if err != nil {
			return
		}
		conns <- c
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns
}

func TestMessageConnSendRecv(t *testing.T) {
	testlog.Start(t)
	url, conns := wsServer(t)

	client, err := DialWebSocket(context.Background(), url, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	server := <-conns
	defer server.Close()

	roster, _ := packets.NewClientRoster([]string{"Alice", "Bob"})
	if err := client.Send(roster); err != nil {
		t.Fatalf("send roster: %v", err)
	}
	got, err := server.Recv(packets.KindClientRoster)
	if err != nil {
		t.Fatalf("recv roster: %v", err)
	}
	if names := got.(*packets.ClientRoster).Names; len(names) != 2 || names[1] != "Bob" {
		t.Fatalf("unexpected roster: %v", names)
	}

	pass := packets.NewServerPass(protocol.Card{Value: 11, Suit: protocol.SuitSpades}, -1)
	if err := server.Send(pass); err != nil {
		t.Fatalf("send pass: %v", err)
	}
	got, err = client.Recv(packets.KindServerPass)
	if err != nil {
		t.Fatalf("recv pass: %v", err)
	}
	if *got.(*packets.ServerPass) != *pass {
		t.Fatalf("unexpected pass: %+v", got)
	}

	client.Close()
	if _, err := server.Recv(packets.KindClientPacket); !IsClosed(err) {
		t.Fatalf("expected clean close, got %v", err)
	}
}

func TestMessageConnRejectsBadMessages(t *testing.T) {
	testlog.Start(t)
	url, conns := wsServer(t)

	raw, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer raw.Close()
	server := <-conns
	defer server.Close()

	card := []byte{0x00, 0x00, 0x00, 0x03, 0x01}

	raw.WriteMessage(websocket.BinaryMessage, append(card, 0xFF))
	if _, err := server.Recv(packets.KindClientPacket); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}

	raw.WriteMessage(websocket.BinaryMessage, card[:3])
	if _, err := server.Recv(packets.KindClientPacket); !errors.Is(err, protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}

	raw.WriteMessage(websocket.TextMessage, []byte("hello"))
	if _, err := server.Recv(packets.KindClientPacket); !errors.Is(err, ErrMessageType) {
		t.Fatalf("expected ErrMessageType, got %v", err)
	}
}

func TestStreamConnWatch(t *testing.T) {
	testlog.Start(t)
	a, b := pipe(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := b.Watch(ctx); err != nil {
		t.Fatalf("idle watch: %v", err)
	}

	card := packets.NewClientPacket(protocol.Card{Value: 2, Suit: protocol.SuitHearts})
	errCh := sendAsync(a, card)
	if err := b.Watch(context.Background()); err != nil {
		t.Fatalf("watch with data: %v", err)
	}
	got, err := b.Recv(packets.KindClientPacket)
	if err != nil {
		t.Fatalf("recv after watch: %v", err)
	}
	if got.(*packets.ClientPacket).Card != card.Card {
		t.Fatalf("unexpected card: %+v", got)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("send: %v", err)
	}

	a.Close()
	err = b.Watch(context.Background())
	if !IsClosed(err) {
		t.Fatalf("expected clean close, got %v", err)
	}
}

func TestMessageConnWatch(t *testing.T) {
	testlog.Start(t)
	url, conns := wsServer(t)

	client, err := DialWebSocket(context.Background(), url, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	server := <-conns
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := server.Watch(ctx); err != nil {
		t.Fatalf("idle watch: %v", err)
	}

	card := packets.NewClientPacket(protocol.Card{Value: 13, Suit: protocol.SuitDiamonds})
	if err := client.Send(card); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := server.Watch(context.Background()); err != nil {
		t.Fatalf("watch with data: %v", err)
	}
	got, err := server.Recv(packets.KindClientPacket)
	if err != nil {
		t.Fatalf("recv after watch: %v", err)
	}
	if got.(*packets.ClientPacket).Card != card.Card {
		t.Fatalf("unexpected card: %+v", got)
	}

	client.Close()
	if err := server.Watch(context.Background()); !IsClosed(err) {
		t.Fatalf("expected clean close, got %v", err)
	}
	if _, err := server.Recv(packets.KindClientPacket); !IsClosed(err) {
		t.Fatalf("expected close to stick, got %v", err)
	}
}

func TestGatewayOrigins(t *testing.T) {
	testlog.Start(t)

	tests := []struct {
		name    string
		origins []string
		origin  string
		ok      bool
	}{
		{name: "no origin header", origin: "", ok: true},
		{name: "foreign origin default", origin: "http://evil.example", ok: false},
		{name: "listed origin", origins: []string{"https://cards.example"}, origin: "HTTPS://cards.example", ok: true},
		{name: "unlisted origin", origins: []string{"https://cards.example"}, origin: "http://evil.example", ok: false},
		{name: "wildcard", origins: []string{"*"}, origin: "http://anything.example", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, conns := wsServer(t, tt.origins...)
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}

			ws, resp, err := websocket.DefaultDialer.Dial(url, header)
			if !tt.ok {
				if err == nil {
					ws.Close()
					t.Fatalf("expected origin %q to be refused", tt.origin)
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Fatalf("expected 403, got %v", resp)
				}
				return
			}
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			ws.Close()
			(<-conns).Close()
		})
	}
}
