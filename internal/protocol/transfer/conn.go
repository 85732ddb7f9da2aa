package transfer

import (
	"context"
	"errors"
	"io"

	"github.com/goodieshq/cardflo/internal/observability"
	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/oklog/ulid/v2"
)

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"
)

var (
	ErrTrailingData = errors.New("trailing data after packet")
	ErrMessageType  = errors.New("unexpected websocket message type")
)

// Conn moves whole packets. The reader names the kind it expects since the
// wire carries no discriminant.
type Conn interface {
	ID() ulid.ULID
	Transport() string
	RemoteAddr() string
	Recv(kind packets.Kind) (protocol.Packet, error)
	Send(pkt protocol.Packet) error
	Stats() *protocol.Stats
	Close() error

	// Watch blocks until the peer hangs up, sends data, or ctx is done. It
	// consumes nothing and returns an error only when the peer is gone. It
	// must not run alongside Recv.
	Watch(ctx context.Context) error
}

// IsClosed reports whether err is a clean close at a packet boundary.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF)
}

func recordRecv(transport string, stats *protocol.Stats, kind packets.Kind, size int, err error) {
	if err != nil {
		if !IsClosed(err) {
			observability.RecordDecodeError(transport, err)
		}
		return
	}
	stats.AddRcvd(size)
	observability.RecordPacket(transport, observability.DirectionRcvd, kind.String(), size)
}

func recordSent(transport string, stats *protocol.Stats, pkt protocol.Packet, size int) {
	stats.AddSent(size)
	observability.RecordPacket(transport, observability.DirectionSent, packets.KindOf(pkt).String(), size)
}
