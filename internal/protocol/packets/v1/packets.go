package packets

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Packet kinds. These never go on the wire; they label packets in logs and metrics.
type Kind uint8

const (
	KindUnknown         Kind = 0
	KindClientPacket    Kind = 1 // Card passed or played by a client
	KindClientHello     Kind = 2 // Single-name client handshake
	KindClientRoster    Kind = 3 // Multi-name client handshake
	KindServerHandshake Kind = 4 // Confirmed roster from the server
	KindServerPlay      Kind = 5 // Played card with player name
	KindServerPass      Kind = 6 // Passed card with seat offset
)

func (k Kind) String() string {
	switch k {
	case KindClientPacket:
		return "CLIENT_PACKET"
	case KindClientHello:
		return "CLIENT_HELLO"
	case KindClientRoster:
		return "CLIENT_ROSTER"
	case KindServerHandshake:
		return "SERVER_HANDSHAKE"
	case KindServerPlay:
		return "SERVER_PLAY"
	case KindServerPass:
		return "SERVER_PASS"
	default:
		return "UNKNOWN"
	}
}

func KindOf(pkt protocol.Packet) Kind {
	switch pkt.(type) {
	case *ClientPacket:
		return KindClientPacket
	case *ClientHello:
		return KindClientHello
	case *ClientRoster:
		return KindClientRoster
	case *ServerHandshake:
		return KindServerHandshake
	case *ServerPlay:
		return KindServerPlay
	case *ServerPass:
		return KindServerPass
	default:
		return KindUnknown
	}
}

// ErrUnknownKind is returned when asked to decode a kind with no layout.
var ErrUnknownKind = errors.New("unknown packet kind")

// Unmarshal decodes one packet of the given kind from the front of data. The
// caller picks the kind; nothing on the wire identifies it.
func Unmarshal(kind Kind, data []byte) (protocol.Packet, int, error) {
	switch kind {
	case KindClientPacket:
		return unmarshalAs(UnmarshalClientPacket, data)
	case KindClientHello:
		return unmarshalAs(UnmarshalClientHello, data)
	case KindClientRoster:
		return unmarshalAs(UnmarshalClientRoster, data)
	case KindServerHandshake:
		return unmarshalAs(UnmarshalServerHandshake, data)
	case KindServerPlay:
		return unmarshalAs(UnmarshalServerPlay, data)
	case KindServerPass:
		return unmarshalAs(UnmarshalServerPass, data)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// Read decodes exactly one packet of the given kind from r.
func Read(kind Kind, r io.Reader) (protocol.Packet, error) {
	switch kind {
	case KindClientPacket:
		return readAs(ReadClientPacket, r)
	case KindClientHello:
		return readAs(ReadClientHello, r)
	case KindClientRoster:
		return readAs(ReadClientRoster, r)
	case KindServerHandshake:
		return readAs(ReadServerHandshake, r)
	case KindServerPlay:
		return readAs(ReadServerPlay, r)
	case KindServerPass:
		return readAs(ReadServerPass, r)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// unmarshalAs and readAs keep a typed nil pointer out of the interface result.
func unmarshalAs[P protocol.Packet](fn func([]byte) (P, int, error), data []byte) (protocol.Packet, int, error) {
	pkt, n, err := fn(data)
	if err != nil {
		return nil, 0, err
	}
	return pkt, n, nil
}

func readAs[P protocol.Packet](fn func(io.Reader) (P, error), r io.Reader) (protocol.Packet, error) {
	pkt, err := fn(r)
	if err != nil {
		return nil, err
	}
	return pkt, nil
}

func validateRoster(names []string) error {
	if len(names) > protocol.MaxRosterLen {
		return protocol.ErrRosterTooLarge
	}
	for _, name := range names {
		if len(name) > protocol.MaxNameLen {
			return fmt.Errorf("%w: %q", protocol.ErrNameTooLong, name[:16]+"...")
		}
	}
	return nil
}

func SendPacket(w *bufio.Writer, pkt protocol.Packet) ([]byte, error) {
	// marshal the packet into bytes
	buf, err := pkt.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal packet: %w", err)
	}

	_, err = w.Write(buf)
	if err != nil {
		return nil, fmt.Errorf("failed to send packet: %w", err)
	}

	err = w.Flush()
	if err != nil {
		return nil, fmt.Errorf("failed to flush packet: %w", err)
	}

	return buf, nil
}
