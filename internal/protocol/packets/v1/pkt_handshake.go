package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Handshake packet broadcast by the server once the table is full. Roster order
// is seat order and therefore turn order.
type ServerHandshake struct {
	Names []string // Confirmed roster, seat 0 first
}

func NewServerHandshake(names []string) (*ServerHandshake, error) {
	if err := validateRoster(names); err != nil {
		return nil, err
	}
	return &ServerHandshake{Names: append([]string(nil), names...)}, nil
}

func (p *ServerHandshake) Marshal() ([]byte, error) {
	buf := make([]byte, 0, protocol.RosterSize(p.Names))
	return protocol.AppendRoster(buf, p.Names)
}

func decodeServerHandshake(src protocol.Source) (*ServerHandshake, error) {
	names, err := protocol.ReadRoster(src)
	if err != nil {
		return nil, err
	}
	return &ServerHandshake{Names: names}, nil
}

func UnmarshalServerHandshake(data []byte) (*ServerHandshake, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeServerHandshake(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

func ReadServerHandshake(r io.Reader) (*ServerHandshake, error) {
	return decodeServerHandshake(protocol.NewStreamSource(r))
}

// Seats returns the roster positions held by name, in seat order.
func (p *ServerHandshake) Seats(names ...string) []int {
	var seats []int
	for i, n := range p.Names {
		for _, want := range names {
			if n == want {
				seats = append(seats, i)
				break
			}
		}
	}
	return seats
}
