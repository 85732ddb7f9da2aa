package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Roster packet sent by a client seating several local players at once
type ClientRoster struct {
	Names []string // Player names in the seating order requested by the client
}

func NewClientRoster(names []string) (*ClientRoster, error) {
	if err := validateRoster(names); err != nil {
		return nil, err
	}
	return &ClientRoster{Names: append([]string(nil), names...)}, nil
}

func (p *ClientRoster) Marshal() ([]byte, error) {
	buf := make([]byte, 0, protocol.RosterSize(p.Names))
	return protocol.AppendRoster(buf, p.Names)
}

func decodeClientRoster(src protocol.Source) (*ClientRoster, error) {
	names, err := protocol.ReadRoster(src)
	if err != nil {
		return nil, err
	}
	return &ClientRoster{Names: names}, nil
}

func UnmarshalClientRoster(data []byte) (*ClientRoster, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeClientRoster(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

func ReadClientRoster(r io.Reader) (*ClientRoster, error) {
	return decodeClientRoster(protocol.NewStreamSource(r))
}
