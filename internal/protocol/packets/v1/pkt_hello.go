package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Hello packet sent by a client joining as a single named player
type ClientHello struct {
	Name string // Display name, at most 255 bytes
}

func NewClientHello(name string) (*ClientHello, error) {
	if len(name) > protocol.MaxNameLen {
		return nil, protocol.ErrNameTooLong
	}
	return &ClientHello{Name: name}, nil
}

func (p *ClientHello) Marshal() ([]byte, error) {
	buf := make([]byte, 0, 1+len(p.Name))
	return protocol.AppendName(buf, p.Name)
}

func decodeClientHello(src protocol.Source) (*ClientHello, error) {
	name, err := protocol.ReadName(src)
	if err != nil {
		return nil, err
	}
	return &ClientHello{Name: name}, nil
}

func UnmarshalClientHello(data []byte) (*ClientHello, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeClientHello(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

func ReadClientHello(r io.Reader) (*ClientHello, error) {
	return decodeClientHello(protocol.NewStreamSource(r))
}
