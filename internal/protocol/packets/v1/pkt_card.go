package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Card packet sent by the client to pass or play one card
type ClientPacket struct {
	Card protocol.Card // Card being passed or played
}

const ClientPacketSize = protocol.CardSize

func NewClientPacket(card protocol.Card) *ClientPacket {
	return &ClientPacket{Card: card}
}

func (p *ClientPacket) Marshal() ([]byte, error) {
	buf := make([]byte, 0, ClientPacketSize)
	return protocol.AppendCard(buf, p.Card), nil
}

func decodeClientPacket(src protocol.Source) (*ClientPacket, error) {
	card, err := protocol.ReadCard(src)
	if err != nil {
		return nil, err
	}
	return &ClientPacket{Card: card}, nil
}

// UnmarshalClientPacket parses a ClientPacket from the front of data and
// returns the number of bytes consumed.
func UnmarshalClientPacket(data []byte) (*ClientPacket, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeClientPacket(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

// ReadClientPacket reads exactly one ClientPacket from r.
func ReadClientPacket(r io.Reader) (*ClientPacket, error) {
	return decodeClientPacket(protocol.NewStreamSource(r))
}
