package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Pass packet sent by the server to the seat receiving a passed card
type ServerPass struct {
	Card   protocol.Card // Card that was passed
	Offset int32         // Seats between passer and receiver, sign gives direction
}

const ServerPassSize = protocol.CardSize + 4

func NewServerPass(card protocol.Card, offset int32) *ServerPass {
	return &ServerPass{Card: card, Offset: offset}
}

func (p *ServerPass) Marshal() ([]byte, error) {
	buf := make([]byte, 0, ServerPassSize)
	buf = protocol.AppendCard(buf, p.Card)
	return protocol.AppendInt32(buf, p.Offset), nil
}

func decodeServerPass(src protocol.Source) (*ServerPass, error) {
	card, err := protocol.ReadCard(src)
	if err != nil {
		return nil, err
	}
	offset, err := protocol.ReadInt32(src)
	if err != nil {
		return nil, err
	}
	return &ServerPass{Card: card, Offset: offset}, nil
}

func UnmarshalServerPass(data []byte) (*ServerPass, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeServerPass(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

func ReadServerPass(r io.Reader) (*ServerPass, error) {
	return decodeServerPass(protocol.NewStreamSource(r))
}
