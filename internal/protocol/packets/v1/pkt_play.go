package packets

import (
	"io"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// Play packet broadcast by the server when a seat plays a card
type ServerPlay struct {
	Card protocol.Card // Card that was played
	Name string        // Name of the player who played it
}

const ServerPlayMinSize = protocol.CardSize + 1

func NewServerPlay(card protocol.Card, name string) (*ServerPlay, error) {
	if len(name) > protocol.MaxNameLen {
		return nil, protocol.ErrNameTooLong
	}
	return &ServerPlay{Card: card, Name: name}, nil
}

func (p *ServerPlay) Marshal() ([]byte, error) {
	buf := make([]byte, 0, ServerPlayMinSize+len(p.Name))
	buf = protocol.AppendCard(buf, p.Card)
	return protocol.AppendName(buf, p.Name)
}

func decodeServerPlay(src protocol.Source) (*ServerPlay, error) {
	card, err := protocol.ReadCard(src)
	if err != nil {
		return nil, err
	}
	name, err := protocol.ReadName(src)
	if err != nil {
		return nil, err
	}
	return &ServerPlay{Card: card, Name: name}, nil
}

func UnmarshalServerPlay(data []byte) (*ServerPlay, int, error) {
	src := protocol.NewBufferSource(data)
	pkt, err := decodeServerPlay(src)
	if err != nil {
		return nil, 0, err
	}
	return pkt, src.Consumed(), nil
}

func ReadServerPlay(r io.Reader) (*ServerPlay, error) {
	return decodeServerPlay(protocol.NewStreamSource(r))
}
