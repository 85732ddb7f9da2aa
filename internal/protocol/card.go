package protocol

import "fmt"

// Suit byte values are frozen for protocol v1. Client and server builds must agree.
type Suit uint8

const (
	SuitClubs    Suit = 1
	SuitDiamonds Suit = 2
	SuitHearts   Suit = 3
	SuitSpades   Suit = 4
)

// Suits lists every defined suit in byte order.
var Suits = [...]Suit{SuitClubs, SuitDiamonds, SuitHearts, SuitSpades}

func (s Suit) Valid() bool {
	switch s {
	case SuitClubs, SuitDiamonds, SuitHearts, SuitSpades:
		return true
	default:
		return false
	}
}

func (s Suit) String() string {
	switch s {
	case SuitClubs:
		return "CLUBS"
	case SuitDiamonds:
		return "DIAMONDS"
	case SuitHearts:
		return "HEARTS"
	case SuitSpades:
		return "SPADES"
	default:
		return "UNKNOWN"
	}
}

func (s Suit) Byte() byte {
	return byte(s)
}

// ParseSuitByte maps a wire byte back to its suit. Bytes outside the table fail
// with ErrUnknownSuit.
func ParseSuitByte(b byte) (Suit, error) {
	s := Suit(b)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: 0x%02x", ErrUnknownSuit, b)
	}
	return s, nil
}

// Card is a value paired with a suit. The codec does not interpret Value.
type Card struct {
	Value int32 // rank or points, owned by game logic
	Suit  Suit
}

const CardSize = 4 + 1

func (c Card) String() string {
	return fmt.Sprintf("%d of %s", c.Value, c.Suit)
}

// AppendCard appends the 5-byte wire form of c to buf.
func AppendCard(buf []byte, c Card) []byte {
	buf = be.AppendUint32(buf, uint32(c.Value))
	return append(buf, c.Suit.Byte())
}

// UnmarshalCard parses a card from the front of data and returns the number of
// bytes consumed.
func UnmarshalCard(data []byte) (Card, int, error) {
	if len(data) < CardSize {
		return Card{}, 0, ErrTruncated
	}

	suit, err := ParseSuitByte(data[4])
	if err != nil {
		return Card{}, 0, err
	}

	return Card{
		Value: int32(be.Uint32(data[0:4])),
		Suit:  suit,
	}, CardSize, nil
}
