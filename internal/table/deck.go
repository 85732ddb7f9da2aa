package table

import (
	"math/rand"

	"github.com/goodieshq/cardflo/internal/protocol"
)

// NewDeck returns a 52-card deck with values 2 through 14 (ace high).
func NewDeck() []protocol.Card {
	deck := make([]protocol.Card, 0, 52)
	for _, s := range protocol.Suits {
		for v := int32(2); v <= 14; v++ {
			deck = append(deck, protocol.Card{Value: v, Suit: s})
		}
	}
	return deck
}

// ShuffleDeck returns a shuffled copy of the given deck.
func ShuffleDeck(rng *rand.Rand, deck []protocol.Card) []protocol.Card {
	out := make([]protocol.Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
