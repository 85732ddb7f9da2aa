// Package table tracks seating, phase and turn order for one game. It does no
// I/O and knows nothing about card legality; it only decides who may act next.
package table

import (
	"fmt"

	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/oklog/ulid/v2"
)

type Seat struct {
	Index int
	Name  string
	Owner ulid.ULID // session that joined this seat
}

type Table struct {
	ID         ulid.ULID
	PassOffset int32
	Rounds     int

	seats  []Seat
	size   int
	phase  protocol.Phase
	passed []bool
	turn   int
	played int // cards played in the current round
	round  int
}

func New(id ulid.ULID, size int, passOffset int32, rounds int) *Table {
	return &Table{
		ID:         id,
		PassOffset: passOffset,
		Rounds:     rounds,
		seats:      make([]Seat, 0, size),
		size:       size,
		phase:      protocol.PhaseLobby,
		passed:     make([]bool, size),
	}
}

// Join seats every name for owner in consecutive seats. Either all names are
// seated or none are.
func (t *Table) Join(owner ulid.ULID, names []string) ([]int, error) {
	if t.phase != protocol.PhaseLobby {
		return nil, ErrWrongPhase
	}
	if len(names) == 0 {
		return nil, ErrNoPlayers
	}
	if len(t.seats)+len(names) > t.size {
		return nil, ErrTableFull
	}

	seen := make(map[string]struct{}, len(t.seats)+len(names))
	for _, s := range t.seats {
		seen[s.Name] = struct{}{}
	}
	for _, name := range names {
		if name == "" {
			return nil, ErrEmptyName
		}
		if len(name) > protocol.MaxNameLen {
			return nil, ErrNameTooLong
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}
	}

	idx := make([]int, 0, len(names))
	for _, name := range names {
		seat := Seat{Index: len(t.seats), Name: name, Owner: owner}
		t.seats = append(t.seats, seat)
		idx = append(idx, seat.Index)
	}
	return idx, nil
}

// Leave removes every seat held by owner while the table is still in the lobby.
// Remaining seats are renumbered so roster order stays dense.
func (t *Table) Leave(owner ulid.ULID) int {
	if t.phase != protocol.PhaseLobby {
		return 0
	}
	kept := t.seats[:0]
	removed := 0
	for _, s := range t.seats {
		if s.Owner == owner {
			removed++
			continue
		}
		s.Index = len(kept)
		kept = append(kept, s)
	}
	t.seats = kept
	return removed
}

func (t *Table) Size() int {
	return t.size
}

func (t *Table) Seated() int {
	return len(t.seats)
}

func (t *Table) Ready() bool {
	return len(t.seats) == t.size
}

func (t *Table) Phase() protocol.Phase {
	return t.phase
}

func (t *Table) Seat(i int) (Seat, error) {
	if i < 0 || i >= len(t.seats) {
		return Seat{}, ErrInvalidSeat
	}
	return t.seats[i], nil
}

// Roster returns player names in seat order.
func (t *Table) Roster() []string {
	names := make([]string, len(t.seats))
	for i, s := range t.seats {
		names[i] = s.Name
	}
	return names
}

// Owners returns the distinct sessions at the table in order of first seat.
func (t *Table) Owners() []ulid.ULID {
	var owners []ulid.ULID
	seen := make(map[ulid.ULID]struct{})
	for _, s := range t.seats {
		if _, ok := seen[s.Owner]; ok {
			continue
		}
		seen[s.Owner] = struct{}{}
		owners = append(owners, s.Owner)
	}
	return owners
}

// Start closes the lobby. With a zero pass offset the pass phase is skipped.
func (t *Table) Start() error {
	if t.phase != protocol.PhaseLobby {
		return ErrWrongPhase
	}
	if !t.Ready() {
		return fmt.Errorf("%w: %d of %d seats filled", ErrWrongPhase, len(t.seats), t.size)
	}
	if t.PassOffset == 0 {
		t.startPlay()
		return nil
	}
	t.phase = protocol.PhasePass
	return nil
}

// PassTarget returns the seat receiving a card passed from seat.
func (t *Table) PassTarget(seat int) int {
	n := len(t.seats)
	off := int(t.PassOffset) % n
	return ((seat+off)%n + n) % n
}

// Pass records the card passed by seat and returns the receiving seat. The
// table moves to the play phase once every seat has passed.
func (t *Table) Pass(seat int, card protocol.Card) (int, error) {
	if t.phase != protocol.PhasePass {
		return 0, ErrWrongPhase
	}
	if seat < 0 || seat >= len(t.seats) {
		return 0, ErrInvalidSeat
	}
	if !card.Suit.Valid() {
		return 0, ErrInvalidCard
	}
	if t.passed[seat] {
		return 0, ErrAlreadyPassed
	}
	t.passed[seat] = true

	target := t.PassTarget(seat)
	for _, p := range t.passed {
		if !p {
			return target, nil
		}
	}
	t.startPlay()
	return target, nil
}

func (t *Table) startPlay() {
	t.phase = protocol.PhasePlay
	t.turn = 0
	t.played = 0
	t.round = 0
	if t.Rounds <= 0 {
		t.phase = protocol.PhaseDone
	}
}

// Turn returns the seat expected to play next.
func (t *Table) Turn() int {
	return t.turn
}

// Round returns the zero-based round in progress.
func (t *Table) Round() int {
	return t.round
}

// Play records a card from the seat whose turn it is and advances the turn.
func (t *Table) Play(seat int, card protocol.Card) error {
	if t.phase != protocol.PhasePlay {
		return ErrWrongPhase
	}
	if seat != t.turn {
		return fmt.Errorf("%w: seat %d played, seat %d expected", ErrNotYourTurn, seat, t.turn)
	}
	if !card.Suit.Valid() {
		return ErrInvalidCard
	}

	t.turn = (t.turn + 1) % len(t.seats)
	t.played++
	if t.played == len(t.seats) {
		t.played = 0
		t.round++
		if t.round >= t.Rounds {
			t.phase = protocol.PhaseDone
		}
	}
	return nil
}
