package table

import "errors"

var (
	ErrTableFull     = errors.New("table is full")
	ErrDuplicateName = errors.New("name already seated")
	ErrEmptyName     = errors.New("empty player name")
	ErrNameTooLong   = errors.New("player name exceeds 255 bytes")
	ErrNoPlayers     = errors.New("no players to seat")
	ErrWrongPhase    = errors.New("action not allowed in current phase")
	ErrNotYourTurn   = errors.New("not this seat's turn")
	ErrAlreadyPassed = errors.New("seat already passed a card")
	ErrInvalidSeat   = errors.New("invalid seat")
	ErrInvalidCard   = errors.New("invalid card")
)
