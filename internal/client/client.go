package client

import (
	"context"
	"errors"
	"time"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/utils"
)

const (
	DEFAULT_HANDSHAKE  = config.HandshakeHello
	DEFAULT_PASS_PHASE = true
	DEFAULT_ROUNDS     = 13
	DEFAULT_PLAY_DELAY = 0
)

var (
	ErrNoNames     = errors.New("no player names given")
	ErrNotSeated   = errors.New("none of our names are in the server roster")
	ErrGameAborted = errors.New("server closed the game early")
)

type RunOpts struct {
	Names     []string
	Handshake *config.HandshakeMode
	PassPhase *bool
	Rounds    *int
	PlayDelay *time.Duration
	Seed      *int64 // deck shuffle seed, random when nil
}

func NewRunOpts(cfg config.ClientConfig) RunOpts {
	return RunOpts{
		Names:     cfg.Names,
		Handshake: utils.Ptr(cfg.Handshake),
		PassPhase: utils.Ptr(cfg.PassPhase),
		Rounds:    utils.Ptr(cfg.Rounds),
		PlayDelay: utils.Ptr(cfg.PlayDelay),
	}
}

func (r RunOpts) GetHandshake() config.HandshakeMode {
	return utils.DefaultIfNil(r.Handshake, DEFAULT_HANDSHAKE)
}

func (r RunOpts) GetPassPhase() bool {
	return utils.DefaultIfNil(r.PassPhase, DEFAULT_PASS_PHASE)
}

func (r RunOpts) GetRounds() int {
	return utils.DefaultIfNil(r.Rounds, DEFAULT_ROUNDS)
}

func (r RunOpts) GetPlayDelay() time.Duration {
	return utils.DefaultIfNil(r.PlayDelay, DEFAULT_PLAY_DELAY)
}

func (r RunOpts) GetSeed() int64 {
	return utils.DefaultIfNil(r.Seed, time.Now().UnixNano())
}

// Result is what one session saw of its game.
type Result struct {
	Roster []string
	Seats  []int                // seats we own, in seat order
	Passes []packets.ServerPass // one per owned seat, in seat order
	Plays  []packets.ServerPlay // every play at the table, in turn order
	Stats  protocol.StatsSnapshot
}

type Client interface {
	Run(ctx context.Context, opts RunOpts) (*Result, error)
}
