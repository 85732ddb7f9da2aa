package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goodieshq/cardflo/internal/observability"
	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/table"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type game struct {
	table    *table.Table
	conns    map[ulid.ULID]transfer.Conn
	watchers map[ulid.ULID]*watcher // guarded by the lobby
	done     chan struct{}
	once     sync.Once
}

func newGame(t *table.Table) *game {
	return &game{
		table:    t,
		conns:    make(map[ulid.ULID]transfer.Conn),
		watchers: make(map[ulid.ULID]*watcher),
		done:     make(chan struct{}),
	}
}

// run drives a full table from handshake to the last play, then closes every
// session at the table.
func (g *game) run(ctx context.Context) {
	defer close(g.done)

	logger := log.With().Str("table_id", g.table.ID.String()).Logger()
	stop := context.AfterFunc(ctx, g.closeAll)
	defer stop()

	start := time.Now()
	err := g.play(logger)
	g.closeAll()

	if err != nil {
		observability.RecordGame("aborted", time.Since(start))
		logger.Error().Err(err).Str("phase", g.table.Phase().String()).Msg("Game aborted")
		return
	}
	observability.RecordGame("complete", time.Since(start))
	logger.Info().
		Int("rounds", g.table.Rounds).
		Str("duration", utils.DisplayDuration(time.Since(start))).
		Msg("Game complete")
}

func (g *game) closeAll() {
	g.once.Do(func() {
		for _, conn := range g.conns {
			_ = conn.Close()
		}
	})
}

func (g *game) play(logger zerolog.Logger) error {
	if err := g.table.Start(); err != nil {
		return fmt.Errorf("failed to start table: %w", err)
	}

	roster := g.table.Roster()
	pktHandshake, err := packets.NewServerHandshake(roster)
	if err != nil {
		return fmt.Errorf("failed to create handshake packet: %w", err)
	}
	if err := g.broadcast(pktHandshake); err != nil {
		return err
	}
	logger.Info().Strs("roster", roster).Msg("Handshake broadcast")

	if g.table.Phase() == protocol.PhasePass {
		if err := g.passPhase(logger); err != nil {
			return err
		}
	}

	for g.table.Phase() == protocol.PhasePlay {
		if err := g.playTurn(logger); err != nil {
			return err
		}
	}
	return nil
}

// passPhase collects one card from every seat in seat order, then delivers the
// passes in receiving seat order so a client holding several seats can match
// each ServerPass to its seat.
func (g *game) passPhase(logger zerolog.Logger) error {
	received := make([]protocol.Card, g.table.Size())

	for seat := 0; seat < g.table.Size(); seat++ {
		card, err := g.recvCard(seat)
		if err != nil {
			return fmt.Errorf("%w: pass from seat %d: %w", ErrGameAborted, seat, err)
		}
		target, err := g.table.Pass(seat, card)
		if err != nil {
			return fmt.Errorf("%w: pass from seat %d: %w", ErrGameAborted, seat, err)
		}
		received[target] = card
		logger.Debug().Int("seat", seat).Int("target", target).Msg("Card passed")
	}

	for seat, card := range received {
		conn, err := g.connFor(seat)
		if err != nil {
			return err
		}
		if err := conn.Send(packets.NewServerPass(card, g.table.PassOffset)); err != nil {
			return fmt.Errorf("%w: pass to seat %d: %w", ErrGameAborted, seat, err)
		}
	}
	return nil
}

func (g *game) playTurn(logger zerolog.Logger) error {
	seat := g.table.Turn()
	round := g.table.Round()

	card, err := g.recvCard(seat)
	if err != nil {
		return fmt.Errorf("%w: play from seat %d: %w", ErrGameAborted, seat, err)
	}
	if err := g.table.Play(seat, card); err != nil {
		return fmt.Errorf("%w: play from seat %d: %w", ErrGameAborted, seat, err)
	}

	s, err := g.table.Seat(seat)
	if err != nil {
		return err
	}
	pktPlay, err := packets.NewServerPlay(card, s.Name)
	if err != nil {
		return fmt.Errorf("failed to create play packet: %w", err)
	}
	if err := g.broadcast(pktPlay); err != nil {
		return err
	}

	logger.Debug().
		Int("round", round).
		Int("seat", seat).
		Str("player", s.Name).
		Str("card", card.String()).
		Msg("Card played")
	return nil
}

func (g *game) connFor(seat int) (transfer.Conn, error) {
	s, err := g.table.Seat(seat)
	if err != nil {
		return nil, err
	}
	conn, ok := g.conns[s.Owner]
	if !ok {
		return nil, fmt.Errorf("%w: seat %d", ErrUnknownOwner, seat)
	}
	return conn, nil
}

func (g *game) recvCard(seat int) (protocol.Card, error) {
	conn, err := g.connFor(seat)
	if err != nil {
		return protocol.Card{}, err
	}
	pkt, err := conn.Recv(packets.KindClientPacket)
	if err != nil {
		return protocol.Card{}, err
	}
	return pkt.(*packets.ClientPacket).Card, nil
}

// broadcast sends pkt once to every session at the table, in seat order.
func (g *game) broadcast(pkt protocol.Packet) error {
	for _, owner := range g.table.Owners() {
		conn, ok := g.conns[owner]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownOwner, owner)
		}
		if err := conn.Send(pkt); err != nil {
			return fmt.Errorf("%w: send %s to %s: %w", ErrGameAborted, packets.KindOf(pkt), owner, err)
		}
	}
	return nil
}
