package client

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type session struct {
	conn   transfer.Conn
	opts   RunOpts
	logger zerolog.Logger
	rng    *rand.Rand
	hands  map[int][]protocol.Card
	result Result
}

// Play runs one game over an established connection. It returns once the
// configured number of rounds has been seen.
func Play(ctx context.Context, conn transfer.Conn, opts RunOpts) (*Result, error) {
	if len(opts.Names) == 0 {
		return nil, ErrNoNames
	}

	// unblock pending reads on cancellation
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s := &session{
		conn:   conn,
		opts:   opts,
		logger: log.With().Str("session_id", conn.ID().String()).Logger(),
		rng:    rand.New(rand.NewSource(opts.GetSeed())),
		hands:  make(map[int][]protocol.Card),
	}

	err := s.run(ctx)
	s.result.Stats = conn.Stats().Snapshot()
	if err != nil {
		if ctx.Err() != nil {
			return &s.result, ctx.Err()
		}
		return &s.result, err
	}
	return &s.result, nil
}

func (s *session) run(ctx context.Context) error {
	if err := s.sendHandshake(); err != nil {
		return err
	}
	if err := s.recvHandshake(); err != nil {
		return err
	}
	if s.opts.GetPassPhase() {
		if err := s.passPhase(); err != nil {
			return err
		}
	}
	return s.playPhase(ctx)
}

func (s *session) sendHandshake() error {
	var pkt protocol.Packet
	var err error

	switch s.opts.GetHandshake() {
	case config.HandshakeRoster:
		pkt, err = packets.NewClientRoster(s.opts.Names)
	default:
		pkt, err = packets.NewClientHello(s.opts.Names[0])
	}
	if err != nil {
		return fmt.Errorf("failed to create handshake packet: %w", err)
	}

	if err := s.conn.Send(pkt); err != nil {
		return fmt.Errorf("failed to send handshake packet: %w", err)
	}
	s.logger.Debug().Str("kind", packets.KindOf(pkt).String()).Msg("Handshake sent")
	return nil
}

func (s *session) recvHandshake() error {
	pkt, err := s.recv(packets.KindServerHandshake)
	if err != nil {
		return fmt.Errorf("failed to receive handshake packet: %w", err)
	}
	hs := pkt.(*packets.ServerHandshake)

	names := s.opts.Names
	if s.opts.GetHandshake() == config.HandshakeHello {
		names = names[:1]
	}
	s.result.Roster = hs.Names
	s.result.Seats = hs.Seats(names...)
	if len(s.result.Seats) == 0 {
		return fmt.Errorf("%w: %v", ErrNotSeated, hs.Names)
	}

	for _, seat := range s.result.Seats {
		s.hands[seat] = table.ShuffleDeck(s.rng, table.NewDeck())
	}
	s.logger.Info().Strs("roster", hs.Names).Ints("seats", s.result.Seats).Msg("Seated at table")
	return nil
}

// passPhase sends a card for every owned seat before reading any pass. The
// server delivers passes in receiving seat order.
func (s *session) passPhase() error {
	for _, seat := range s.result.Seats {
		card := s.draw(seat)
		if err := s.conn.Send(packets.NewClientPacket(card)); err != nil {
			return fmt.Errorf("failed to send pass from seat %d: %w", seat, err)
		}
	}

	n := len(s.result.Roster)
	for _, seat := range s.result.Seats {
		pkt, err := s.recv(packets.KindServerPass)
		if err != nil {
			return fmt.Errorf("failed to receive pass for seat %d: %w", seat, err)
		}
		pass := pkt.(*packets.ServerPass)
		s.result.Passes = append(s.result.Passes, *pass)
		s.hands[seat] = append(s.hands[seat], pass.Card)

		from := ((seat-int(pass.Offset))%n + n) % n
		s.logger.Debug().
			Int("seat", seat).
			Int("from", from).
			Str("card", pass.Card.String()).
			Msg("Card received")
	}
	return nil
}

func (s *session) playPhase(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay := s.opts.GetPlayDelay(); delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	n := len(s.result.Roster)
	for round := 0; round < s.opts.GetRounds(); round++ {
		for turn := 0; turn < n; turn++ {
			if slices.Contains(s.result.Seats, turn) {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				if err := s.conn.Send(packets.NewClientPacket(s.draw(turn))); err != nil {
					return fmt.Errorf("failed to send play from seat %d: %w", turn, err)
				}
			}

			pkt, err := s.recv(packets.KindServerPlay)
			if err != nil {
				return fmt.Errorf("failed to receive play %d of round %d: %w", turn, round, err)
			}
			play := pkt.(*packets.ServerPlay)
			if play.Name != s.result.Roster[turn] {
				s.logger.Warn().
					Str("player", play.Name).
					Str("expected", s.result.Roster[turn]).
					Msg("Play out of turn order")
			}
			s.result.Plays = append(s.result.Plays, *play)
			s.logger.Debug().
				Int("round", round).
				Str("player", play.Name).
				Str("card", play.Card.String()).
				Msg("Card played")
		}
	}

	s.logger.Info().Int("plays", len(s.result.Plays)).Msg("Game complete")
	return nil
}

func (s *session) recv(kind packets.Kind) (protocol.Packet, error) {
	pkt, err := s.conn.Recv(kind)
	if transfer.IsClosed(err) {
		return nil, fmt.Errorf("%w: %w", ErrGameAborted, err)
	}
	return pkt, err
}

// draw takes the top card for seat, reshuffling a fresh deck when it runs out.
func (s *session) draw(seat int) protocol.Card {
	hand := s.hands[seat]
	if len(hand) == 0 {
		hand = table.ShuffleDeck(s.rng, table.NewDeck())
	}
	card := hand[0]
	s.hands[seat] = hand[1:]
	return card
}
