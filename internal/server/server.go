package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/observability"
	"github.com/goodieshq/cardflo/internal/protocol/packets/v1"
	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Server struct {
	cfg     config.ServerConfig
	limiter *rate.Limiter
	slots   chan struct{}
	lobby   *lobby
	gateway *transfer.Gateway
	wg      sync.WaitGroup
}

func NewServer(cfg config.ServerConfig) *Server {
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Tables <= 0 {
		cfg.Tables = 1
	}

	// one session per seat is the most a table can use
	maxSessions := cfg.Tables * cfg.Seats
	slots := make(chan struct{}, maxSessions)
	for i := 0; i < maxSessions; i++ {
		slots <- struct{}{}
	}

	return &Server{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.AcceptRate), cfg.AcceptBurst),
		slots:   slots,
		lobby:   newLobby(cfg),
		gateway: transfer.NewGateway(cfg.WSOrigins, cfg.Timeout),
	}
}

func (s *Server) slotAcquire() bool {
	select {
	case <-s.slots:
		return true
	default:
		return false
	}
}

func (s *Server) slotRelease() {
	s.slots <- struct{}{}
}

// Run starts the optional metrics and websocket listeners, then serves TCP
// until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.MetricsAddr != "" {
		go func() {
			if err := observability.Serve(ctx, s.cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics endpoint failed")
			}
		}()
	}

	if s.cfg.WSAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.WSAddr)
		if err != nil {
			return fmt.Errorf("failed to start websocket listener: %w", err)
		}
		go func() {
			if err := s.ServeWS(ctx, ln); err != nil {
				log.Error().Err(err).Msg("Websocket listener failed")
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.Serve(ctx, listener)
}

// serveSession owns conn from handshake until its game ends.
func (s *Server) serveSession(ctx context.Context, conn transfer.Conn) error {
	defer conn.Close()

	observability.SessionOpened(conn.Transport())
	defer observability.SessionClosed(conn.Transport())

	logger := log.With().
		Str("session_id", conn.ID().String()).
		Str("remote_addr", conn.RemoteAddr()).
		Str("transport", conn.Transport()).
		Logger()

	if !s.slotAcquire() {
		return ErrServerBusy
	}
	defer s.slotRelease()

	names, err := s.recvHandshake(conn)
	if err != nil {
		return fmt.Errorf("failed to read handshake: %w", err)
	}

	st, err := s.lobby.join(conn, names)
	if err != nil {
		return fmt.Errorf("failed to join table: %w", err)
	}
	g := st.game
	logger.Info().
		Str("table_id", g.table.ID.String()).
		Strs("players", names).
		Ints("seats", st.seats).
		Msg("Session joined table")

	if st.ready {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			stopWatchers(st.watchers)
			g.run(ctx)
		}()
	}

	select {
	case <-g.done:
	case <-st.left:
		logger.Info().Str("table_id", g.table.ID.String()).Msg("Session left lobby")
		return nil
	case <-ctx.Done():
		if n := s.lobby.leave(g, conn.ID()); n > 0 {
			logger.Info().Int("seats", n).Msg("Session left lobby")
		}
		return nil
	}

	snap := conn.Stats().Snapshot()
	logger.Info().
		Str("table_id", g.table.ID.String()).
		Str("duration", utils.DisplayDuration(snap.Duration)).
		Uint64("pkts_sent", snap.PacketsSent).
		Uint64("pkts_rcvd", snap.PacketsRcvd).
		Str("total_sent", utils.DisplayB(snap.BytesSent)).
		Str("total_rcvd", utils.DisplayB(snap.BytesRcvd)).
		Msg("Session complete")
	return nil
}

// recvHandshake reads the client handshake in the form the server is set up for
func (s *Server) recvHandshake(conn transfer.Conn) ([]string, error) {
	switch s.cfg.Handshake {
	case config.HandshakeRoster:
		pkt, err := conn.Recv(packets.KindClientRoster)
		if err != nil {
			return nil, err
		}
		return pkt.(*packets.ClientRoster).Names, nil
	default:
		pkt, err := conn.Recv(packets.KindClientHello)
		if err != nil {
			return nil, err
		}
		return []string{pkt.(*packets.ClientHello).Name}, nil
	}
}
