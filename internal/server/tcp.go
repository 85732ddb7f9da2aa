package server

import (
	"context"
	"net"

	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/rs/zerolog/log"
)

// Serve accepts TCP sessions on listener until ctx is done, then waits for
// running sessions and games to finish.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()
	go func() {
		// Shutdown server listener on context cancellation
		<-ctx.Done()
		listener.Close()
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("Accepting TCP sessions")
	defer s.wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil // server is shutting down
			}
			log.Error().Err(err).Msg("Failed to accept connection")
			continue
		}

		remote := conn.RemoteAddr().String()
		if !s.limiter.Allow() {
			log.Warn().Str("remote_addr", remote).Err(ErrRateLimited).Msg("Dropping connection")
			conn.Close()
			continue
		}

		id, err := utils.NewULID()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate session id")
			conn.Close()
			continue
		}
		log.Debug().Str("remote_addr", remote).Str("session_id", id.String()).Msg("Accepted new connection")

		sc := transfer.NewStreamConn(id, conn, s.cfg.Timeout)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.serveSession(ctx, sc); err != nil {
				log.Error().Err(err).Str("session_id", id.String()).Msg("Session handler error")
			}
		}()
	}
}
