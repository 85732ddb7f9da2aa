package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// WSHandler upgrades each request to a websocket session that joins the same
// lobby as TCP sessions.
func (s *Server) WSHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, ErrRateLimited.Error(), http.StatusTooManyRequests)
			return
		}

		conn, err := s.gateway.Upgrade(w, r)
		if err != nil {
			log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Websocket upgrade failed")
			return
		}

		// the session outlives the request, so it is tracked like a TCP session
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.serveSession(ctx, conn); err != nil {
				log.Error().Err(err).Str("session_id", conn.ID().String()).Msg("Session handler error")
			}
		}()
	})
}

// ServeWS serves the websocket gateway on listener until ctx is done.
func (s *Server) ServeWS(ctx context.Context, listener net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/play", s.WSHandler(ctx))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: s.cfg.Timeout,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", listener.Addr().String()).Msg("Accepting websocket sessions on /play")
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
