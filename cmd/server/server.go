package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/logging"
	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/goodieshq/cardflo/internal/server"
	"github.com/rs/zerolog/log"
)

func init() {
	logging.ConfigureRuntime()
}

func main() {
	configPath := flag.String("config", "", "path to a TOML server config")
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.NewServer(cfg)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		log.Info().
			Uint8("protocol", uint8(protocol.Version1)).
			Uint16("port", cfg.Port).
			Int("seats", cfg.Seats).
			Str("handshake", string(cfg.Handshake)).
			Int32("pass_offset", cfg.PassOffset).
			Int("rounds", cfg.Rounds).
			Msg("Starting CardFlo server")
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("CardFlo server failed")
		} else {
			log.Info().Msg("CardFlo server stopped")
		}
	}()

	<-ctx.Done()
	wg.Wait()
}
