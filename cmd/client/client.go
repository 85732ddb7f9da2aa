package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/goodieshq/cardflo/internal/client"
	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/logging"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/rs/zerolog/log"
)

func init() {
	logging.ConfigureRuntime()
}

func main() {
	configPath := flag.String("config", "", "path to a TOML client config")
	flag.Parse()

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cli client.Client
	if cfg.WSURL != "" {
		cli = client.NewClientWS(cfg.WSURL, utils.Ptr(cfg.Timeout))
	} else {
		cli = client.NewClientTCP(cfg.Host, cfg.Port, utils.Ptr(cfg.Timeout))
	}

	res, err := cli.Run(ctx, client.NewRunOpts(cfg))
	if err != nil {
		log.Error().Err(err).Msg("Client error")
		os.Exit(1)
	}

	log.Info().
		Strs("roster", res.Roster).
		Ints("seats", res.Seats).
		Int("plays", len(res.Plays)).
		Str("total_sent", utils.DisplayB(res.Stats.BytesSent)).
		Str("total_rcvd", utils.DisplayB(res.Stats.BytesRcvd)).
		Msg("Game finished")
}
