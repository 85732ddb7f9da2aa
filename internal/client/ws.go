package client

import (
	"context"
	"fmt"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/rs/zerolog/log"
)

type ClientWS struct {
	url     string
	timeout time.Duration
}

func NewClientWS(url string, timeout *time.Duration) *ClientWS {
	return &ClientWS{
		url:     url,
		timeout: utils.DefaultIfNil(timeout, 3*time.Second),
	}
}

func (c *ClientWS) Run(ctx context.Context, opts RunOpts) (*Result, error) {
	conn, err := transfer.DialWebSocket(ctx, c.url, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	log.Info().
		Str("session_id", conn.ID().String()).
		Str("url", c.url).
		Msg("Connected to server")
	return Play(ctx, conn, opts)
}
