package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/rs/zerolog/log"
)

type ClientTCP struct {
	host    string
	port    uint16
	timeout time.Duration
}

func NewClientTCP(host string, port uint16, timeout *time.Duration) *ClientTCP {
	return &ClientTCP{
		host:    host,
		port:    port,
		timeout: utils.DefaultIfNil(timeout, 3*time.Second),
	}
}

func (c *ClientTCP) Run(ctx context.Context, opts RunOpts) (*Result, error) {
	address := net.JoinHostPort(c.host, strconv.Itoa(int(c.port)))
	conn, err := transfer.DialTCP(ctx, address, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	log.Info().
		Str("session_id", conn.ID().String()).
		Str("remote_addr", conn.RemoteAddr()).
		Msg("Connected to server")
	return Play(ctx, conn, opts)
}
