package client

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/server"
	"github.com/goodieshq/cardflo/internal/testutil/testlog"
	"github.com/goodieshq/cardflo/internal/utils"
)

func startServer(t *testing.T, cfg config.ServerConfig) (string, uint16, *server.Server, context.Context) {
	t.Helper()
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := server.NewServer(cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, uint16(port), srv, ctx
}

func serverConfig(seats int, offset int32, rounds int) config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.Seats = seats
	cfg.PassOffset = offset
	cfg.Rounds = rounds
	cfg.Timeout = 5 * time.Second
	cfg.AcceptRate = 1000
	cfg.AcceptBurst = 100
	return cfg
}

func runClients(t *testing.T, clients []Client, opts []RunOpts) []*Result {
	t.Helper()
	results := make([]*Result, len(clients))
	errs := make([]error, len(clients))

	var wg sync.WaitGroup
	for i := range clients {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = clients[i].Run(context.Background(), opts[i])
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("client %d: %v", i, err)
		}
	}
	return results
}

func TestClientsPlayFullGame(t *testing.T) {
	cfg := serverConfig(3, 1, 4)
	host, port, _, _ := startServer(t, cfg)

	timeout := 5 * time.Second
	var clients []Client
	var opts []RunOpts
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		clients = append(clients, NewClientTCP(host, port, &timeout))
		opts = append(opts, RunOpts{
			Names:  []string{name},
			Rounds: utils.Ptr(cfg.Rounds),
			Seed:   utils.Ptr(int64(i)),
		})
	}

	results := runClients(t, clients, opts)
	for _, res := range results {
		if len(res.Roster) != 3 || len(res.Seats) != 1 {
			t.Fatalf("unexpected seating: %v %v", res.Roster, res.Seats)
		}
		if len(res.Passes) != 1 || res.Passes[0].Offset != cfg.PassOffset {
			t.Fatalf("unexpected passes: %+v", res.Passes)
		}
		if len(res.Plays) != 3*cfg.Rounds {
			t.Fatalf("expected %d plays, got %d", 3*cfg.Rounds, len(res.Plays))
		}
		if !slices.Equal(res.Plays, results[0].Plays) {
			t.Fatalf("clients saw different plays")
		}
		for i, play := range res.Plays {
			if play.Name != res.Roster[i%3] || !play.Card.Suit.Valid() {
				t.Fatalf("play %d out of order: %+v", i, play)
			}
		}
		if res.Stats.PacketsRcvd == 0 || res.Stats.PacketsSent == 0 {
			t.Fatalf("stats not collected: %+v", res.Stats)
		}
	}
}

func TestRosterClientOverWebSocket(t *testing.T) {
	cfg := serverConfig(3, 0, 2)
	cfg.Handshake = config.HandshakeRoster
	host, port, srv, ctx := startServer(t, cfg)

	hs := httptest.NewServer(srv.WSHandler(ctx))
	defer hs.Close()

	timeout := 5 * time.Second
	roster := config.HandshakeRoster
	clients := []Client{
		NewClientWS("ws"+strings.TrimPrefix(hs.URL, "http"), &timeout),
		NewClientTCP(host, port, &timeout),
	}
	opts := []RunOpts{
		{Names: []string{"North", "South"}, Handshake: &roster, PassPhase: utils.Ptr(false), Rounds: utils.Ptr(cfg.Rounds)},
		{Names: []string{"East"}, Handshake: &roster, PassPhase: utils.Ptr(false), Rounds: utils.Ptr(cfg.Rounds)},
	}

	results := runClients(t, clients, opts)
	if len(results[0].Seats) != 2 || len(results[1].Seats) != 1 {
		t.Fatalf("unexpected seat split: %v / %v", results[0].Seats, results[1].Seats)
	}
	if len(results[0].Passes) != 0 {
		t.Fatalf("unexpected passes with pass phase off: %+v", results[0].Passes)
	}
	if !slices.Equal(results[0].Plays, results[1].Plays) || len(results[0].Plays) != 6 {
		t.Fatalf("clients disagree on plays: %d vs %d", len(results[0].Plays), len(results[1].Plays))
	}
}

func TestClientCancel(t *testing.T) {
	cfg := serverConfig(2, 1, 1)
	host, port, _, _ := startServer(t, cfg)

	timeout := 5 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// alone at a two seat table, the handshake never comes
	_, err := NewClientTCP(host, port, &timeout).Run(ctx, RunOpts{Names: []string{"Alice"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunOptsDefaults(t *testing.T) {
	var opts RunOpts
	if opts.GetHandshake() != DEFAULT_HANDSHAKE || opts.GetPassPhase() != DEFAULT_PASS_PHASE {
		t.Fatalf("unexpected handshake defaults")
	}
	if opts.GetRounds() != DEFAULT_ROUNDS || opts.GetPlayDelay() != DEFAULT_PLAY_DELAY {
		t.Fatalf("unexpected play defaults")
	}

	cfg := config.DefaultClientConfig()
	cfg.Rounds = 2
	opts = NewRunOpts(cfg)
	if opts.GetRounds() != 2 || opts.GetPlayDelay() != cfg.PlayDelay || !slices.Equal(opts.Names, cfg.Names) {
		t.Fatalf("config not carried into opts: %+v", opts)
	}
}

func TestPlayRequiresNames(t *testing.T) {
	if _, err := Play(context.Background(), nil, RunOpts{}); !errors.Is(err, ErrNoNames) {
		t.Fatalf("expected ErrNoNames, got %v", err)
	}
}
