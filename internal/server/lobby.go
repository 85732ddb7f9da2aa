package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodieshq/cardflo/internal/config"
	"github.com/goodieshq/cardflo/internal/protocol/transfer"
	"github.com/goodieshq/cardflo/internal/table"
	"github.com/goodieshq/cardflo/internal/utils"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// lobby fills one table at a time. A full table is handed to its game and the
// next joiner opens a fresh one.
type lobby struct {
	cfg     config.ServerConfig
	mu      sync.Mutex
	current *game
}

// seating is the outcome of a join.
type seating struct {
	game  *game
	seats []int
	// ready is set for the join that filled the table. That caller runs the
	// game once the watchers are stopped.
	ready    bool
	watchers []*watcher
	// left is closed if the session hangs up while the table is filling.
	left <-chan struct{}
}

// watcher notices a waiting session hanging up before its table fills.
type watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func stopWatchers(ws []*watcher) {
	for _, w := range ws {
		w.cancel()
	}
	for _, w := range ws {
		<-w.done
	}
}

func newLobby(cfg config.ServerConfig) *lobby {
	return &lobby{cfg: cfg}
}

// join seats names for conn. A session that does not fill the table is
// watched until it does.
func (l *lobby) join(conn transfer.Conn, names []string) (*seating, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		id, err := utils.NewULID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate table id: %w", err)
		}
		l.current = newGame(table.New(id, l.cfg.Seats, l.cfg.PassOffset, l.cfg.Rounds))
	}

	g := l.current
	seats, err := g.table.Join(conn.ID(), names)
	if err != nil {
		return nil, err
	}
	g.conns[conn.ID()] = conn

	st := &seating{game: g, seats: seats}
	if g.table.Ready() {
		st.ready = true
		for id, w := range g.watchers {
			st.watchers = append(st.watchers, w)
			delete(g.watchers, id)
		}
		l.current = nil
		return st, nil
	}

	st.left = l.watch(g, conn)
	return st, nil
}

// watch must be called with l.mu held.
func (l *lobby) watch(g *game, conn transfer.Conn) <-chan struct{} {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{cancel: cancel, done: make(chan struct{})}
	g.watchers[conn.ID()] = w

	left := make(chan struct{})
	go func() {
		defer close(w.done)
		err := conn.Watch(ctx)
		if err == nil {
			return
		}
		if n := l.leave(g, conn.ID()); n > 0 {
			log.Debug().Err(err).Str("session_id", conn.ID().String()).Int("seats", n).Msg("Waiting session hung up")
			close(left)
		}
	}()
	return left
}

// leave drops owner's seats if g is still filling. It returns the number of
// seats given up.
func (l *lobby) leave(g *game, owner ulid.ULID) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current != g {
		return 0
	}
	if w, ok := g.watchers[owner]; ok {
		w.cancel()
		delete(g.watchers, owner)
	}
	delete(g.conns, owner)
	return g.table.Leave(owner)
}
