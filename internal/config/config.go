package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goodieshq/cardflo/internal/protocol"
)

// HandshakeMode selects which client handshake layout is active on the wire.
type HandshakeMode string

const (
	HandshakeHello  HandshakeMode = "hello"  // one name per connection
	HandshakeRoster HandshakeMode = "roster" // a list of names per connection
)

var (
	ErrInvalidHandshake = errors.New("invalid handshake mode")
	ErrInvalidSeats     = errors.New("invalid seat count")
	ErrInvalidRounds    = errors.New("invalid round count")
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrInvalidNames     = errors.New("invalid player names")
	ErrInvalidRate      = errors.New("invalid accept rate")
)

type ServerConfig struct {
	Host        string
	Port        uint16
	WSAddr      string   // empty disables the websocket listener
	WSOrigins   []string // browser origins allowed on the websocket, "*" for any
	MetricsAddr string // empty disables the metrics endpoint
	Seats       int
	Tables      int // games allowed to run at once
	Handshake   HandshakeMode
	PassOffset  int32 // 0 skips the pass phase
	Rounds      int
	Timeout     time.Duration
	AcceptRate  float64 // new connections per second
	AcceptBurst int
}

type ClientConfig struct {
	Host      string
	Port      uint16
	WSURL     string // when set, play over websocket instead of TCP
	Names     []string
	Handshake HandshakeMode
	PassPhase bool // must match the server's pass_offset != 0
	Rounds    int  // must match the server's rounds
	Timeout   time.Duration
	PlayDelay time.Duration
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:        "",
		Port:        4321,
		Seats:       4,
		Tables:      1,
		Handshake:   HandshakeHello,
		PassOffset:  1,
		Rounds:      13,
		Timeout:     30 * time.Second,
		AcceptRate:  5,
		AcceptBurst: 10,
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:      "localhost",
		Port:      4321,
		Names:     []string{"player"},
		Handshake: HandshakeHello,
		PassPhase: true,
		Rounds:    13,
		Timeout:   60 * time.Second,
		PlayDelay: 250 * time.Millisecond,
	}
}

type serverFile struct {
	Host        string  `toml:"host"`
	Port        uint16  `toml:"port"`
	WSAddr      string   `toml:"ws_addr"`
	WSOrigins   []string `toml:"ws_origins"`
	MetricsAddr string   `toml:"metrics_addr"`
	Seats       int      `toml:"seats"`
	Tables      int      `toml:"tables"`
	Handshake   string   `toml:"handshake"`
	PassOffset  int32    `toml:"pass_offset"`
	Rounds      int      `toml:"rounds"`
	Timeout     string   `toml:"timeout"`
	AcceptRate  float64  `toml:"accept_rate"`
	AcceptBurst int      `toml:"accept_burst"`
}

type clientFile struct {
	Host      string   `toml:"host"`
	Port      uint16   `toml:"port"`
	WSURL     string   `toml:"ws_url"`
	Names     []string `toml:"names"`
	Handshake string   `toml:"handshake"`
	PassPhase bool     `toml:"pass_phase"`
	Rounds    int      `toml:"rounds"`
	Timeout   string   `toml:"timeout"`
	PlayDelay string   `toml:"play_delay"`
}

// LoadServerConfig reads a TOML file over the defaults. An empty path returns
// the defaults.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}

	var raw serverFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("load server config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("ws_addr") {
		cfg.WSAddr = strings.TrimSpace(raw.WSAddr)
	}
	if meta.IsDefined("ws_origins") {
		cfg.WSOrigins = nil
		for _, origin := range raw.WSOrigins {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.WSOrigins = append(cfg.WSOrigins, origin)
			}
		}
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("seats") {
		cfg.Seats = raw.Seats
	}
	if meta.IsDefined("tables") {
		cfg.Tables = raw.Tables
	}
	if meta.IsDefined("handshake") {
		cfg.Handshake = HandshakeMode(strings.ToLower(strings.TrimSpace(raw.Handshake)))
	}
	if meta.IsDefined("pass_offset") {
		cfg.PassOffset = raw.PassOffset
	}
	if meta.IsDefined("rounds") {
		cfg.Rounds = raw.Rounds
	}
	if meta.IsDefined("timeout") {
		cfg.Timeout, err = time.ParseDuration(raw.Timeout)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%w: %w", ErrInvalidTimeout, err)
		}
	}
	if meta.IsDefined("accept_rate") {
		cfg.AcceptRate = raw.AcceptRate
	}
	if meta.IsDefined("accept_burst") {
		cfg.AcceptBurst = raw.AcceptBurst
	}

	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if err := validateHandshake(cfg.Handshake); err != nil {
		return err
	}
	if cfg.Seats < 2 || cfg.Seats > protocol.MaxRosterLen {
		return fmt.Errorf("%w: %d (want 2-%d)", ErrInvalidSeats, cfg.Seats, protocol.MaxRosterLen)
	}
	if cfg.Tables < 1 {
		return fmt.Errorf("%w: %d tables", ErrInvalidSeats, cfg.Tables)
	}
	if cfg.Rounds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, cfg.Rounds)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, cfg.Timeout)
	}
	if cfg.AcceptRate <= 0 || cfg.AcceptBurst < 1 {
		return fmt.Errorf("%w: rate=%v burst=%d", ErrInvalidRate, cfg.AcceptRate, cfg.AcceptBurst)
	}
	return nil
}

// LoadClientConfig reads a TOML file over the defaults. An empty path returns
// the defaults.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path == "" {
		return cfg, nil
	}

	var raw clientFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("ws_url") {
		cfg.WSURL = strings.TrimSpace(raw.WSURL)
	}
	if meta.IsDefined("names") {
		cfg.Names = raw.Names
	}
	if meta.IsDefined("handshake") {
		cfg.Handshake = HandshakeMode(strings.ToLower(strings.TrimSpace(raw.Handshake)))
	}
	if meta.IsDefined("pass_phase") {
		cfg.PassPhase = raw.PassPhase
	}
	if meta.IsDefined("rounds") {
		cfg.Rounds = raw.Rounds
	}
	if meta.IsDefined("timeout") {
		cfg.Timeout, err = time.ParseDuration(raw.Timeout)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("%w: %w", ErrInvalidTimeout, err)
		}
	}
	if meta.IsDefined("play_delay") {
		cfg.PlayDelay, err = time.ParseDuration(raw.PlayDelay)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("%w: play_delay: %w", ErrInvalidTimeout, err)
		}
	}

	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if err := validateHandshake(cfg.Handshake); err != nil {
		return err
	}
	if len(cfg.Names) == 0 || len(cfg.Names) > protocol.MaxRosterLen {
		return fmt.Errorf("%w: %d names", ErrInvalidNames, len(cfg.Names))
	}
	if cfg.Handshake == HandshakeHello && len(cfg.Names) != 1 {
		return fmt.Errorf("%w: hello handshake carries exactly one name", ErrInvalidNames)
	}
	for _, name := range cfg.Names {
		if name == "" || len(name) > protocol.MaxNameLen {
			return fmt.Errorf("%w: %q", ErrInvalidNames, name)
		}
	}
	if cfg.Rounds < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRounds, cfg.Rounds)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, cfg.Timeout)
	}
	if cfg.PlayDelay < 0 {
		return fmt.Errorf("%w: play_delay %s", ErrInvalidTimeout, cfg.PlayDelay)
	}
	return nil
}

func validateHandshake(mode HandshakeMode) error {
	switch mode {
	case HandshakeHello, HandshakeRoster:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandshake, mode)
	}
}
