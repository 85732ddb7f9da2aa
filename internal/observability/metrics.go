package observability

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/goodieshq/cardflo/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionSent = "sent"
	DirectionRcvd = "rcvd"
)

var (
	registerOnce sync.Once

	packetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardflo",
			Subsystem: "wire",
			Name:      "packets_total",
			Help:      "Packets sent or received, by transport and kind.",
		},
		[]string{"transport", "direction", "kind"},
	)
	bytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardflo",
			Subsystem: "wire",
			Name:      "bytes_total",
			Help:      "Encoded packet bytes sent or received.",
		},
		[]string{"transport", "direction"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardflo",
			Subsystem: "wire",
			Name:      "decode_errors_total",
			Help:      "Packets that failed to decode, by reason.",
		},
		[]string{"transport", "reason"},
	)
	sessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cardflo",
			Subsystem: "server",
			Name:      "sessions",
			Help:      "Connected client sessions.",
		},
		[]string{"transport"},
	)
	gamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardflo",
			Subsystem: "server",
			Name:      "games_total",
			Help:      "Games finished, by result.",
		},
		[]string{"result"},
	)
	gameDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cardflo",
			Subsystem: "server",
			Name:      "game_duration_seconds",
			Help:      "Wall time from handshake broadcast to the last play.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(packetsTotal, bytesTotal, decodeErrors, sessions, gamesTotal, gameDuration)
	})
}

func RecordPacket(transport, direction, kind string, size int) {
	RegisterMetrics()
	packetsTotal.WithLabelValues(transport, direction, kind).Inc()
	bytesTotal.WithLabelValues(transport, direction).Add(float64(size))
}

func RecordDecodeError(transport string, err error) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(transport, DecodeErrorReason(err)).Inc()
}

func SessionOpened(transport string) {
	RegisterMetrics()
	sessions.WithLabelValues(transport).Inc()
}

func SessionClosed(transport string) {
	RegisterMetrics()
	sessions.WithLabelValues(transport).Dec()
}

func RecordGame(result string, duration time.Duration) {
	RegisterMetrics()
	gamesTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		gameDuration.Observe(duration.Seconds())
	}
}

// DecodeErrorReason maps a decode failure onto a bounded label value.
func DecodeErrorReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, protocol.ErrTruncated):
		return "truncated"
	case errors.Is(err, protocol.ErrUnknownSuit):
		return "unknown_suit"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "unexpected_eof"
	case errors.Is(err, io.EOF):
		return "eof"
	case errors.Is(err, protocol.ErrStream):
		return "stream"
	default:
		return "other"
	}
}
