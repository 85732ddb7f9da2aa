package protocol

import (
	"sync/atomic"
	"time"
)

// Stats keeps track of packets and encoded bytes moved over one connection
type Stats struct {
	start     time.Time
	bytesSent atomic.Uint64
	bytesRcvd atomic.Uint64
	pktsSent  atomic.Uint64
	pktsRcvd  atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

func (s *Stats) AddSent(size int) {
	s.pktsSent.Add(1)
	s.bytesSent.Add(uint64(size))
}

func (s *Stats) AddRcvd(size int) {
	s.pktsRcvd.Add(1)
	s.bytesRcvd.Add(uint64(size))
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		PacketsSent: s.pktsSent.Load(),
		PacketsRcvd: s.pktsRcvd.Load(),
		BytesSent:   s.bytesSent.Load(),
		BytesRcvd:   s.bytesRcvd.Load(),
		Duration:    time.Since(s.start),
	}
}

type StatsSnapshot struct {
	PacketsSent uint64
	PacketsRcvd uint64
	BytesSent   uint64
	BytesRcvd   uint64
	Duration    time.Duration
}
