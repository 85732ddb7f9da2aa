package protocol

import "encoding/binary"

type Packet interface {
	Marshal() ([]byte, error)
}

// Protocol version. v1 fixes one packet layout per phase, see Phase.
type Version uint8

const (
	Version1 Version = 1
)

// Phase selects which layout is active on the wire. There is no discriminant
// byte, so both ends track the phase themselves.
type Phase uint8

const (
	PhaseLobby Phase = 0 // ClientHello/ClientRoster in, ServerHandshake out
	PhasePass  Phase = 1 // ClientPacket in, ServerPass out
	PhasePlay  Phase = 2 // ClientPacket in, ServerPlay out
	PhaseDone  Phase = 3 // no more packets
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhasePass:
		return "PASS"
	case PhasePlay:
		return "PLAY"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

const (
	MaxNameLen   = 255 // one-byte length prefix
	MaxRosterLen = 255 // one-byte count prefix
)

// all multi-byte integers are big-endian
var be = binary.BigEndian
