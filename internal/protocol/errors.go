package protocol

import "errors"

var (
	ErrTruncated      = errors.New("truncated packet")
	ErrUnknownSuit    = errors.New("unknown suit")
	ErrStream         = errors.New("stream read failed")
	ErrNameTooLong    = errors.New("name exceeds 255 bytes")
	ErrRosterTooLarge = errors.New("roster exceeds 255 names")
)
