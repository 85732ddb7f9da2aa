package server

import "errors"

var (
	ErrServerBusy   = errors.New("server is busy: max concurrent sessions reached")
	ErrRateLimited  = errors.New("connection rate limit exceeded")
	ErrGameAborted  = errors.New("game aborted")
	ErrUnknownOwner = errors.New("seat owner has no session")
)
