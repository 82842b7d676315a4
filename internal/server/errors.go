package server

import "errors"

// Server-specific errors
var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrMaxClientsReached    = errors.New("maximum clients reached")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrClientClosed         = errors.New("client is closed")
	ErrSlowClient           = errors.New("client send buffer is full")
	ErrWorldStopped         = errors.New("world is not accepting sessions")
)
