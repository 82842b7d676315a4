package world

import "errors"

var (
	ErrAlreadyRunning = errors.New("world is already running")
	ErrStopped        = errors.New("world has stopped")
	ErrNoStartRoom    = errors.New("start room does not exist")
	ErrUnknownSession = errors.New("unknown session")
)
