package modules

import "errors"

var (
	ErrDuplicateModule  = errors.New("module already registered")
	ErrUnknownModule    = errors.New("unknown module")
	ErrUnknownPrototype = errors.New("unknown prototype")
	ErrBadExit          = errors.New("malformed exit")
)
