package registry

import "errors"

var (
	ErrInvalidDescriptor = errors.New("invalid component descriptor")
	ErrDuplicateType     = errors.New("component type already registered")
	ErrDecode            = errors.New("cannot decode component value")
)
