package models

import "errors"

var (
	ErrNoEntity         = errors.New("entity does not exist")
	ErrNilComponent     = errors.New("component is nil")
	ErrAlreadyAttached  = errors.New("component instance is attached to another entity")
	ErrInvalidComponent = errors.New("component has no type")
)
