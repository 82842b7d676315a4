package storage

import "errors"

var (
	ErrNotFound          = errors.New("collection not found")
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrUnknownDriver     = errors.New("unknown storage driver")
	ErrClosed            = errors.New("storage is closed")
)
