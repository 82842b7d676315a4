package serializer

import "errors"

var (
	// ErrIntegrity marks an entity rejected by a meta-type validator.
	ErrIntegrity  = errors.New("entity failed integrity check")
	// ErrNoIdentity is returned when global registration is requested for an entity without identity.
	ErrNoIdentity = errors.New("entity has no identity component")
	ErrNoIndexer  = errors.New("no indexer configured")
)
