package models

import "strconv"

// EntityID is an opaque handle into a Store. Handles are never reused, so a stale handle can
// only ever fail an Exists check, never alias a newer entity. Zero is never issued.
type EntityID uint64

// NoEntity is the zero handle.
const NoEntity EntityID = 0

// Valid reports whether id could have been issued by a Store.
func (id EntityID) Valid() bool {
	return id != NoEntity
}

func (id EntityID) String() string {
	return "#" + strconv.FormatUint(uint64(id), 10)
}

// ComponentType is the static tag a component type is dispatched on.
// Tags below FirstExternalComponentType are reserved for the core component set.
type ComponentType uint16

const (
	NoComponentType            ComponentType = 0
	FirstExternalComponentType ComponentType = 1024
)

// Component is a data bundle attached to exactly one entity.
type Component interface {
	Type() ComponentType
}

// Releaser is implemented by components that hold or are held by other entities.
// Store.Delete calls Release on every attached component before the entity disappears,
// so containment links are cleared (and contained entities destroyed) first.
type Releaser interface {
	Release(s *Store, owner EntityID)
}
