package models

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/pkg/sequence"
)

type record struct {
	components map[ComponentType]Component
	deleting   bool
}

// Store holds every live entity and its components.
//
// A Store is owned by the simulation goroutine and is not safe for concurrent use.
type Store struct {
	entities map[EntityID]*record
	owners   map[Component]EntityID
	nextID   EntityID
	strict   bool
	logger   log.Log
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStrict makes misuse of dead handles panic instead of logging a warning.
func WithStrict(strict bool) StoreOption {
	return func(s *Store) { s.strict = strict }
}

// WithLogger sets the logger used for misuse warnings.
func WithLogger(l log.Log) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		entities: make(map[EntityID]*record),
		owners:   make(map[Component]EntityID),
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create issues a fresh, empty entity.
func (s *Store) Create() EntityID {
	s.nextID++
	id := s.nextID
	s.entities[id] = &record{components: make(map[ComponentType]Component)}
	return id
}

// Exists reports whether id is live. Deleting entities still count as live until Delete returns.
func (s *Store) Exists(id EntityID) bool {
	_, ok := s.entities[id]
	return ok
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return len(s.entities)
}

// Delete releases every component of id and removes it.
// Contained entities are destroyed recursively through their holders' Release hooks.
func (s *Store) Delete(id EntityID) {
	rec, ok := s.entities[id]
	if !ok {
		s.misuse("delete", id)
		return
	}
	if rec.deleting {
		return
	}
	rec.deleting = true

	for _, t := range sortedTypes(rec.components) {
		c, ok := rec.components[t]
		if !ok {
			continue
		}
		if r, ok := c.(Releaser); ok {
			r.Release(s, id)
		}
	}
	for _, c := range rec.components {
		s.forgetOwner(c)
	}
	delete(s.entities, id)
}

// AddComponent attaches c to id, replacing any component of the same type.
func (s *Store) AddComponent(id EntityID, c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	t := c.Type()
	if t == NoComponentType {
		return fmt.Errorf("%w: %T", ErrInvalidComponent, c)
	}
	rec, ok := s.entities[id]
	if !ok {
		s.misuse("add component", id)
		return fmt.Errorf("add %T to %s: %w", c, id, ErrNoEntity)
	}
	if tracked(c) {
		if owner, attached := s.owners[c]; attached && owner != id {
			return fmt.Errorf("add %T to %s (owned by %s): %w", c, id, owner, ErrAlreadyAttached)
		}
	}
	if prev, ok := rec.components[t]; ok {
		s.forgetOwner(prev)
	}
	rec.components[t] = c
	if tracked(c) {
		s.owners[c] = id
	}
	return nil
}

// RemoveComponent detaches the component of type t from id, if any, and returns it.
func (s *Store) RemoveComponent(id EntityID, t ComponentType) (Component, bool) {
	rec, ok := s.entities[id]
	if !ok {
		s.misuse("remove component", id)
		return nil, false
	}
	c, ok := rec.components[t]
	if !ok {
		return nil, false
	}
	delete(rec.components, t)
	s.forgetOwner(c)
	return c, true
}

// TryComponent returns the component of type t on id. Absence is a normal state.
func (s *Store) TryComponent(id EntityID, t ComponentType) (Component, bool) {
	rec, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	c, ok := rec.components[t]
	return c, ok
}

// HasComponent reports whether id carries a component of type t.
func (s *Store) HasComponent(id EntityID, t ComponentType) bool {
	_, ok := s.TryComponent(id, t)
	return ok
}

// ComponentsOf iterates the components of id in ascending type order.
func (s *Store) ComponentsOf(id EntityID) *sequence.Iterator[Component] {
	rec, ok := s.entities[id]
	if !ok {
		return sequence.From[Component](nil)
	}
	types := sortedTypes(rec.components)
	out := make([]Component, 0, len(types))
	for _, t := range types {
		out = append(out, rec.components[t])
	}
	return sequence.From(out)
}

// Entities iterates live handles in ascending order, which is also creation order.
func (s *Store) Entities() *sequence.Iterator[EntityID] {
	ids := make([]EntityID, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return sequence.From(ids)
}

// With iterates, in ascending order, the entities carrying a component of type t.
func (s *Store) With(t ComponentType) *sequence.Iterator[EntityID] {
	return s.Entities().Filter(func(id EntityID) bool {
		return s.HasComponent(id, t)
	})
}

// Get is the typed form of TryComponent.
func Get[T Component](s *Store, id EntityID) (T, bool) {
	var zero T
	c, ok := s.TryComponent(id, zero.Type())
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	return typed, ok
}

// GetOrAdd returns the component of T's type on id, attaching the result of create when absent.
func GetOrAdd[T Component](s *Store, id EntityID, create func() T) (T, error) {
	if c, ok := Get[T](s, id); ok {
		return c, nil
	}
	c := create()
	if err := s.AddComponent(id, c); err != nil {
		var zero T
		return zero, err
	}
	return c, nil
}

func (s *Store) misuse(op string, id EntityID) {
	if s.strict {
		panic(fmt.Sprintf("models: %s on dead entity %s", op, id))
	}
	s.logger.Warn("operation on dead entity ignored", log.String("op", op), log.Entity(id))
}

func (s *Store) forgetOwner(c Component) {
	if tracked(c) {
		delete(s.owners, c)
	}
}

// tracked reports whether c has pointer identity. Value components cannot be shared, and
// pointers to zero-size markers may all be equal.
func tracked(c Component) bool {
	t := reflect.TypeOf(c)
	return t.Kind() == reflect.Pointer && t.Elem().Size() > 0
}

func sortedTypes(m map[ComponentType]Component) []ComponentType {
	types := make([]ComponentType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
