package serializer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// Indexer receives entities deserialized with register=true.
// Implementations return ErrNoIdentity when the entity carries no identity component.
type Indexer interface {
	IndexEntity(store *models.Store, id models.EntityID) error
}

// IndexerFunc adapts a function to Indexer.
type IndexerFunc func(store *models.Store, id models.EntityID) error

func (f IndexerFunc) IndexEntity(store *models.Store, id models.EntityID) error {
	return f(store, id)
}

// MetaTyper is implemented by components that add meta types from their data
// (the MetaTypes component) on top of the ones their descriptor declares.
type MetaTyper interface {
	MetaTypes() []string
}

var _ registry.Env = (*Serializer)(nil)

// Serializer converts entities to and from registry.Records.
type Serializer struct {
	store   *models.Store
	table   *registry.Registry
	indexer Indexer
	logger  log.Log
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithIndexer sets the target for register=true loads.
func WithIndexer(ix Indexer) Option {
	return func(s *Serializer) { s.indexer = ix }
}

// WithLogger sets the logger.
func WithLogger(l log.Log) Option {
	return func(s *Serializer) { s.logger = l }
}

// New creates a serializer over store using the component table.
func New(store *models.Store, table *registry.Registry, opts ...Option) *Serializer {
	s := &Serializer{store: store, table: table, logger: log.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIndexer sets the index target after construction; the module registry needs the
// serializer to exist before it can be built.
func (s *Serializer) SetIndexer(ix Indexer) {
	s.indexer = ix
}

func (s *Serializer) Store() *models.Store {
	return s.store
}

func (s *Serializer) Registry() *registry.Registry {
	return s.table
}

// Export writes every saveable component of id under its export name.
func (s *Serializer) Export(id models.EntityID) (registry.Record, error) {
	if !s.store.Exists(id) {
		return nil, fmt.Errorf("export %s: %w", id, models.ErrNoEntity)
	}
	rec := make(registry.Record)
	for c := range s.store.ComponentsOf(id).Seq() {
		p, ok := c.(registry.Persistent)
		if !ok || !p.ShouldSave(s) {
			continue
		}
		value, err := p.Export(s)
		if err != nil {
			return nil, fmt.Errorf("export %s of %s: %w", p.ExportName(), id, err)
		}
		rec[p.ExportName()] = value
	}
	return rec, nil
}

// ExportEntity implements registry.Env.
func (s *Serializer) ExportEntity(id models.EntityID) (registry.Record, error) {
	return s.Export(id)
}

// ImportEntity implements registry.Env. A failed import is logged and leaves no entity behind.
func (s *Serializer) ImportEntity(rec registry.Record, register bool) (models.EntityID, error) {
	id, err := s.Deserialize(rec, register)
	if err != nil {
		if id != models.NoEntity && s.store.Exists(id) {
			s.store.Delete(id)
		}
		s.logger.Warn("nested entity skipped", log.Error(err))
		return models.NoEntity, err
	}
	return id, nil
}

// Deserialize builds a new entity from rec.
//
// Components are decoded in registry order, AfterLoad hooks run once all of them are attached,
// then meta-type validators run. A rejected entity is deleted and ErrIntegrity returned.
// With register set, the entity is indexed; a missing identity yields ErrNoIdentity together
// with the (still live) entity handle. Any other indexing failure deletes the entity.
func (s *Serializer) Deserialize(rec registry.Record, register bool) (models.EntityID, error) {
	id := s.store.Create()

	for _, d := range s.table.Descriptors() {
		if !d.Persistent() {
			continue
		}
		raw, ok := rec[d.ExportName]
		if !ok {
			continue
		}
		c, err := d.Decode(raw, id, s)
		if err != nil {
			s.store.Delete(id)
			return models.NoEntity, fmt.Errorf("decode %s: %w", d.ExportName, err)
		}
		if c == nil {
			continue
		}
		if err := s.store.AddComponent(id, c); err != nil {
			s.store.Delete(id)
			return models.NoEntity, fmt.Errorf("attach %s: %w", d.ExportName, err)
		}
	}

	for c := range s.store.ComponentsOf(id).Seq() {
		if hook, ok := c.(registry.AfterLoader); ok {
			if err := hook.AfterLoad(s, id); err != nil {
				s.store.Delete(id)
				return models.NoEntity, fmt.Errorf("after load %T: %w", c, err)
			}
		}
	}

	if err := s.CheckIntegrity(id); err != nil {
		s.logger.Warn("entity rejected on load", log.Entity(id), log.Error(err))
		s.store.Delete(id)
		return models.NoEntity, err
	}

	if register {
		if s.indexer == nil {
			s.store.Delete(id)
			return models.NoEntity, fmt.Errorf("register %s: %w", id, ErrNoIndexer)
		}
		if err := s.indexer.IndexEntity(s.store, id); err != nil {
			if errors.Is(err, ErrNoIdentity) {
				return id, fmt.Errorf("register %s: %w", id, err)
			}
			s.store.Delete(id)
			return models.NoEntity, fmt.Errorf("register %s: %w", id, err)
		}
	}
	return id, nil
}

// DeserializeAll loads a batch. Entities that fail are logged and skipped; the batch never fails
// as a whole.
func (s *Serializer) DeserializeAll(recs []registry.Record, register bool) []models.EntityID {
	out := make([]models.EntityID, 0, len(recs))
	for i, rec := range recs {
		id, err := s.Deserialize(rec, register)
		if err != nil {
			s.logger.Error("skipping entity in batch load", log.Int("index", i), log.Error(err))
			if errors.Is(err, ErrNoIdentity) && s.store.Exists(id) {
				out = append(out, id)
			}
			continue
		}
		out = append(out, id)
	}
	return out
}

// MetaTypes collects the meta types of id from component descriptors and MetaTyper components.
func (s *Serializer) MetaTypes(id models.EntityID) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(m string) {
		if _, ok := seen[m]; ok || m == "" {
			return
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	for c := range s.store.ComponentsOf(id).Seq() {
		if d, ok := s.table.ByType(c.Type()); ok {
			for _, m := range d.MetaTypes {
				add(m)
			}
		}
		if mt, ok := c.(MetaTyper); ok {
			for _, m := range mt.MetaTypes() {
				add(m)
			}
		}
	}
	slices.Sort(out)
	return out
}

// CheckIntegrity runs the validators of every meta type id carries.
func (s *Serializer) CheckIntegrity(id models.EntityID) error {
	for _, meta := range s.MetaTypes(id) {
		for _, validate := range s.table.Validators(meta) {
			if err := validate(s, id); err != nil {
				return fmt.Errorf("%w: meta type %q: %w", ErrIntegrity, meta, err)
			}
		}
	}
	return nil
}
