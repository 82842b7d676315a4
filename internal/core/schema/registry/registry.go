package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeusync/mudcore/internal/core/models"
)

// Record is the durable form of one entity: component export name -> exported value.
type Record map[string]any

// Env is what components see of the world while they are exported or imported.
type Env interface {
	Store() *models.Store
	// ExportEntity exports a nested entity (inventory contents, equipment).
	ExportEntity(id models.EntityID) (Record, error)
	// ImportEntity rebuilds a nested entity; register indexes it by identity.
	ImportEntity(rec Record, register bool) (models.EntityID, error)
}

// Persistent is implemented by components that take part in export.
type Persistent interface {
	models.Component
	// ShouldSave may depend on data, e.g. "only when the list is non-empty".
	ShouldSave(env Env) bool
	// ExportName is the storage key, decoupled from the Go type name.
	ExportName() string
	Export(env Env) (any, error)
}

// AfterLoader is run once per component after every component of the entity is attached.
type AfterLoader interface {
	AfterLoad(env Env, owner models.EntityID) error
}

// DecodeFunc rebuilds a component from its exported value for the entity owner.
type DecodeFunc func(raw any, owner models.EntityID, env Env) (models.Component, error)

// Validator checks, and may repair, an entity carrying a given meta type.
type Validator func(env Env, id models.EntityID) error

// Descriptor is the static registration of one component type.
type Descriptor struct {
	Type       models.ComponentType
	Name       string
	ExportName string
	// Decode is nil for transient components.
	Decode DecodeFunc
	// MetaTypes the entity is considered to have while it carries this component.
	MetaTypes []string
}

// Persistent reports whether the descriptor can be imported.
func (d Descriptor) Persistent() bool {
	return d.Decode != nil
}

// Builder collects descriptors and integrity validators during startup.
type Builder struct {
	descriptors []Descriptor
	byType      map[models.ComponentType]int
	byExport    map[string]int
	integrity   map[string][]Validator
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		byType:    make(map[models.ComponentType]int),
		byExport:  make(map[string]int),
		integrity: make(map[string][]Validator),
	}
}

// Register adds a component descriptor. Types and export names must be unique.
func (b *Builder) Register(d Descriptor) error {
	if d.Type == models.NoComponentType {
		return fmt.Errorf("register %q: %w", d.Name, ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("register type %d: name is required: %w", d.Type, ErrInvalidDescriptor)
	}
	if d.Decode != nil && strings.TrimSpace(d.ExportName) == "" {
		return fmt.Errorf("register %q: export name is required: %w", d.Name, ErrInvalidDescriptor)
	}
	if _, dup := b.byType[d.Type]; dup {
		return fmt.Errorf("register %q (type %d): %w", d.Name, d.Type, ErrDuplicateType)
	}
	if d.ExportName != "" {
		if _, dup := b.byExport[d.ExportName]; dup {
			return fmt.Errorf("register %q (export %q): %w", d.Name, d.ExportName, ErrDuplicateType)
		}
		b.byExport[d.ExportName] = len(b.descriptors)
	}
	b.byType[d.Type] = len(b.descriptors)
	b.descriptors = append(b.descriptors, d)
	return nil
}

// MustRegister is Register for static tables; it panics on a malformed descriptor.
func (b *Builder) MustRegister(descriptors ...Descriptor) {
	for _, d := range descriptors {
		if err := b.Register(d); err != nil {
			panic(err)
		}
	}
}

// RegisterIntegrity appends a validator for metaType. Validators run in registration order.
func (b *Builder) RegisterIntegrity(metaType string, v Validator) {
	b.integrity[metaType] = append(b.integrity[metaType], v)
}

// Build freezes the table.
func (b *Builder) Build() *Registry {
	r := &Registry{
		descriptors: append([]Descriptor(nil), b.descriptors...),
		byType:      make(map[models.ComponentType]int, len(b.byType)),
		byExport:    make(map[string]int, len(b.byExport)),
		integrity:   make(map[string][]Validator, len(b.integrity)),
	}
	for k, v := range b.byType {
		r.byType[k] = v
	}
	for k, v := range b.byExport {
		r.byExport[k] = v
	}
	for k, v := range b.integrity {
		r.integrity[k] = append([]Validator(nil), v...)
		r.metaOrder = append(r.metaOrder, k)
	}
	sort.Strings(r.metaOrder)
	return r
}

// Registry is the immutable component table built at startup.
type Registry struct {
	descriptors []Descriptor
	byType      map[models.ComponentType]int
	byExport    map[string]int
	integrity   map[string][]Validator
	metaOrder   []string
}

// Descriptors returns every descriptor in registration order.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}

// ByType looks a descriptor up by tag.
func (r *Registry) ByType(t models.ComponentType) (Descriptor, bool) {
	idx, ok := r.byType[t]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// ByExportName looks a descriptor up by storage key.
func (r *Registry) ByExportName(name string) (Descriptor, bool) {
	idx, ok := r.byExport[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[idx], true
}

// Validators returns the integrity validators for metaType.
func (r *Registry) Validators(metaType string) []Validator {
	return r.integrity[metaType]
}

// ValidatedMetaTypes lists meta types that have validators, sorted.
func (r *Registry) ValidatedMetaTypes() []string {
	return r.metaOrder
}
