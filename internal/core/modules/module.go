package modules

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// Prototype is a template record entities are spawned from.
type Prototype struct {
	Name string
	Data registry.Record

	instances map[string]models.EntityID
}

// Instances lists the ids of spawned entities still indexed under the prototype, sorted.
func (p *Prototype) Instances() []string {
	return slices.Sorted(maps.Keys(p.instances))
}

// Module is a unit of game content: zones, rooms and prototypes.
type Module struct {
	Meta
	Path string

	zones      []ZoneFile
	prototypes map[string]*Prototype
	entities   map[string]models.EntityID
}

// NewModule returns an empty module; loaders and tests fill it.
func NewModule(meta Meta) *Module {
	return &Module{
		Meta:       meta,
		prototypes: make(map[string]*Prototype),
		entities:   make(map[string]models.EntityID),
	}
}

// AddPrototype registers a prototype. The record is stamped with its origin so spawned
// entities carry a Prototype component.
func (m *Module) AddPrototype(name string, data registry.Record) {
	rec := maps.Clone(data)
	if rec == nil {
		rec = registry.Record{}
	}
	rec["Prototype"] = components.Prototype{Module: m.Name, Prototype: name}
	m.prototypes[name] = &Prototype{Name: name, Data: rec, instances: make(map[string]models.EntityID)}
}

// AddZone adds a parsed zone file.
func (m *Module) AddZone(z ZoneFile) {
	m.zones = append(m.zones, z)
}

// Zones returns the module's zone files in load order.
func (m *Module) Zones() []ZoneFile {
	return m.zones
}

// Prototype looks a prototype up.
func (m *Module) Prototype(name string) (*Prototype, bool) {
	p, ok := m.prototypes[name]
	return p, ok
}

// Prototypes lists prototype names, sorted.
func (m *Module) Prototypes() []string {
	return slices.Sorted(maps.Keys(m.prototypes))
}

// Entity finds an indexed entity by instance id.
func (m *Module) Entity(id string) (models.EntityID, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// AssignID gives ent a fresh identity under prototype proto and optionally indexes it.
func (m *Module) AssignID(store *models.Store, ent models.EntityID, proto string, index bool) (string, error) {
	p, ok := m.prototypes[proto]
	if !ok {
		return "", fmt.Errorf("%s:%s: %w", m.Name, proto, ErrUnknownPrototype)
	}
	var id string
	for {
		id = proto + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
		if _, taken := m.entities[id]; !taken {
			break
		}
	}
	if err := store.AddComponent(ent, &components.Identity{Module: m.Name, Prototype: proto, ID: id}); err != nil {
		return "", err
	}
	if index {
		m.entities[id] = ent
		p.instances[id] = ent
	}
	return id, nil
}

func (m *Module) index(ident *components.Identity, ent models.EntityID) {
	m.entities[ident.ID] = ent
	if p, ok := m.prototypes[ident.Prototype]; ok {
		p.instances[ident.ID] = ent
	}
}

func (m *Module) unindex(ident *components.Identity) {
	delete(m.entities, ident.ID)
	if p, ok := m.prototypes[ident.Prototype]; ok {
		delete(p.instances, ident.ID)
	}
}
