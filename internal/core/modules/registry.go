package modules

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/serializer"
)

var _ serializer.Indexer = (*Registry)(nil)

// Registry holds loaded modules and the global identity index. It is the serializer's
// indexer: entities loaded with register=true end up here.
type Registry struct {
	ser     *serializer.Serializer
	logger  log.Log
	modules map[string]*Module
}

// NewRegistry creates a registry and installs it as ser's indexer.
func NewRegistry(ser *serializer.Serializer, logger log.Log) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	r := &Registry{
		ser:     ser,
		logger:  logger.With(log.String("component", "modules")),
		modules: make(map[string]*Module),
	}
	ser.SetIndexer(r)
	return r
}

// Add registers a module. Names are unique.
func (r *Registry) Add(m *Module) error {
	if _, ok := r.modules[m.Name]; ok {
		return fmt.Errorf("module %q: %w", m.Name, ErrDuplicateModule)
	}
	r.modules[m.Name] = m
	return nil
}

// Module looks a module up by name.
func (r *Registry) Module(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Modules returns modules in load order: priority, then name.
func (r *Registry) Modules() []*Module {
	out := slices.Collect(maps.Values(r.modules))
	slices.SortFunc(out, byPriority)
	return out
}

// IndexEntity files id under its identity.
func (r *Registry) IndexEntity(store *models.Store, id models.EntityID) error {
	ident, ok := models.Get[*components.Identity](store, id)
	if !ok {
		return serializer.ErrNoIdentity
	}
	m, ok := r.modules[ident.Module]
	if !ok {
		return fmt.Errorf("index %s: %q: %w", id, ident.Module, ErrUnknownModule)
	}
	m.index(ident, id)
	return nil
}

// Forget drops id from the index, typically just before it is deleted.
func (r *Registry) Forget(store *models.Store, id models.EntityID) {
	ident, ok := models.Get[*components.Identity](store, id)
	if !ok {
		return
	}
	if m, ok := r.modules[ident.Module]; ok {
		m.unindex(ident)
	}
}

// Entity resolves a "module:id" reference to a live entity.
func (r *Registry) Entity(ref string) (models.EntityID, bool) {
	mod, id, ok := strings.Cut(ref, ":")
	if !ok {
		return models.NoEntity, false
	}
	m, ok := r.modules[mod]
	if !ok {
		return models.NoEntity, false
	}
	ent, ok := m.Entity(id)
	if !ok || !r.ser.Store().Exists(ent) {
		return models.NoEntity, false
	}
	return ent, true
}

// Spawn builds a new entity from a prototype, gives it a fresh identity and indexes it.
func (r *Registry) Spawn(module, proto string) (models.EntityID, error) {
	m, ok := r.modules[module]
	if !ok {
		return models.NoEntity, fmt.Errorf("spawn %s:%s: %w", module, proto, ErrUnknownModule)
	}
	p, ok := m.Prototype(proto)
	if !ok {
		return models.NoEntity, fmt.Errorf("spawn %s:%s: %w", module, proto, ErrUnknownPrototype)
	}
	ent, err := r.ser.Deserialize(maps.Clone(p.Data), false)
	if err != nil {
		return models.NoEntity, fmt.Errorf("spawn %s:%s: %w", module, proto, err)
	}
	if _, err := m.AssignID(r.ser.Store(), ent, proto, true); err != nil {
		r.ser.Store().Delete(ent)
		return models.NoEntity, err
	}
	return ent, nil
}

// SpawnRef is Spawn for a "module:prototype" reference.
func (r *Registry) SpawnRef(ref string) (models.EntityID, error) {
	mod, proto, ok := strings.Cut(ref, ":")
	if !ok {
		return models.NoEntity, fmt.Errorf("spawn %q: %w", ref, ErrUnknownPrototype)
	}
	return r.Spawn(mod, proto)
}

// Install adds every zone and room of every module to graph, then binds exits.
func (r *Registry) Install(graph *navigation.Graph) error {
	for _, m := range r.Modules() {
		for _, zf := range m.Zones() {
			if err := installZone(graph, zf); err != nil {
				return fmt.Errorf("module %s: %w", m.Name, err)
			}
		}
		r.logger.Info("module installed", log.String("module", m.Name), log.Int("zones", len(m.Zones())))
	}
	return graph.Resolve()
}

func installZone(graph *navigation.Graph, zf ZoneFile) error {
	z := &navigation.Zone{Key: zf.Key, Name: zf.Name, Lifespan: zf.Lifespan}
	if err := graph.AddZone(z); err != nil {
		return err
	}
	for _, rf := range zf.Rooms {
		room := navigation.NewRoom(navigation.RoomKey(rf.Key), zf.Key)
		if rf.Name != "" {
			room.Name = rf.Name
		}
		room.Description = rf.Description
		room.Flags = rf.Flags
		if rf.Gravity != nil {
			room.Gravity = *rf.Gravity
		}
		for _, name := range slices.Sorted(maps.Keys(rf.Exits)) {
			ef := rf.Exits[name]
			dir, ok := navigation.ParseDir(name)
			if !ok {
				return fmt.Errorf("room %q exit %q: %w", rf.Key, name, navigation.ErrUnknownDirection)
			}
			if ef.To == "" {
				return fmt.Errorf("room %q exit %q has no destination: %w", rf.Key, name, ErrBadExit)
			}
			if err := room.SetExit(&navigation.Exit{
				Direction:   dir,
				To:          navigation.RoomKey(ef.To),
				Keyword:     ef.Keyword,
				Flags:       ef.Flags,
				Description: ef.Description,
			}); err != nil {
				return err
			}
		}
		if err := graph.AddRoom(room); err != nil {
			return err
		}
	}
	return nil
}

// SpawnRules returns the spawn rules of a zone with prototypes qualified as "module:prototype".
func (r *Registry) SpawnRules(zone string) []SpawnRule {
	var out []SpawnRule
	for _, m := range r.Modules() {
		for _, zf := range m.Zones() {
			if zf.Key != zone {
				continue
			}
			for _, rule := range zf.Spawns {
				if !strings.Contains(rule.Prototype, ":") {
					rule.Prototype = m.Name + ":" + rule.Prototype
				}
				out = append(out, rule)
			}
		}
	}
	return out
}

// ResetZone tops up the spawns of a zone. Instances already standing in the target room
// count toward the rule. New entities are teleported into place.
func (r *Registry) ResetZone(zone string, mover *navigation.Mover) ([]models.EntityID, error) {
	var spawned []models.EntityID
	for _, rule := range r.SpawnRules(zone) {
		mod, proto, _ := strings.Cut(rule.Prototype, ":")
		m, ok := r.modules[mod]
		if !ok {
			return spawned, fmt.Errorf("zone %s spawn %s: %w", zone, rule.Prototype, ErrUnknownModule)
		}
		p, ok := m.Prototype(proto)
		if !ok {
			return spawned, fmt.Errorf("zone %s spawn %s: %w", zone, rule.Prototype, ErrUnknownPrototype)
		}
		present := 0
		for id, ent := range p.instances {
			if !r.ser.Store().Exists(ent) {
				delete(p.instances, id)
				delete(m.entities, id)
				continue
			}
			if room, ok := mover.Where(ent); ok && string(room.Key) == rule.Room {
				present++
			}
		}
		for range max(rule.Count, 1) - present {
			ent, err := r.Spawn(mod, proto)
			if err != nil {
				return spawned, err
			}
			if _, err := mover.Teleport(ent, navigation.RoomKey(rule.Room)); err != nil {
				r.ser.Store().Delete(ent)
				return spawned, fmt.Errorf("zone %s spawn %s: %w", zone, rule.Prototype, err)
			}
			spawned = append(spawned, ent)
		}
	}
	if len(spawned) > 0 {
		r.logger.Debug("zone reset", log.String("zone", zone), log.Int("spawned", len(spawned)))
	}
	return spawned, nil
}
