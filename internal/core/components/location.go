package components

import (
	"fmt"

	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// InRoom is an entity's own record of the room it stands in. It is saved as "SaveInRoom"
// holding the room key, and only while that room exists.
type InRoom struct {
	Room  navigation.RoomKey
	graph *navigation.Graph
}

type savedRoom struct {
	Room string `json:"room"`
}

func (*InRoom) Type() models.ComponentType { return InRoomType }
func (*InRoom) ExportName() string         { return "SaveInRoom" }

func (r *InRoom) ShouldSave(registry.Env) bool {
	if r.graph == nil {
		return false
	}
	_, ok := r.graph.Room(r.Room)
	return ok
}

func (r *InRoom) Export(registry.Env) (any, error) {
	return savedRoom{Room: string(r.Room)}, nil
}

// AfterLoad puts the entity back among the room's occupants. A saved room that no longer
// exists leaves the entity unplaced.
func (r *InRoom) AfterLoad(env registry.Env, owner models.EntityID) error {
	if r.graph == nil {
		return nil
	}
	if err := r.graph.Place(owner, r.Room); err != nil {
		env.Store().RemoveComponent(owner, InRoomType)
	}
	return nil
}

// Release clears the room's occupancy when the entity is deleted.
func (r *InRoom) Release(_ *models.Store, owner models.EntityID) {
	if r.graph != nil {
		r.graph.Remove(owner, r.Room)
	}
}

func decodeInRoom(graph *navigation.Graph) registry.DecodeFunc {
	return func(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
		saved, err := registry.As[savedRoom](raw)
		if err != nil {
			return nil, err
		}
		if saved.Room == "" {
			return nil, nil
		}
		return &InRoom{Room: navigation.RoomKey(saved.Room), graph: graph}, nil
	}
}

// Locations is the navigation.Locator backed by InRoom components.
type Locations struct {
	store *models.Store
	graph *navigation.Graph
}

var _ navigation.Locator = (*Locations)(nil)

// NewLocations returns a locator over store and graph.
func NewLocations(store *models.Store, graph *navigation.Graph) *Locations {
	return &Locations{store: store, graph: graph}
}

// Location returns the room id stands in, if that room exists.
func (l *Locations) Location(id models.EntityID) (navigation.RoomKey, bool) {
	r, ok := models.Get[*InRoom](l.store, id)
	if !ok {
		return "", false
	}
	if _, exists := l.graph.Room(r.Room); !exists {
		return "", false
	}
	return r.Room, true
}

// SetLocation updates the InRoom record; it never touches occupancy.
func (l *Locations) SetLocation(id models.EntityID, room navigation.RoomKey) error {
	if !l.store.Exists(id) {
		return fmt.Errorf("set location of %s: %w", id, models.ErrNoEntity)
	}
	if room == "" {
		l.store.RemoveComponent(id, InRoomType)
		return nil
	}
	r, err := models.GetOrAdd(l.store, id, func() *InRoom { return &InRoom{graph: l.graph} })
	if err != nil {
		return err
	}
	r.Room = room
	r.graph = l.graph
	return nil
}

// NewInRoom builds an InRoom bound to the graph. Attaching it does not add the entity to the
// room's occupants; the mover keeps both sides in step.
func (l *Locations) NewInRoom(room navigation.RoomKey) *InRoom {
	return &InRoom{Room: room, graph: l.graph}
}
