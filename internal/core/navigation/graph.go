package navigation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/zeusync/mudcore/internal/core/models"
)

// Graph holds every room and zone. It is owned by the simulation goroutine.
type Graph struct {
	rooms map[RoomKey]*Room
	zones map[string]*Zone
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		rooms: make(map[RoomKey]*Room),
		zones: make(map[string]*Zone),
	}
}

// AddZone registers a zone.
func (g *Graph) AddZone(z *Zone) error {
	if _, ok := g.zones[z.Key]; ok {
		return fmt.Errorf("zone %q: %w", z.Key, ErrDuplicateZone)
	}
	g.zones[z.Key] = z
	return nil
}

// AddRoom registers a room. A non-empty room zone must already exist.
func (g *Graph) AddRoom(r *Room) error {
	if _, ok := g.rooms[r.Key]; ok {
		return fmt.Errorf("room %q: %w", r.Key, ErrDuplicateRoom)
	}
	if r.Zone != "" {
		z, ok := g.zones[r.Zone]
		if !ok {
			return fmt.Errorf("room %q zone %q: %w", r.Key, r.Zone, ErrUnknownZone)
		}
		z.rooms = append(z.rooms, r.Key)
	}
	if r.exits == nil {
		r.exits = make(map[ExitDir]*Exit)
	}
	g.rooms[r.Key] = r
	return nil
}

// Room looks a room up by key.
func (g *Graph) Room(key RoomKey) (*Room, bool) {
	r, ok := g.rooms[key]
	return r, ok
}

// Rooms lists every room ordered by key.
func (g *Graph) Rooms() []*Room {
	out := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Room) int { return strings.Compare(string(a.Key), string(b.Key)) })
	return out
}

// Zone looks a zone up by key.
func (g *Graph) Zone(key string) (*Zone, bool) {
	z, ok := g.zones[key]
	return z, ok
}

// Zones lists every zone ordered by key.
func (g *Graph) Zones() []*Zone {
	out := make([]*Zone, 0, len(g.zones))
	for _, z := range g.zones {
		out = append(out, z)
	}
	slices.SortFunc(out, func(a, b *Zone) int { return strings.Compare(a.Key, b.Key) })
	return out
}

// Resolve binds every exit to its destination room. Every dangling exit is reported.
func (g *Graph) Resolve() error {
	var errs []error
	for _, r := range g.Rooms() {
		for _, e := range r.Exits() {
			dest, ok := g.rooms[e.To]
			if !ok {
				e.dest = nil
				errs = append(errs, fmt.Errorf("%w: room %q exit %s -> %q", ErrDanglingExit, r.Key, e.Direction, e.To))
				continue
			}
			e.dest = dest
		}
	}
	return errors.Join(errs...)
}

// Entrances lists exits from any room that lead into key.
func (g *Graph) Entrances(key RoomKey) []*Exit {
	var out []*Exit
	for _, r := range g.Rooms() {
		for _, e := range r.Exits() {
			if e.To == key {
				out = append(out, e)
			}
		}
	}
	return out
}

// Occupants returns the entities in room key.
func (g *Graph) Occupants(key RoomKey) []models.EntityID {
	r, ok := g.rooms[key]
	if !ok {
		return nil
	}
	return r.Occupants()
}

// Place adds id to the occupants of key. It does not touch the entity's own location record;
// Mover keeps both in step.
func (g *Graph) Place(id models.EntityID, key RoomKey) error {
	r, ok := g.rooms[key]
	if !ok {
		return fmt.Errorf("place %s in %q: %w", id, key, ErrUnknownRoom)
	}
	r.addOccupant(id)
	return nil
}

// Remove takes id out of the occupants of key and reports whether it was there.
func (g *Graph) Remove(id models.EntityID, key RoomKey) bool {
	r, ok := g.rooms[key]
	if !ok {
		return false
	}
	return r.removeOccupant(id)
}
