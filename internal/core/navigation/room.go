package navigation

import (
	"slices"
	"strings"

	"github.com/zeusync/mudcore/internal/core/models"
)

// RoomKey identifies a room across the whole world.
type RoomKey string

// Exit flags understood by the default checks.
const (
	FlagHidden = "hidden"
	FlagClosed = "closed"
)

// ExitGuard adds content-specific rules to an exit (doors, keys, level gates).
type ExitGuard interface {
	VisibleTo(mover models.EntityID, exit *Exit) bool
	CanTraverse(mover models.EntityID, exit *Exit) (bool, string)
}

// Exit is a one-way directed edge out of a room.
type Exit struct {
	Direction   ExitDir
	To          RoomKey
	Keyword     string
	Flags       []string
	Description string
	Guard       ExitGuard

	from *Room
	dest *Room
}

// HasFlag reports whether the exit carries flag.
func (e *Exit) HasFlag(flag string) bool {
	return slices.Contains(e.Flags, flag)
}

// Destination is the bound target room; nil before Graph.Resolve.
func (e *Exit) Destination() *Room {
	return e.dest
}

// Origin is the room the exit leads out of.
func (e *Exit) Origin() *Room {
	return e.from
}

// VisibleTo reports whether mover can perceive the exit. An invisible exit is treated as absent.
func (e *Exit) VisibleTo(mover models.EntityID) bool {
	if e.HasFlag(FlagHidden) {
		return false
	}
	if e.Guard != nil {
		return e.Guard.VisibleTo(mover, e)
	}
	return true
}

// CanTraverse reports whether mover may pass through the exit, and why not.
func (e *Exit) CanTraverse(mover models.EntityID) (bool, string) {
	if e.HasFlag(FlagClosed) {
		name := e.Keyword
		if name == "" {
			name = "way " + e.Direction.String()
		}
		return false, "The " + name + " is closed."
	}
	if e.Guard != nil {
		return e.Guard.CanTraverse(mover, e)
	}
	return true, ""
}

// Room is a node of the navigation graph.
type Room struct {
	Key         RoomKey
	Zone        string
	Name        string
	Description string
	Flags       []string
	Gravity     float64

	exits     map[ExitDir]*Exit
	occupants []models.EntityID
}

// NewRoom returns an empty room with standard gravity.
func NewRoom(key RoomKey, zone string) *Room {
	return &Room{
		Key:     key,
		Zone:    zone,
		Name:    "New Room",
		Gravity: 1,
		exits:   make(map[ExitDir]*Exit),
	}
}

// HasFlag reports whether the room carries flag.
func (r *Room) HasFlag(flag string) bool {
	return slices.Contains(r.Flags, flag)
}

// SetExit adds or replaces the exit in e.Direction. Exits added after Graph.Resolve are
// unbound until the next Resolve.
func (r *Room) SetExit(e *Exit) error {
	if !e.Direction.Valid() {
		return ErrUnknownDirection
	}
	if r.exits == nil {
		r.exits = make(map[ExitDir]*Exit)
	}
	e.from = r
	e.dest = nil
	r.exits[e.Direction] = e
	return nil
}

// RemoveExit deletes the exit in d.
func (r *Room) RemoveExit(d ExitDir) {
	delete(r.exits, d)
}

// Exit returns the exit in d.
func (r *Room) Exit(d ExitDir) (*Exit, bool) {
	e, ok := r.exits[d]
	return e, ok
}

// Exits lists exits in canonical direction order.
func (r *Room) Exits() []*Exit {
	out := make([]*Exit, 0, len(r.exits))
	for _, d := range Directions() {
		if e, ok := r.exits[d]; ok {
			out = append(out, e)
		}
	}
	return out
}

// VisibleExits lists the exits mover can see.
func (r *Room) VisibleExits(mover models.EntityID) []*Exit {
	return slices.DeleteFunc(r.Exits(), func(e *Exit) bool { return !e.VisibleTo(mover) })
}

// ExitByKeyword finds an exit by its keyword, case-insensitively.
func (r *Room) ExitByKeyword(keyword string) (*Exit, bool) {
	if keyword == "" {
		return nil, false
	}
	for _, e := range r.Exits() {
		if e.Keyword != "" && strings.EqualFold(e.Keyword, keyword) {
			return e, true
		}
	}
	return nil, false
}

// Occupants returns the entities in the room in arrival order.
func (r *Room) Occupants() []models.EntityID {
	return slices.Clone(r.occupants)
}

// Contains reports whether id is in the room.
func (r *Room) Contains(id models.EntityID) bool {
	return slices.Contains(r.occupants, id)
}

func (r *Room) addOccupant(id models.EntityID) {
	if !r.Contains(id) {
		r.occupants = append(r.occupants, id)
	}
}

func (r *Room) removeOccupant(id models.EntityID) bool {
	idx := slices.Index(r.occupants, id)
	if idx < 0 {
		return false
	}
	r.occupants = slices.Delete(r.occupants, idx, idx+1)
	return true
}

// Zone groups rooms for aging and resets.
type Zone struct {
	Key  string
	Name string
	// Lifespan is the number of aging ticks between resets; zero disables resets.
	Lifespan int

	age   int
	rooms []RoomKey
}

// Rooms lists the rooms of the zone in the order they were added.
func (z *Zone) Rooms() []RoomKey {
	return slices.Clone(z.rooms)
}

// Age is the number of aging ticks since the last reset.
func (z *Zone) Age() int {
	return z.age
}

// Advance ages the zone by one tick and reports whether a reset is due. The age restarts on reset.
func (z *Zone) Advance() bool {
	if z.Lifespan <= 0 {
		return false
	}
	z.age++
	if z.age < z.Lifespan {
		return false
	}
	z.age = 0
	return true
}
