package navigation

import (
	"fmt"

	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/observability/log"
)

// Movement event types published after a committed move.
const (
	EventDeparted = "movement.departed"
	EventArrived  = "movement.arrived"
)

const eventSource = "navigation"

// Locator reads and writes an entity's own location record.
type Locator interface {
	Location(id models.EntityID) (RoomKey, bool)
	// SetLocation records the new room; an empty key clears the location.
	SetLocation(id models.EntityID, room RoomKey) error
}

// Acceptor decides whether a particular mover may enter a room (capacity, flags, mount state).
type Acceptor interface {
	CanMoveTo(mover models.EntityID, dest *Room) (bool, string)
}

// AcceptorFunc adapts a function to Acceptor.
type AcceptorFunc func(mover models.EntityID, dest *Room) (bool, string)

func (f AcceptorFunc) CanMoveTo(mover models.EntityID, dest *Room) (bool, string) {
	return f(mover, dest)
}

// MoveResult describes a committed move. Event payloads carry it.
type MoveResult struct {
	Mover models.EntityID
	From  RoomKey
	To    RoomKey
	// Dir is Unknown for teleports.
	Dir ExitDir
	Via *Exit
	// Moved is false when the mover was already at the destination.
	Moved bool
}

// Mover applies the movement protocol to the graph.
type Mover struct {
	graph    *Graph
	locator  Locator
	acceptor Acceptor
	bus      bus.EventBus
	logger   log.Log
}

// MoverOption configures a Mover.
type MoverOption func(*Mover)

// WithAcceptor sets the mover-specific acceptance check.
func WithAcceptor(a Acceptor) MoverOption {
	return func(m *Mover) { m.acceptor = a }
}

// WithBus sets where movement events are published.
func WithBus(b bus.EventBus) MoverOption {
	return func(m *Mover) { m.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l log.Log) MoverOption {
	return func(m *Mover) { m.logger = l }
}

// NewMover creates a Mover over graph.
func NewMover(graph *Graph, locator Locator, opts ...MoverOption) *Mover {
	m := &Mover{graph: graph, locator: locator, logger: log.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Graph returns the graph the mover works on.
func (m *Mover) Graph() *Graph {
	return m.graph
}

// Where returns the room mover is in.
func (m *Mover) Where(mover models.EntityID) (*Room, bool) {
	key, ok := m.locator.Location(mover)
	if !ok {
		return nil, false
	}
	return m.graph.Room(key)
}

// Move walks mover through the exit in dir.
//
// The checks run in a fixed order and the first refusal wins: exit lookup, visibility,
// exit traversal, then the mover's acceptance of the destination. A missing exit and an
// invisible one give the same answer.
func (m *Mover) Move(mover models.EntityID, dir ExitDir) (MoveResult, error) {
	room, ok := m.Where(mover)
	if !ok {
		return MoveResult{}, blocked(StepResolve, "You are not anywhere you could leave.")
	}
	exit, ok := room.Exit(dir)
	if !ok {
		return MoveResult{}, blocked(StepResolve, "You can't find a way to go %s.", dir.Title())
	}
	if !exit.VisibleTo(mover) {
		return MoveResult{}, blocked(StepVisibility, "You can't find a way to go %s.", dir.Title())
	}
	return m.through(mover, room, exit)
}

// MoveVia walks mover through a specific exit of its current room, as found by keyword.
func (m *Mover) MoveVia(mover models.EntityID, exit *Exit) (MoveResult, error) {
	room, ok := m.Where(mover)
	if !ok || exit.Origin() != room {
		return MoveResult{}, blocked(StepResolve, "You can't find a way to go there.")
	}
	if !exit.VisibleTo(mover) {
		return MoveResult{}, blocked(StepVisibility, "You can't find a way to go there.")
	}
	return m.through(mover, room, exit)
}

func (m *Mover) through(mover models.EntityID, room *Room, exit *Exit) (MoveResult, error) {
	if can, reason := exit.CanTraverse(mover); !can {
		return MoveResult{}, &Blocked{Step: StepTraverse, Reason: reason}
	}
	dest := exit.Destination()
	if can, reason := m.accept(mover, dest); !can {
		return MoveResult{}, &Blocked{Step: StepAccept, Reason: reason}
	}
	res := MoveResult{Mover: mover, From: room.Key, To: dest.Key, Dir: exit.Direction, Via: exit}
	return m.commit(res, room, dest, true)
}

// Teleport places mover in dest without exit or acceptance checks. Mover need not have a
// location yet.
func (m *Mover) Teleport(mover models.EntityID, dest RoomKey) (MoveResult, error) {
	return m.teleport(mover, dest, true)
}

// Relocate is Teleport without departure and arrival events. Nobody in either room is told.
func (m *Mover) Relocate(mover models.EntityID, dest RoomKey) (MoveResult, error) {
	return m.teleport(mover, dest, false)
}

func (m *Mover) teleport(mover models.EntityID, dest RoomKey, announce bool) (MoveResult, error) {
	to, ok := m.graph.Room(dest)
	if !ok {
		return MoveResult{}, blocked(StepResolve, "Destination does not exist.")
	}
	res := MoveResult{Mover: mover, To: dest, Dir: Unknown}
	from, _ := m.Where(mover)
	if from != nil {
		res.From = from.Key
	}
	return m.commit(res, from, to, announce)
}

// Extract takes mover out of the world: it leaves its room and its location is cleared.
func (m *Mover) Extract(mover models.EntityID) error {
	return m.extract(mover, true)
}

// Withdraw is Extract without the departure event.
func (m *Mover) Withdraw(mover models.EntityID) error {
	return m.extract(mover, false)
}

func (m *Mover) extract(mover models.EntityID, announce bool) error {
	from, ok := m.Where(mover)
	if !ok {
		return fmt.Errorf("extract %s: %w", mover, ErrNotPlaced)
	}
	from.removeOccupant(mover)
	if err := m.locator.SetLocation(mover, ""); err != nil {
		from.addOccupant(mover)
		return fmt.Errorf("extract %s: %w", mover, err)
	}
	if announce {
		m.publish(EventDeparted, MoveResult{Mover: mover, From: from.Key, Dir: Unknown, Moved: true})
	}
	return nil
}

func (m *Mover) accept(mover models.EntityID, dest *Room) (bool, string) {
	if dest == nil {
		return false, "Destination does not exist."
	}
	if m.acceptor == nil {
		return true, ""
	}
	return m.acceptor.CanMoveTo(mover, dest)
}

// commit updates occupancy and the location record together, undoing both on failure.
// Events, when announced, are published only once the move is complete.
func (m *Mover) commit(res MoveResult, from, to *Room, announce bool) (MoveResult, error) {
	if from == to {
		return res, nil
	}
	hadFrom := from != nil && from.removeOccupant(res.Mover)
	to.addOccupant(res.Mover)
	if err := m.locator.SetLocation(res.Mover, to.Key); err != nil {
		to.removeOccupant(res.Mover)
		if hadFrom {
			from.addOccupant(res.Mover)
		}
		m.logger.Error("location update failed, move rolled back", log.Entity(res.Mover), log.Room(to.Key), log.Error(err))
		return MoveResult{}, &Blocked{Step: StepCommit, Reason: "You cannot move right now."}
	}
	res.Moved = true
	if !announce {
		return res, nil
	}

	if from != nil {
		m.publish(EventDeparted, res)
	}
	m.publish(EventArrived, res)
	return res, nil
}

func (m *Mover) publish(eventType string, res MoveResult) {
	if m.bus == nil {
		return
	}
	if err := m.bus.Publish(bus.NewEvent(eventType, eventSource, res)); err != nil {
		m.logger.Warn("movement handler failed",
			log.String("event", eventType),
			log.Entity(res.Mover),
			log.Error(err),
		)
	}
}
