package navigation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
)

type mapLocator struct {
	at   map[models.EntityID]RoomKey
	fail bool
}

func newMapLocator() *mapLocator {
	return &mapLocator{at: make(map[models.EntityID]RoomKey)}
}

func (l *mapLocator) Location(id models.EntityID) (RoomKey, bool) {
	k, ok := l.at[id]
	return k, ok
}

func (l *mapLocator) SetLocation(id models.EntityID, room RoomKey) error {
	if l.fail {
		return errors.New("location store unavailable")
	}
	if room == "" {
		delete(l.at, id)
		return nil
	}
	l.at[id] = room
	return nil
}

type recordingGuard struct {
	visible bool
	calls   *[]string
}

func (g recordingGuard) VisibleTo(models.EntityID, *Exit) bool {
	*g.calls = append(*g.calls, "visible")
	return g.visible
}

func (g recordingGuard) CanTraverse(models.EntityID, *Exit) (bool, string) {
	*g.calls = append(*g.calls, "traverse")
	return true, ""
}

// twoRooms builds hall <-north/south-> yard, both in zone "town".
func twoRooms(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddZone(&Zone{Key: "town", Name: "Town", Lifespan: 3}))
	hall, yard := NewRoom("hall", "town"), NewRoom("yard", "town")
	require.NoError(t, hall.SetExit(&Exit{Direction: North, To: "yard"}))
	require.NoError(t, yard.SetExit(&Exit{Direction: South, To: "hall"}))
	require.NoError(t, g.AddRoom(hall))
	require.NoError(t, g.AddRoom(yard))
	require.NoError(t, g.Resolve())
	return g
}

func TestDirections(t *testing.T) {
	for _, d := range Directions() {
		assert.Equal(t, d, d.Reverse().Reverse(), d.String())
		parsed, ok := ParseDir(d.Abbreviation())
		require.True(t, ok, d.String())
		assert.Equal(t, d, parsed)
	}
	assert.Equal(t, Out, In.Reverse())
	assert.Equal(t, "E", East.Abbreviation())
	assert.Equal(t, [3]int{-1, 1, 0}, Northwest.Delta())
	assert.Equal(t, "North", North.Title())
	assert.Equal(t, "Southwest", Southwest.Title())
	assert.Equal(t, "below", Up.ArrivalFrom())
	assert.Equal(t, "the south", North.ArrivalFrom())

	d, ok := ParseDir("  NorthEast ")
	require.True(t, ok)
	assert.Equal(t, Northeast, d)
	_, ok = ParseDir("sideways")
	assert.False(t, ok)

	var fromText ExitDir
	require.NoError(t, fromText.UnmarshalText([]byte("u")))
	assert.Equal(t, Up, fromText)
	assert.ErrorIs(t, fromText.UnmarshalText([]byte("?")), ErrUnknownDirection)
}

func TestResolveReportsDanglingExits(t *testing.T) {
	g := NewGraph()
	r := NewRoom("lonely", "")
	require.NoError(t, r.SetExit(&Exit{Direction: East, To: "void"}))
	require.NoError(t, r.SetExit(&Exit{Direction: Down, To: "abyss"}))
	require.NoError(t, g.AddRoom(r))

	err := g.Resolve()
	require.ErrorIs(t, err, ErrDanglingExit)
	assert.Contains(t, err.Error(), `"void"`)
	assert.Contains(t, err.Error(), `"abyss"`)

	assert.ErrorIs(t, g.AddRoom(NewRoom("lonely", "")), ErrDuplicateRoom)
	assert.ErrorIs(t, g.AddRoom(NewRoom("x", "nowhere")), ErrUnknownZone)
}

func TestMoveCommitsAtomically(t *testing.T) {
	g := twoRooms(t)
	loc := newMapLocator()
	events := bus.New()
	var seen []string
	for _, typ := range []string{EventDeparted, EventArrived} {
		_, err := events.Subscribe(typ, func(e bus.Event) error {
			res := e.Data().(MoveResult)
			// occupancy and location are already consistent when handlers run
			room, _ := g.Room(res.To)
			assert.True(t, room.Contains(res.Mover))
			seen = append(seen, e.Type())
			return nil
		})
		require.NoError(t, err)
	}
	m := NewMover(g, loc, WithBus(events))

	const bob models.EntityID = 5
	_, err := m.Teleport(bob, "hall")
	require.NoError(t, err)
	assert.Equal(t, []string{EventArrived}, seen, "entering the world has no departure")

	seen = nil
	res, err := m.Move(bob, North)
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, RoomKey("hall"), res.From)
	assert.Equal(t, RoomKey("yard"), res.To)
	assert.Equal(t, []string{EventDeparted, EventArrived}, seen)

	assert.Empty(t, g.Occupants("hall"))
	assert.Equal(t, []models.EntityID{bob}, g.Occupants("yard"))
	where, _ := loc.Location(bob)
	assert.Equal(t, RoomKey("yard"), where)

	loc.fail = true
	_, err = m.Move(bob, South)
	var b *Blocked
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepCommit, b.Step)
	assert.Equal(t, []models.EntityID{bob}, g.Occupants("yard"), "failed commit rolls back")
	assert.Empty(t, g.Occupants("hall"))
}

func TestMoveGatingOrder(t *testing.T) {
	g := twoRooms(t)
	loc := newMapLocator()
	var calls []string
	acceptor := AcceptorFunc(func(models.EntityID, *Room) (bool, string) {
		calls = append(calls, "accept")
		return false, "You are too heavy."
	})
	m := NewMover(g, loc, WithAcceptor(acceptor))
	const bob models.EntityID = 1
	_, err := m.Teleport(bob, "hall")
	require.NoError(t, err, "teleport skips acceptance")
	assert.Empty(t, calls)

	var b *Blocked
	_, err = m.Move(bob, West)
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepResolve, b.Step)
	assert.Equal(t, "You can't find a way to go West.", b.Reason)

	hall, _ := g.Room("hall")
	north, _ := hall.Exit(North)

	north.Flags = []string{FlagHidden}
	_, err = m.Move(bob, North)
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepVisibility, b.Step)
	assert.Equal(t, "You can't find a way to go North.", b.Reason, "hidden looks like missing")

	north.Flags = []string{FlagClosed}
	north.Keyword = "gate"
	_, err = m.Move(bob, North)
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepTraverse, b.Step)
	assert.Equal(t, "The gate is closed.", b.Reason)
	assert.Empty(t, calls, "acceptance is not consulted when traversal fails")

	north.Flags = nil
	_, err = m.Move(bob, North)
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepAccept, b.Step)
	assert.Equal(t, "You are too heavy.", b.Reason)
	assert.Equal(t, []string{"accept"}, calls)
	assert.Equal(t, []models.EntityID{bob}, g.Occupants("hall"))
}

func TestGuardRunsBeforeAcceptance(t *testing.T) {
	g := twoRooms(t)
	loc := newMapLocator()
	var calls []string
	hall, _ := g.Room("hall")
	north, _ := hall.Exit(North)
	north.Guard = recordingGuard{visible: true, calls: &calls}

	m := NewMover(g, loc, WithAcceptor(AcceptorFunc(func(models.EntityID, *Room) (bool, string) {
		calls = append(calls, "accept")
		return true, ""
	})))
	_, err := m.Teleport(9, "hall")
	require.NoError(t, err)
	_, err = m.Move(9, North)
	require.NoError(t, err)
	assert.Equal(t, []string{"visible", "traverse", "accept"}, calls)
}

func TestKeywordExitAndExtract(t *testing.T) {
	g := twoRooms(t)
	hall, _ := g.Room("hall")
	require.NoError(t, hall.SetExit(&Exit{Direction: In, To: "yard", Keyword: "portal"}))
	require.NoError(t, g.Resolve())

	loc := newMapLocator()
	m := NewMover(g, loc)
	_, err := m.Teleport(3, "hall")
	require.NoError(t, err)

	exit, ok := hall.ExitByKeyword("PORTAL")
	require.True(t, ok)
	res, err := m.MoveVia(3, exit)
	require.NoError(t, err)
	assert.Equal(t, In, res.Dir)

	require.NoError(t, m.Extract(3))
	assert.Empty(t, g.Occupants("yard"))
	_, placed := loc.Location(3)
	assert.False(t, placed)
	assert.ErrorIs(t, m.Extract(3), ErrNotPlaced)
}

func TestRelocateAndWithdrawAreSilent(t *testing.T) {
	g := twoRooms(t)
	loc := newMapLocator()
	events := bus.New()
	var seen []string
	for _, typ := range []string{EventDeparted, EventArrived} {
		_, err := events.Subscribe(typ, func(e bus.Event) error {
			seen = append(seen, e.Type())
			return nil
		})
		require.NoError(t, err)
	}
	m := NewMover(g, loc, WithBus(events))

	const ghost models.EntityID = 9
	res, err := m.Relocate(ghost, "hall")
	require.NoError(t, err)
	assert.True(t, res.Moved)
	res, err = m.Relocate(ghost, "yard")
	require.NoError(t, err)
	assert.Equal(t, RoomKey("hall"), res.From)
	assert.Empty(t, g.Occupants("hall"))
	assert.Equal(t, []models.EntityID{ghost}, g.Occupants("yard"))

	require.NoError(t, m.Withdraw(ghost))
	assert.Empty(t, g.Occupants("yard"))
	_, placed := loc.Location(ghost)
	assert.False(t, placed)
	assert.Empty(t, seen)

	_, err = m.Relocate(ghost, "nowhere")
	var b *Blocked
	require.ErrorAs(t, err, &b)
	assert.Equal(t, StepResolve, b.Step)
}

func TestZoneAdvance(t *testing.T) {
	z := &Zone{Key: "z", Lifespan: 2}
	assert.False(t, z.Advance())
	assert.True(t, z.Advance())
	assert.Equal(t, 0, z.Age())
	assert.False(t, (&Zone{}).Advance(), "zero lifespan never resets")
}
