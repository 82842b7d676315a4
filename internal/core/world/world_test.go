package world

import (
	"context"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/mudcore/internal/core/commands/builtin"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/modules"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/internal/core/serializer"
	"github.com/zeusync/mudcore/internal/core/storage"
)

var content = fstest.MapFS{
	"town/meta.yaml": {Data: []byte("description: test town\n")},
	"town/zones/town.yaml": {Data: []byte(`
name: Town
lifespan: 3
rooms:
  - key: square
    name: Town Square
    description: A dusty square.
    exits:
      north: {to: gate}
  - key: gate
    name: North Gate
    exits:
      south: {to: square}
spawns:
  - prototype: guard
    room: gate
`)},
	"town/prototypes/guard.yaml": {Data: []byte(`
Name: a guard
NPC: {}
`)},
}

type fakeConn struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (c *fakeConn) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, text)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

func (c *fakeConn) last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newWorld(t *testing.T, st storage.Storage, opts Options) *World {
	t.Helper()
	store := models.NewStore()
	graph := navigation.NewGraph()
	table, err := components.NewRegistry(graph)
	require.NoError(t, err)
	ser := serializer.New(store, table)
	mods := modules.NewRegistry(ser, nil)

	w, err := New(opts, store, graph, ser, mods, bus.New(), st, nil)
	require.NoError(t, err)
	require.NoError(t, w.Boot(context.Background(), content))
	return w
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.StartRoom = "square"
	opts.Admins = []string{"root"}
	return opts
}

// input pushes a line and lets the simulation pick it up.
func input(w *World, session, line string) {
	w.Input(session, line)
	w.RunPending()
}

func login(t *testing.T, w *World, session, account, name string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	require.True(t, w.Connect(session, account, conn))
	w.RunPending()
	input(w, session, "create "+name)
	input(w, session, "connect "+name)
	s, ok := w.Session(session)
	require.True(t, ok)
	require.True(t, s.Entity().Valid(), conn.text())
	return conn
}

func roomOf(t *testing.T, w *World, id models.EntityID) navigation.RoomKey {
	t.Helper()
	room, ok := w.Mover().Where(id)
	require.True(t, ok)
	return room.Key
}

func TestBootResetsZones(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	w := newWorld(t, st, testOptions())

	occupants := w.Graph().Occupants("gate")
	require.Len(t, occupants, 1)
	assert.Equal(t, "a guard", components.DisplayName(w.Store(), occupants[0], ""))

	ident, ok := models.Get[*components.Identity](w.Store(), occupants[0])
	require.True(t, ok)
	found, ok := w.Modules().Entity(ident.Key())
	require.True(t, ok)
	assert.Equal(t, occupants[0], found)
}

func TestBootNeedsStartRoom(t *testing.T) {
	store := models.NewStore()
	graph := navigation.NewGraph()
	table, err := components.NewRegistry(graph)
	require.NoError(t, err)
	ser := serializer.New(store, table)
	opts := testOptions()
	opts.StartRoom = "nowhere"

	w, err := New(opts, store, graph, ser, modules.NewRegistry(ser, nil), bus.New(), nil, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, w.Boot(context.Background(), content), ErrNoStartRoom)
}

func TestPlayerWalksAndOthersSee(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	w := newWorld(t, st, testOptions())

	alice := login(t, w, "s1", "acct-a", "alice")
	bob := login(t, w, "s2", "acct-b", "bob")
	assert.Contains(t, bob.text(), "Town Square")
	assert.Contains(t, alice.text(), "Bob appears.")

	bobSession, _ := w.Session("s2")
	bobID := bobSession.Entity()

	input(w, "s2", "north")
	assert.Equal(t, navigation.RoomKey("square"), roomOf(t, w, bobID), "movement waits for the tick")

	w.Step()
	assert.Equal(t, navigation.RoomKey("gate"), roomOf(t, w, bobID))
	assert.Contains(t, bob.last(), "North Gate")
	assert.Contains(t, alice.text(), "Bob leaves north.")

	input(w, "s2", "s")
	w.Step()
	assert.Equal(t, navigation.RoomKey("square"), roomOf(t, w, bobID))
	assert.Contains(t, alice.last(), "Bob arrives from the north.")
}

func TestMoveDelayHoldsQueuedInput(t *testing.T) {
	opts := testOptions()
	opts.MoveDelay = 2
	w := newWorld(t, nil, opts)
	login(t, w, "s1", "acct", "bob")
	s, _ := w.Session("s1")
	id := s.Entity()

	input(w, "s1", "north")
	input(w, "s1", "south")

	w.Step()
	assert.Equal(t, navigation.RoomKey("gate"), roomOf(t, w, id))
	w.Step()
	assert.Equal(t, navigation.RoomKey("gate"), roomOf(t, w, id), "still waiting")
	w.Step()
	assert.Equal(t, navigation.RoomKey("square"), roomOf(t, w, id))
}

func TestCharacterOwnership(t *testing.T) {
	w := newWorld(t, nil, testOptions())
	login(t, w, "s1", "acct-a", "alice")

	other := &fakeConn{}
	w.Connect("s2", "acct-b", other)
	w.RunPending()

	input(w, "s2", "create alice")
	assert.Contains(t, other.last(), "That name is taken.")

	input(w, "s2", "create carol")
	input(w, "s1", "quit")

	input(w, "s2", "connect alice")
	assert.Contains(t, other.last(), "does not belong to you")

	root := &fakeConn{}
	w.Connect("s3", "root", root)
	w.RunPending()
	input(w, "s3", "connect carol")
	s, _ := w.Session("s3")
	assert.True(t, s.Entity().Valid(), "admins may play any character")
	assert.Equal(t, builtin.AdminLevel, s.Level)
}

func TestQuitSavesCharacter(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	w := newWorld(t, st, testOptions())
	bob := login(t, w, "s1", "acct", "bob")

	input(w, "s1", "north")
	w.Step()
	input(w, "s1", "quit")

	assert.True(t, bob.isClosed())
	assert.Contains(t, bob.text(), "Goodbye!")
	_, ok := w.Session("s1")
	assert.False(t, ok)
	assert.Empty(t, w.Store().With(components.PlayerCharacterType).Collect(), "character leaves the world")

	recs, err := st.Load(context.Background(), charactersCollection)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Bob", recs[0]["Name"])
	room, err := registry.As[map[string]string](recs[0]["SaveInRoom"])
	require.NoError(t, err)
	assert.Equal(t, "gate", room["room"])

	// A fresh world over the same storage puts Bob back where he left.
	again := newWorld(t, st, testOptions())
	login2 := &fakeConn{}
	again.Connect("s9", "acct", login2)
	again.RunPending()
	input(again, "s9", "connect bob")
	s, _ := again.Session("s9")
	require.True(t, s.Entity().Valid(), login2.text())
	assert.Equal(t, navigation.RoomKey("gate"), roomOf(t, again, s.Entity()))
}

func TestSavedZonesAreRestored(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	w := newWorld(t, st, testOptions())
	guard := w.Graph().Occupants("gate")[0]
	_, err = w.Mover().Teleport(guard, "square")
	require.NoError(t, err)
	require.NoError(t, w.Save(context.Background()))

	again := newWorld(t, st, testOptions())
	assert.Len(t, again.Graph().Occupants("square"), 1, "the guard stays where it was saved")
	assert.Empty(t, again.Graph().Occupants("gate"), "a restored zone is not reset on boot")
}

func TestZoneAgingAndHooks(t *testing.T) {
	w := newWorld(t, nil, testOptions())
	guard := w.Graph().Occupants("gate")[0]
	require.NoError(t, w.MarkForRemoval(guard))

	var resets []string
	w.OnZoneReset(func(zone *navigation.Zone, spawned []models.EntityID) {
		resets = append(resets, zone.Key)
		assert.Len(t, spawned, 1)
	})
	var published []ZoneReset
	_, err := w.bus.SubscribeTopic(ZoneTopic("town"), EventZoneReset, func(e bus.Event) error {
		published = append(published, e.Data().(ZoneReset))
		return nil
	})
	require.NoError(t, err)

	w.Step()
	assert.False(t, w.Store().Exists(guard), "marked entities go at the end of the tick")
	assert.Empty(t, w.Graph().Occupants("gate"))

	w.Step()
	assert.Empty(t, resets)
	w.Step()
	assert.Equal(t, []string{"town"}, resets)
	require.Len(t, published, 1)
	assert.Equal(t, w.Graph().Occupants("gate"), published[0].Spawned)
	assert.Equal(t, uint64(3), w.Tick())
}

func TestPanicsStayInside(t *testing.T) {
	w := newWorld(t, nil, testOptions())
	ran := false
	w.Do(func() { panic("boom") })
	w.Do(func() { ran = true })
	assert.NotPanics(t, func() { w.RunPending() })
	assert.True(t, ran)
}

func TestRunSavesOnShutdown(t *testing.T) {
	st, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	opts := testOptions()
	opts.TickInterval = time.Millisecond
	w := newWorld(t, st, opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	conn := &fakeConn{}
	require.True(t, w.Connect("s1", "acct", conn))
	require.True(t, w.Input("s1", "create bob"))
	require.True(t, w.Input("s1", "connect bob"))
	require.Eventually(t, func() bool {
		return strings.Contains(conn.text(), "Town Square")
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("world did not stop")
	}
	assert.True(t, conn.isClosed())
	assert.False(t, w.Input("s1", "look"), "a stopped world takes no input")

	recs, err := st.Load(context.Background(), charactersCollection)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0], "SaveInRoom")

	zone, err := st.Load(context.Background(), zoneCollection("town"))
	require.NoError(t, err)
	assert.Len(t, zone, 1)
}
