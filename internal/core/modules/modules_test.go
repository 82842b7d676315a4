package modules

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/internal/core/serializer"
)

var content = fstest.MapFS{
	"core/meta.yaml": {Data: []byte("description: base content\n")},
	"core/zones/town.yaml": {Data: []byte(`
name: Town
lifespan: 3
rooms:
  - key: square
    name: Town Square
    description: A dusty square.
    exits:
      north: {to: gate}
      in: {to: inn, keyword: door, flags: [closed]}
  - key: gate
    name: North Gate
    gravity: 0.5
    exits:
      s: {to: square}
  - key: inn
    name: The Inn
    exits:
      out: {to: square}
spawns:
  - prototype: guard
    room: gate
    count: 2
`)},
	"core/prototypes/guard.yaml": {Data: []byte(`
Name: a guard
ShortDescription: A guard watches the road.
NPC: {}
`)},
	"extra/meta.yaml": {Data: []byte("name: extra\npriority: -1\n")},
	"notes.txt":       {Data: []byte("not a module")},
	"stray/readme.md": {Data: []byte("no meta, not a module")},
}

type fixture struct {
	store *models.Store
	graph *navigation.Graph
	ser   *serializer.Serializer
	reg   *Registry
	mover *navigation.Mover
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := models.NewStore()
	graph := navigation.NewGraph()
	table, err := components.NewRegistry(graph)
	require.NoError(t, err)
	ser := serializer.New(store, table)
	f := &fixture{
		store: store,
		graph: graph,
		ser:   ser,
		reg:   NewRegistry(ser, nil),
		mover: navigation.NewMover(graph, components.NewLocations(store, graph)),
	}
	require.NoError(t, f.reg.LoadFS(context.Background(), content))
	require.NoError(t, f.reg.Install(graph))
	return f
}

func TestLoadFS(t *testing.T) {
	mods, err := LoadFS(context.Background(), content)
	require.NoError(t, err)
	require.Len(t, mods, 2)

	assert.Equal(t, "extra", mods[0].Name, "lower priority loads first")
	core := mods[1]
	assert.Equal(t, "core", core.Name, "name defaults to the directory")
	assert.Equal(t, "base content", core.Description)

	require.Len(t, core.Zones(), 1)
	zone := core.Zones()[0]
	assert.Equal(t, "town", zone.Key, "zone key defaults to the file name")
	assert.Len(t, zone.Rooms, 3)

	assert.Equal(t, []string{"guard"}, core.Prototypes())
	guard, ok := core.Prototype("guard")
	require.True(t, ok)
	assert.Equal(t, "a guard", guard.Data["Name"])
	assert.Equal(t, components.Prototype{Module: "core", Prototype: "guard"}, guard.Data["Prototype"])
}

func TestLoadFSReportsBrokenFile(t *testing.T) {
	broken := fstest.MapFS{
		"bad/meta.yaml":         {Data: []byte("name: bad\n")},
		"bad/zones/broken.yaml": {Data: []byte("rooms: [unclosed\n")},
	}
	_, err := LoadFS(context.Background(), broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad/zones/broken.yaml")
}

func TestInstall(t *testing.T) {
	f := newFixture(t)

	square, ok := f.graph.Room("square")
	require.True(t, ok)
	assert.Equal(t, "Town Square", square.Name)
	assert.Equal(t, "town", square.Zone)

	north, ok := square.Exit(navigation.North)
	require.True(t, ok)
	require.NotNil(t, north.Destination())
	assert.Equal(t, navigation.RoomKey("gate"), north.Destination().Key)

	door, ok := square.ExitByKeyword("door")
	require.True(t, ok)
	assert.True(t, door.HasFlag(navigation.FlagClosed))

	gate, _ := f.graph.Room("gate")
	assert.InDelta(t, 0.5, gate.Gravity, 1e-9)
	inn, _ := f.graph.Room("inn")
	assert.InDelta(t, 1.0, inn.Gravity, 1e-9, "gravity defaults to standard")

	zone, ok := f.graph.Zone("town")
	require.True(t, ok)
	assert.Equal(t, 3, zone.Lifespan)
}

func TestInstallRejectsDanglingExit(t *testing.T) {
	store := models.NewStore()
	graph := navigation.NewGraph()
	table, err := components.NewRegistry(graph)
	require.NoError(t, err)
	reg := NewRegistry(serializer.New(store, table), nil)

	m := NewModule(Meta{Name: "lost"})
	m.AddZone(ZoneFile{Key: "void", Rooms: []RoomFile{{
		Key:   "edge",
		Exits: map[string]ExitFile{"east": {To: "nowhere"}},
	}}})
	require.NoError(t, reg.Add(m))

	assert.ErrorIs(t, reg.Install(graph), navigation.ErrDanglingExit)
	assert.ErrorIs(t, reg.Add(NewModule(Meta{Name: "lost"})), ErrDuplicateModule)
}

func TestInstallRejectsUnknownDirection(t *testing.T) {
	store := models.NewStore()
	graph := navigation.NewGraph()
	table, err := components.NewRegistry(graph)
	require.NoError(t, err)
	reg := NewRegistry(serializer.New(store, table), nil)

	m := NewModule(Meta{Name: "odd"})
	m.AddZone(ZoneFile{Key: "z", Rooms: []RoomFile{{
		Key:   "r",
		Exits: map[string]ExitFile{"sideways": {To: "r"}},
	}}})
	require.NoError(t, reg.Add(m))

	assert.ErrorIs(t, reg.Install(graph), navigation.ErrUnknownDirection)
}

func TestSpawn(t *testing.T) {
	f := newFixture(t)

	ent, err := f.reg.Spawn("core", "guard")
	require.NoError(t, err)

	ident, ok := models.Get[*components.Identity](f.store, ent)
	require.True(t, ok)
	assert.Equal(t, "core", ident.Module)
	assert.True(t, strings.HasPrefix(ident.ID, "guard-"))

	found, ok := f.reg.Entity(ident.Key())
	require.True(t, ok)
	assert.Equal(t, ent, found)

	assert.Equal(t, "a guard", components.DisplayName(f.store, ent, ""))
	assert.True(t, f.store.HasComponent(ent, components.InventoryType), "npc integrity adds an inventory")
	assert.True(t, f.store.HasComponent(ent, components.WearSlotsType))

	other, err := f.reg.SpawnRef("core:guard")
	require.NoError(t, err)
	otherIdent, _ := models.Get[*components.Identity](f.store, other)
	assert.NotEqual(t, ident.ID, otherIdent.ID)

	guard, _ := f.reg.modules["core"].Prototype("guard")
	assert.Len(t, guard.Instances(), 2)

	f.store.Delete(ent)
	_, ok = f.reg.Entity(ident.Key())
	assert.False(t, ok, "deleted entities do not resolve")

	_, err = f.reg.Spawn("core", "dragon")
	assert.ErrorIs(t, err, ErrUnknownPrototype)
	_, err = f.reg.Spawn("nope", "guard")
	assert.ErrorIs(t, err, ErrUnknownModule)
	_, err = f.reg.SpawnRef("guard")
	assert.ErrorIs(t, err, ErrUnknownPrototype)
}

func TestRegisterOnLoad(t *testing.T) {
	f := newFixture(t)

	rec := registry.Record{
		"Name":     "a lantern",
		"EntityID": map[string]any{"module_name": "core", "prototype": "guard", "ent_id": "lantern-1"},
	}
	ent, err := f.ser.Deserialize(rec, true)
	require.NoError(t, err)
	found, ok := f.reg.Entity("core:lantern-1")
	require.True(t, ok)
	assert.Equal(t, ent, found)

	f.reg.Forget(f.store, ent)
	_, ok = f.reg.Entity("core:lantern-1")
	assert.False(t, ok)

	anon, err := f.ser.Deserialize(registry.Record{"Name": "a pebble"}, true)
	assert.ErrorIs(t, err, serializer.ErrNoIdentity)
	assert.True(t, f.store.Exists(anon), "the entity survives without an index entry")

	_, err = f.ser.Deserialize(registry.Record{
		"EntityID": map[string]any{"module_name": "ghost", "prototype": "x", "ent_id": "x-1"},
	}, true)
	assert.ErrorIs(t, err, ErrUnknownModule)
}

func TestResetZone(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []SpawnRule{{Prototype: "core:guard", Room: "gate", Count: 2}}, f.reg.SpawnRules("town"))

	spawned, err := f.reg.ResetZone("town", f.mover)
	require.NoError(t, err)
	require.Len(t, spawned, 2)
	assert.ElementsMatch(t, spawned, f.graph.Occupants("gate"))

	again, err := f.reg.ResetZone("town", f.mover)
	require.NoError(t, err)
	assert.Empty(t, again, "the zone is already full")

	f.store.Delete(spawned[0])
	refill, err := f.reg.ResetZone("town", f.mover)
	require.NoError(t, err)
	assert.Len(t, refill, 1)
	assert.Len(t, f.graph.Occupants("gate"), 2)

	// a guard that wandered off no longer counts
	_, err = f.mover.Teleport(spawned[1], "square")
	require.NoError(t, err)
	wandered, err := f.reg.ResetZone("town", f.mover)
	require.NoError(t, err)
	assert.Len(t, wandered, 1)
}
