// Package world runs the simulation: one goroutine owns the entity store, the room graph and
// every command handler, and everything else talks to it through an inbox of closures.
package world

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/commands/builtin"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/events/bus"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/modules"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/internal/core/serializer"
	"github.com/zeusync/mudcore/internal/core/storage"
)

// Options holds the simulation settings.
type Options struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	// MoveDelay is how many ticks one step costs.
	MoveDelay int
	StartRoom navigation.RoomKey
	// Admins lists accounts that get builtin.AdminLevel.
	Admins []string
	// InboxSize bounds the queue of pending closures.
	InboxSize int
}

// DefaultOptions returns the settings used when none are given.
func DefaultOptions() Options {
	return Options{
		TickInterval:     100 * time.Millisecond,
		AutosaveInterval: 5 * time.Minute,
		MoveDelay:        1,
		StartRoom:        "start",
		InboxSize:        1024,
	}
}

// ZoneResetHook runs after a zone has aged out and been topped up.
type ZoneResetHook func(zone *navigation.Zone, spawned []models.EntityID)

// World is the running game.
type World struct {
	opts     Options
	store    *models.Store
	graph    *navigation.Graph
	ser      *serializer.Serializer
	modules  *modules.Registry
	mover    *navigation.Mover
	bus      bus.EventBus
	commands *commands.Registry
	storage  storage.Storage
	logger   log.Log

	inbox   chan func()
	done    chan struct{}
	running int32
	tick    atomic.Uint64

	sessions map[string]*Session
	order    []string
	// offline holds the saved form of every character not in play, by lower-case name.
	offline      map[string]registry.Record
	online       map[string]models.EntityID
	lastPlayerID int64

	resetHooks    []ZoneResetHook
	extraCommands []func(b *commands.Builder, w *World) error
	acceptor      navigation.Acceptor

	saves   chan map[string][]registry.Record
	writers sync.WaitGroup
}

var _ builtin.Game = (*World)(nil)

// Option configures a World.
type Option func(*World) error

// WithCommands lets content add categories, commands and modes next to the built-in ones.
func WithCommands(register func(b *commands.Builder, w *World) error) Option {
	return func(w *World) error {
		w.extraCommands = append(w.extraCommands, register)
		return nil
	}
}

// WithAcceptor installs a destination check used by every move.
func WithAcceptor(a navigation.Acceptor) Option {
	return func(w *World) error {
		w.acceptor = a
		return nil
	}
}

// New assembles a world around an already built store, graph and serializer. Content is
// loaded separately by Boot.
func New(
	opts Options,
	store *models.Store,
	graph *navigation.Graph,
	ser *serializer.Serializer,
	mods *modules.Registry,
	events bus.EventBus,
	st storage.Storage,
	logger log.Log,
	options ...Option,
) (*World, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultOptions().InboxSize
	}
	w := &World{
		opts:     opts,
		store:    store,
		graph:    graph,
		ser:      ser,
		modules:  mods,
		bus:      events,
		storage:  st,
		logger:   logger.With(log.String("component", "world")),
		inbox:    make(chan func(), opts.InboxSize),
		done:     make(chan struct{}),
		sessions: make(map[string]*Session),
		offline:  make(map[string]registry.Record),
		online:   make(map[string]models.EntityID),
	}
	for _, opt := range options {
		if err := opt(w); err != nil {
			return nil, err
		}
	}

	moverOpts := []navigation.MoverOption{navigation.WithBus(events), navigation.WithLogger(w.logger)}
	if w.acceptor != nil {
		moverOpts = append(moverOpts, navigation.WithAcceptor(w.acceptor))
	}
	w.mover = navigation.NewMover(graph, components.NewLocations(store, graph), moverOpts...)

	b := commands.NewBuilder()
	if err := builtin.Register(b, w); err != nil {
		return nil, err
	}
	for _, register := range w.extraCommands {
		if err := register(b, w); err != nil {
			return nil, err
		}
	}
	reg, err := b.Build()
	if err != nil {
		return nil, err
	}
	w.commands = reg

	if err := w.subscribe(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) Store() *models.Store     { return w.store }
func (w *World) Mover() *navigation.Mover { return w.mover }
func (w *World) MoveDelay() int           { return w.opts.MoveDelay }

// Graph returns the room graph.
func (w *World) Graph() *navigation.Graph {
	return w.graph
}

// Commands returns the command table.
func (w *World) Commands() *commands.Registry {
	return w.commands
}

// Modules returns the content registry.
func (w *World) Modules() *modules.Registry {
	return w.modules
}

// Tick returns the number of ticks run so far. It is safe from any goroutine.
func (w *World) Tick() uint64 {
	return w.tick.Load()
}

// OnZoneReset registers a hook run after every zone reset.
func (w *World) OnZoneReset(hook ZoneResetHook) {
	w.resetHooks = append(w.resetHooks, hook)
}

// EntityController returns the command controller of a Controlled entity.
func (w *World) EntityController(id models.EntityID) (*commands.Controller, bool) {
	c, ok := models.Get[*components.Controlled](w.store, id)
	if !ok || c.Controller == nil {
		return nil, false
	}
	return c.Controller, true
}

func (w *World) isRunning() bool {
	return atomic.LoadInt32(&w.running) == 1
}

func (w *World) isAdmin(account string) bool {
	return account != "" && slices.Contains(w.opts.Admins, account)
}
