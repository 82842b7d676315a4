// Package builtin holds the command set every world ships with: logging in, puppeting a
// character, moving around and looking at things.
package builtin

import (
	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
)

// Main categories.
const (
	MainConnection = "connection"
	MainEntity     = "entity"
)

// Sub categories.
const (
	SubLogin     = "login"
	SubUniversal = "universal"
	SubPlay      = "play"
)

// Handler modes.
const (
	ModeLogin  = "login"
	ModePuppet = "puppet"
	ModePlay   = "play"
)

// AdminLevel is the actor level needed for staff commands.
const AdminLevel = 1

// Game is what the built-in commands need from the running world.
type Game interface {
	Store() *models.Store
	Mover() *navigation.Mover
	// MoveDelay is how many ticks one step costs the mover.
	MoveDelay() int
	// CreateCharacter stores a new character for account; it is not put into the world.
	CreateCharacter(account, name string) error
	// Puppet binds the session to the named character and switches it to puppet mode.
	Puppet(session, name string) error
	// Quit saves and disconnects the session.
	Quit(session string)
	EntityController(id models.EntityID) (*commands.Controller, bool)
}

// Register declares the built-in categories, commands and modes on b.
func Register(b *commands.Builder, game Game) error {
	b.Declare(MainConnection, SubLogin, SubUniversal)
	b.Declare(MainEntity, SubPlay, SubUniversal)

	b.MustRegister(directionCommands(game)...)
	b.MustRegister(
		goCommand(game),
		lookCommand(game),
		gotoCommand(game),
		atCommand(game),
		helpCommand(MainEntity),
		helpCommand(MainConnection),
		createCommand(game),
		connectCommand(game),
		quitCommand(game),
	)

	modes := []commands.Mode{
		{
			Name:          ModeLogin,
			Main:          MainConnection,
			Subs:          []string{SubLogin, SubUniversal},
			PartialNormal: true,
			OnStart: func(h *commands.Handler) {
				h.Send("Welcome! Type 'create <name>' to make a character or 'connect <name>' to play one.")
			},
		},
		{
			Name:          ModePuppet,
			Main:          MainConnection,
			Subs:          []string{SubUniversal},
			PartialNormal: true,
			NoMatch:       forwardToPuppet(game),
		},
		{
			Name:          ModePlay,
			Main:          MainEntity,
			Subs:          []string{SubPlay, SubUniversal},
			PartialNormal: true,
			TurnDelayed:   true,
			Specials:      exitSpecials(game),
			OnStart: func(h *commands.Handler) {
				if ent := h.Owner().Actor().Entity; ent.Valid() {
					h.Send(describeRoom(game, ent))
				}
			},
		},
	}
	for _, m := range modes {
		if err := b.RegisterMode(m); err != nil {
			return err
		}
	}
	return nil
}

// forwardToPuppet hands input the connection does not understand to the puppeted entity.
func forwardToPuppet(game Game) func(h *commands.Handler, line string) {
	return func(h *commands.Handler, line string) {
		ent := h.Owner().Actor().Entity
		if ctrl, ok := game.EntityController(ent); ok && game.Store().Exists(ent) {
			if err := ctrl.Push(line); err == nil {
				return
			}
		}
		h.Send(commands.NoMatchMessage(line))
	}
}

func hasEntity(ctx *commands.Context) bool {
	return ctx.HasEntity()
}

func isAdmin(ctx *commands.Context) bool {
	return ctx.HasEntity() && ctx.Actor.Level >= AdminLevel
}
