package builtin

import (
	"strings"

	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/navigation"
)

func gotoCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "goto",
		Main:         MainEntity,
		Subs:         []string{SubPlay},
		HelpCategory: "Admin",
		Syntax:       "goto <room>",
		Summary:      "Teleport to a room by key.",
	}, commands.Behavior{
		Access: isAdmin,
		Execute: func(inv *commands.Invocation) error {
			key := navigation.RoomKey(strings.TrimSpace(inv.Input.Args))
			if key == "" {
				return commands.Errorf("Goto where?")
			}
			res, err := game.Mover().Teleport(inv.Actor.Entity, key)
			return afterMove(game, inv, res, err)
		},
	})
}

// atCommand runs a command as though the actor stood in another room. The visit is silent in
// both rooms. The actor is brought back afterwards unless the command itself moved them
// somewhere else; an actor who was nowhere goes back to being nowhere.
func atCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "at",
		Main:         MainEntity,
		Subs:         []string{SubPlay},
		HelpCategory: "Admin",
		Syntax:       "at <room> = <command>",
		Summary:      "Run a command somewhere else without going there.",
	}, commands.Behavior{
		Access: isAdmin,
		Execute: func(inv *commands.Invocation) error {
			if !inv.Input.HasRight || strings.TrimSpace(inv.Input.Right) == "" {
				return commands.Errorf("Usage: at <room> = <command>")
			}
			key := navigation.RoomKey(strings.TrimSpace(inv.Input.Left))
			ent := inv.Actor.Entity
			mover := game.Mover()

			var origin navigation.RoomKey
			if room, ok := mover.Where(ent); ok {
				origin = room.Key
			}
			if _, err := mover.Relocate(ent, key); err != nil {
				return commands.Errorf("There is no room %q.", key)
			}

			inv.Handler.Parse(inv.Input.Right)

			if !game.Store().Exists(ent) {
				return nil
			}
			if now, ok := mover.Where(ent); !ok || now.Key != key {
				return nil
			}
			if origin == "" {
				return mover.Withdraw(ent)
			}
			if _, ok := mover.Graph().Room(origin); !ok {
				return nil
			}
			_, err := mover.Relocate(ent, origin)
			return err
		},
	})
}
