package builtin

import (
	"errors"
	"strings"

	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/navigation"
)

func directionCommands(game Game) []commands.Command {
	dirs := navigation.Directions()
	out := make([]commands.Command, 0, len(dirs))
	for _, dir := range dirs {
		out = append(out, commands.Define(commands.Definition{
			Name:         dir.String(),
			Aliases:      []string{strings.ToLower(dir.Abbreviation())},
			Main:         MainEntity,
			Subs:         []string{SubPlay},
			Priority:     -10,
			HelpCategory: "Movement",
			Summary:      "Walk " + dir.String() + ".",
		}, commands.Behavior{
			Access: hasEntity,
			Execute: func(inv *commands.Invocation) error {
				res, err := game.Mover().Move(inv.Actor.Entity, dir)
				return afterMove(game, inv, res, err)
			},
		}))
	}
	return out
}

func goCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "go",
		Main:         MainEntity,
		Subs:         []string{SubPlay},
		HelpCategory: "Movement",
		Syntax:       "go <direction|keyword>",
		Summary:      "Walk through an exit by direction or by its keyword.",
	}, commands.Behavior{
		Access: hasEntity,
		Execute: func(inv *commands.Invocation) error {
			target := strings.TrimSpace(inv.Input.Args)
			if target == "" {
				return commands.Errorf("Go where?")
			}
			ent := inv.Actor.Entity
			if dir, ok := navigation.ParseDir(target); ok {
				res, err := game.Mover().Move(ent, dir)
				return afterMove(game, inv, res, err)
			}
			room, ok := game.Mover().Where(ent)
			if !ok {
				return commands.Errorf("You are not anywhere you could leave.")
			}
			exit, ok := room.ExitByKeyword(target)
			if !ok || !exit.VisibleTo(ent) {
				return commands.Errorf("You can't find a way to go there.")
			}
			res, err := game.Mover().MoveVia(ent, exit)
			return afterMove(game, inv, res, err)
		},
	})
}

// exitSpecials offers the keywords of the visible exits around the entity as commands.
func exitSpecials(game Game) func(h *commands.Handler) []commands.Command {
	return func(h *commands.Handler) []commands.Command {
		ent := h.Owner().Actor().Entity
		room, ok := game.Mover().Where(ent)
		if !ok {
			return nil
		}
		var out []commands.Command
		for _, exit := range room.VisibleExits(ent) {
			if exit.Keyword == "" {
				continue
			}
			keyword := exit.Keyword
			out = append(out, commands.Define(commands.Definition{
				Name: keyword,
				Main: MainEntity,
				Subs: []string{SubPlay},
			}, commands.Behavior{
				Match: func(_ *commands.Definition, in commands.Input, partial bool) bool {
					line := strings.ToLower(in.Line)
					kw := strings.ToLower(keyword)
					if line == kw {
						return true
					}
					return partial && len(line) >= 3 && strings.HasPrefix(kw, line)
				},
				Execute: func(inv *commands.Invocation) error {
					res, err := game.Mover().MoveVia(inv.Actor.Entity, exit)
					return afterMove(game, inv, res, err)
				},
			}))
		}
		return out
	}
}

// afterMove turns a refusal into a message for the mover, or charges the step and shows the
// new room.
func afterMove(game Game, inv *commands.Invocation, res navigation.MoveResult, err error) error {
	if err != nil {
		var b *navigation.Blocked
		if errors.As(err, &b) {
			return commands.Errorf("%s", b.Reason)
		}
		return err
	}
	if res.Moved {
		inv.Handler.SetWait(game.MoveDelay())
	}
	inv.Send(describeRoom(game, inv.Actor.Entity))
	return nil
}
