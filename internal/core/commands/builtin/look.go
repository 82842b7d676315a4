package builtin

import (
	"strings"

	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/components"
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
)

func lookCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "look",
		Aliases:      []string{"l"},
		Main:         MainEntity,
		Subs:         []string{SubUniversal},
		MinText:      "lo",
		HelpCategory: "Information",
		Syntax:       "look [<direction>|<someone>]",
		Summary:      "Describe your surroundings, an exit or someone nearby.",
	}, commands.Behavior{
		Access: hasEntity,
		Execute: func(inv *commands.Invocation) error {
			target := strings.TrimSpace(inv.Input.Args)
			if target == "" {
				inv.Send(describeRoom(game, inv.Actor.Entity))
				return nil
			}
			text, err := lookAt(game, inv.Actor.Entity, target)
			if err != nil {
				return err
			}
			inv.Send(text)
			return nil
		},
	})
}

// describeRoom renders the room viewer stands in as plain text.
func describeRoom(game Game, viewer models.EntityID) string {
	room, ok := game.Mover().Where(viewer)
	if !ok {
		return "You are nowhere at all."
	}
	var b strings.Builder
	b.WriteString(room.Name)
	if room.Description != "" {
		b.WriteString("\n")
		b.WriteString(room.Description)
	}

	exits := room.VisibleExits(viewer)
	b.WriteString("\nExits: ")
	if len(exits) == 0 {
		b.WriteString("none")
	}
	for i, e := range exits {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Direction.String())
	}

	store := game.Store()
	for _, other := range room.Occupants() {
		if other == viewer {
			continue
		}
		if short, ok := models.Get[*components.ShortDescription](store, other); ok && short.Text != "" {
			b.WriteString("\n")
			b.WriteString(short.Text)
			continue
		}
		b.WriteString("\n")
		b.WriteString(components.DisplayName(store, other, "Something"))
		b.WriteString(" is here.")
	}
	return b.String()
}

func lookAt(game Game, viewer models.EntityID, target string) (string, error) {
	room, ok := game.Mover().Where(viewer)
	if !ok {
		return "", commands.Errorf("You are nowhere at all.")
	}
	if dir, ok := navigation.ParseDir(target); ok {
		exit, ok := room.Exit(dir)
		if !ok || !exit.VisibleTo(viewer) {
			return "", commands.Errorf("You see nothing special %s.", toward(dir))
		}
		if exit.Description != "" {
			return exit.Description, nil
		}
		if dest := exit.Destination(); dest != nil {
			return "You see " + dest.Name + " " + toward(dir) + ".", nil
		}
		return "You see nothing special " + toward(dir) + ".", nil
	}

	store := game.Store()
	for _, other := range room.Occupants() {
		name := components.DisplayName(store, other, "")
		if !nameMatches(name, target) {
			continue
		}
		if long, ok := models.Get[*components.LongDescription](store, other); ok && long.Text != "" {
			return long.Text, nil
		}
		if desc, ok := models.Get[*components.Description](store, other); ok && desc.Text != "" {
			return desc.Text, nil
		}
		return "You see nothing special about " + name + ".", nil
	}
	if ex, ok := models.Get[*components.ExDescriptions](store, viewer); ok {
		if text, ok := ex.Lookup(target); ok {
			return text, nil
		}
	}
	return "", commands.Errorf("You don't see that here.")
}

// toward phrases a direction as seen from the room: "to the north", "above", "inside".
func toward(dir navigation.ExitDir) string {
	desc := dir.Describe()
	if strings.HasPrefix(desc, "the ") {
		return "to " + desc
	}
	return desc
}

// nameMatches reports whether target is a prefix of the name or of one of its words.
func nameMatches(name, target string) bool {
	name, target = strings.ToLower(name), strings.ToLower(target)
	if name == "" || target == "" {
		return false
	}
	if strings.HasPrefix(name, target) {
		return true
	}
	for _, word := range strings.Fields(name) {
		if strings.HasPrefix(word, target) {
			return true
		}
	}
	return false
}
