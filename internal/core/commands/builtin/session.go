package builtin

import (
	"sort"
	"strings"
	"unicode"

	"github.com/zeusync/mudcore/internal/core/commands"
)

func createCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "create",
		Main:         MainConnection,
		Subs:         []string{SubLogin},
		MinText:      "cr",
		HelpCategory: "Account",
		Syntax:       "create <name>",
		Summary:      "Make a new character.",
	}, commands.Behavior{
		Execute: func(inv *commands.Invocation) error {
			name, err := characterName(inv.Input.Args)
			if err != nil {
				return err
			}
			if err := game.CreateCharacter(inv.Actor.Account, name); err != nil {
				return err
			}
			inv.Send("Character " + name + " created. Type 'connect " + name + "' to play.")
			return nil
		},
	})
}

func connectCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "connect",
		Aliases:      []string{"play"},
		Main:         MainConnection,
		Subs:         []string{SubLogin},
		MinText:      "con",
		HelpCategory: "Account",
		Syntax:       "connect <name>",
		Summary:      "Enter the world as one of your characters.",
	}, commands.Behavior{
		Execute: func(inv *commands.Invocation) error {
			name, err := characterName(inv.Input.Args)
			if err != nil {
				return err
			}
			return game.Puppet(inv.Actor.Session, name)
		},
	})
}

func quitCommand(game Game) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "quit",
		Main:         MainConnection,
		Subs:         []string{SubUniversal},
		HelpCategory: "Account",
		Summary:      "Save and disconnect.",
	}, commands.Behavior{
		// Partial matching stays off so a stray "q" cannot end the session.
		Match: func(def *commands.Definition, in commands.Input, _ bool) bool {
			return def.Matches(in, false)
		},
		Execute: func(inv *commands.Invocation) error {
			inv.Send("Goodbye!")
			game.Quit(inv.Actor.Session)
			return nil
		},
	})
}

func helpCommand(main string) commands.Command {
	return commands.Define(commands.Definition{
		Name:         "help",
		Main:         main,
		Subs:         []string{SubUniversal},
		MinText:      "he",
		HelpCategory: "Information",
		Syntax:       "help [<command>]",
		Summary:      "List commands, or explain one.",
	}, commands.Behavior{
		Execute: func(inv *commands.Invocation) error {
			topic := strings.TrimSpace(inv.Input.Args)
			if topic == "" {
				inv.Send(helpIndex(inv.Context))
				return nil
			}
			in, ok := commands.ParseInput(topic)
			if ok {
				for _, cmd := range inv.Handler.Commands() {
					if cmd.Access(inv.Context) && cmd.Match(in, true) {
						inv.Send(cmd.Help(inv.Context))
						return nil
					}
				}
			}
			return commands.Errorf("No help for: %s", topic)
		},
	})
}

func helpIndex(ctx *commands.Context) string {
	byCategory := make(map[string][]string)
	seen := make(map[string]bool)
	for _, cmd := range ctx.Handler.Commands() {
		def := cmd.Definition()
		if seen[def.Name] || !cmd.Access(ctx) {
			continue
		}
		seen[def.Name] = true
		cat := def.HelpCategory
		if cat == "" {
			cat = "General"
		}
		byCategory[cat] = append(byCategory[cat], def.Name)
	}
	cats := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var b strings.Builder
	b.WriteString("Available commands:")
	for _, cat := range cats {
		b.WriteString("\n  ")
		b.WriteString(cat)
		b.WriteString(": ")
		b.WriteString(strings.Join(byCategory[cat], ", "))
	}
	return b.String()
}

// characterName checks a character name: one word of letters, stored capitalized.
func characterName(args string) (string, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return "", commands.Errorf("You must give a name.")
	}
	if len(name) < 2 || len(name) > 20 {
		return "", commands.Errorf("Names must be between 2 and 20 letters long.")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return "", commands.Errorf("Names may only contain letters.")
		}
	}
	lower := []rune(strings.ToLower(name))
	lower[0] = unicode.ToUpper(lower[0])
	return string(lower), nil
}
