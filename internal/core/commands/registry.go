package commands

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Mode is the immutable description of a handler: which commands it offers and how it treats input.
type Mode struct {
	Name string
	Main string
	Subs []string
	// PartialNormal and PartialSpecial enable prefix matching for each command tier.
	PartialNormal  bool
	PartialSpecial bool
	// TurnDelayed modes queue pushed input and drain it from Update.
	TurnDelayed bool
	// Specials returns commands tried before the registered ones, e.g. exits of the current room.
	Specials func(h *Handler) []Command
	// NoMatch replaces the default "No command for" reply.
	NoMatch func(h *Handler, line string)
	OnStart func(h *Handler)
	OnClose func(h *Handler)
}

func (m *Mode) validate(declared map[string]map[string]struct{}) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMode)
	}
	subs, ok := declared[m.Main]
	if !ok {
		return fmt.Errorf("mode %q main %q: %w", m.Name, m.Main, ErrUnknownCategory)
	}
	if len(m.Subs) == 0 {
		return fmt.Errorf("mode %q: %w: no sub categories", m.Name, ErrInvalidMode)
	}
	for _, sub := range m.Subs {
		if _, ok := subs[sub]; !ok {
			return fmt.Errorf("mode %q category %s/%s: %w", m.Name, m.Main, sub, ErrUnknownCategory)
		}
	}
	return nil
}

// Builder collects categories, commands and modes at startup.
type Builder struct {
	categories map[string]map[string]struct{}
	commands   map[string]map[string][]Command
	modes      map[string]*Mode
	errs       []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		categories: make(map[string]map[string]struct{}),
		commands:   make(map[string]map[string][]Command),
		modes:      make(map[string]*Mode),
	}
}

// Declare makes categories main/sub available. Repeat declarations are harmless.
func (b *Builder) Declare(main string, subs ...string) {
	if b.categories[main] == nil {
		b.categories[main] = make(map[string]struct{})
		b.commands[main] = make(map[string][]Command)
	}
	for _, sub := range subs {
		b.categories[main][sub] = struct{}{}
	}
}

// Register validates and adds commands. A malformed command is rejected here, never at match time.
func (b *Builder) Register(cmds ...Command) error {
	for _, cmd := range cmds {
		if err := b.validate(cmd); err != nil {
			return err
		}
		def := cmd.Definition()
		for _, sub := range def.Subs {
			b.commands[def.Main][sub] = append(b.commands[def.Main][sub], cmd)
		}
	}
	return nil
}

// MustRegister registers commands and remembers the first failure for Build to report.
func (b *Builder) MustRegister(cmds ...Command) {
	if err := b.Register(cmds...); err != nil {
		b.errs = append(b.errs, err)
	}
}

// RegisterMode adds a handler mode.
func (b *Builder) RegisterMode(m Mode) error {
	if err := m.validate(b.categories); err != nil {
		return err
	}
	if _, dup := b.modes[m.Name]; dup {
		return fmt.Errorf("mode %q: %w: duplicate", m.Name, ErrInvalidMode)
	}
	mode := m
	mode.Subs = slices.Clone(m.Subs)
	b.modes[m.Name] = &mode
	return nil
}

func (b *Builder) validate(cmd Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	def := cmd.Definition()
	if def == nil {
		return fmt.Errorf("%w: %T has no definition", ErrInvalidCommand, cmd)
	}
	if strings.TrimSpace(def.Name) == "" || strings.ContainsAny(def.Name, " \t") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidCommand, def.Name)
	}
	if def.Main == "" {
		return fmt.Errorf("%w: %q has no main category", ErrInvalidCommand, def.Name)
	}
	if len(def.Subs) == 0 {
		return fmt.Errorf("%w: %q has no sub category", ErrInvalidCommand, def.Name)
	}
	if def.MinText != "" && !strings.HasPrefix(strings.ToLower(def.Name), strings.ToLower(def.MinText)) {
		return fmt.Errorf("%w: %q min text %q is not a prefix", ErrInvalidCommand, def.Name, def.MinText)
	}
	subs, ok := b.categories[def.Main]
	if !ok {
		return fmt.Errorf("command %q main %q: %w", def.Name, def.Main, ErrUnknownCategory)
	}
	for _, sub := range def.Subs {
		if _, ok := subs[sub]; !ok {
			return fmt.Errorf("command %q category %s/%s: %w", def.Name, def.Main, sub, ErrUnknownCategory)
		}
	}
	return nil
}

// Build freezes the registry. Each category list is stably sorted by ascending priority, so
// equal priorities keep registration order.
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	r := &Registry{
		categories: make(map[string][]string, len(b.categories)),
		commands:   make(map[string]map[string][]Command, len(b.commands)),
		modes:      make(map[string]*Mode, len(b.modes)),
	}
	for main, subs := range b.categories {
		names := make([]string, 0, len(subs))
		for sub := range subs {
			names = append(names, sub)
		}
		slices.Sort(names)
		r.categories[main] = names
	}
	for main, bySub := range b.commands {
		r.commands[main] = make(map[string][]Command, len(bySub))
		for sub, cmds := range bySub {
			sorted := slices.Clone(cmds)
			sortByPriority(sorted)
			r.commands[main][sub] = sorted
		}
	}
	for name, m := range b.modes {
		r.modes[name] = m
	}
	return r, nil
}

// Registry is the immutable command table.
type Registry struct {
	categories map[string][]string
	commands   map[string]map[string][]Command
	modes      map[string]*Mode
}

// Commands returns the commands of main across subs: concatenated in sub order, then stably
// sorted by priority. The result is a fresh slice.
func (r *Registry) Commands(main string, subs ...string) []Command {
	var out []Command
	for _, sub := range subs {
		out = append(out, r.commands[main][sub]...)
	}
	sortByPriority(out)
	return out
}

// Mode looks up a handler mode.
func (r *Registry) Mode(name string) (*Mode, bool) {
	m, ok := r.modes[name]
	return m, ok
}

// Modes lists registered mode names, sorted.
func (r *Registry) Modes() []string {
	out := make([]string, 0, len(r.modes))
	for name := range r.modes {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Categories returns the declared sub categories of main, sorted.
func (r *Registry) Categories(main string) []string {
	return slices.Clone(r.categories[main])
}

func sortByPriority(cmds []Command) {
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].Definition().Priority < cmds[j].Definition().Priority
	})
}
