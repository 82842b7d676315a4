package commands

import (
	"strings"

	"github.com/zeusync/mudcore/internal/core/models"
)

// Definition is the static metadata of a command.
type Definition struct {
	Name    string
	Aliases []string
	// Main and Subs place the command in categories; handlers select commands by category.
	Main string
	Subs []string
	// Priority orders candidates; lower values are tried first.
	Priority int
	// MinText enables partial matching: any prefix of Name at least this long matches.
	MinText      string
	HelpCategory string
	Syntax       string
	Summary      string
}

// Matches implements the default matching rule: exact name, then alias, then (when partial is
// allowed and MinText set) a prefix of the name at least as long as MinText. Case is ignored.
func (d *Definition) Matches(in Input, partial bool) bool {
	token := strings.ToLower(in.Cmd)
	if token == "" {
		return false
	}
	name := strings.ToLower(d.Name)
	if token == name {
		return true
	}
	for _, alias := range d.Aliases {
		if token == strings.ToLower(alias) {
			return true
		}
	}
	if partial && d.MinText != "" {
		return len(token) >= len(d.MinText) && strings.HasPrefix(name, token)
	}
	return false
}

// Actor is who a command runs as.
type Actor struct {
	Account string
	// Level is the administrative level; zero for ordinary players.
	Level   int
	Session string
	Entity  models.EntityID
}

// Owner is whatever a handler is bound to: a connection or a possessed entity.
type Owner interface {
	Send(text string)
	Actor() Actor
}

// Context is handed to access checks and command instances.
type Context struct {
	Handler *Handler
	Actor   Actor
}

// Send writes to the handler's owner.
func (c *Context) Send(text string) {
	c.Handler.Send(text)
}

// HasEntity reports whether the actor controls an entity.
func (c *Context) HasEntity() bool {
	return c.Actor.Entity.Valid()
}

// Command is a registered command variant.
type Command interface {
	Definition() *Definition
	Access(ctx *Context) bool
	Match(in Input, partial bool) bool
	Help(ctx *Context) string
	// New instantiates the command for one execution.
	New(ctx *Context, in Input) (Runner, error)
}

// Runner is one instance of a command.
type Runner interface {
	Execute() error
}

// PreExecutor may veto execution; returning false aborts silently.
type PreExecutor interface {
	PreExecute() bool
}

// PostExecutor runs after a successful Execute.
type PostExecutor interface {
	PostExecute() error
}

// Invocation is what a Func command's hooks receive.
type Invocation struct {
	*Context
	Input Input
	Def   *Definition
}

// Behavior is the behaviour of a Func command. Only Execute is required.
type Behavior struct {
	Access  func(ctx *Context) bool
	Match   func(def *Definition, in Input, partial bool) bool
	Help    func(ctx *Context) string
	Pre     func(inv *Invocation) bool
	Execute func(inv *Invocation) error
	Post    func(inv *Invocation) error
}

// Func is a Command assembled from functions.
type Func struct {
	def      Definition
	behavior Behavior
}

var _ Command = (*Func)(nil)

// Define builds a Func command. Validation happens when it is registered.
func Define(def Definition, behavior Behavior) *Func {
	return &Func{def: def, behavior: behavior}
}

func (f *Func) Definition() *Definition {
	return &f.def
}

func (f *Func) Access(ctx *Context) bool {
	if f.behavior.Access == nil {
		return true
	}
	return f.behavior.Access(ctx)
}

func (f *Func) Match(in Input, partial bool) bool {
	if f.behavior.Match != nil {
		return f.behavior.Match(&f.def, in, partial)
	}
	return f.def.Matches(in, partial)
}

func (f *Func) Help(ctx *Context) string {
	if f.behavior.Help != nil {
		return f.behavior.Help(ctx)
	}
	var b strings.Builder
	b.WriteString(f.def.Name)
	if f.def.Syntax != "" {
		b.WriteString("\nSyntax: ")
		b.WriteString(f.def.Syntax)
	}
	if f.def.Summary != "" {
		b.WriteString("\n")
		b.WriteString(f.def.Summary)
	}
	return b.String()
}

func (f *Func) New(ctx *Context, in Input) (Runner, error) {
	return &funcRunner{behavior: &f.behavior, inv: &Invocation{Context: ctx, Input: in, Def: &f.def}}, nil
}

type funcRunner struct {
	behavior *Behavior
	inv      *Invocation
}

func (r *funcRunner) PreExecute() bool {
	if r.behavior.Pre == nil {
		return true
	}
	return r.behavior.Pre(r.inv)
}

func (r *funcRunner) Execute() error {
	if r.behavior.Execute == nil {
		return nil
	}
	return r.behavior.Execute(r.inv)
}

func (r *funcRunner) PostExecute() error {
	if r.behavior.Post == nil {
		return nil
	}
	return r.behavior.Post(r.inv)
}
