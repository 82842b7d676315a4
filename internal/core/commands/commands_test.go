package commands

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testOwner struct {
	actor Actor
	sent  []string
}

func (o *testOwner) Send(text string) { o.sent = append(o.sent, text) }
func (o *testOwner) Actor() Actor     { return o.actor }

func (o *testOwner) last() string {
	if len(o.sent) == 0 {
		return ""
	}
	return o.sent[len(o.sent)-1]
}

// recorder collects which command ran with which arguments.
type recorder struct{ ran []string }

func (r *recorder) cmd(def Definition) *Func {
	return Define(def, Behavior{Execute: func(inv *Invocation) error {
		r.ran = append(r.ran, inv.Def.Name+":"+inv.Input.Args)
		return nil
	}})
}

func newBuilder() *Builder {
	b := NewBuilder()
	b.Declare("entity", "play", "universal")
	return b
}

func buildController(t *testing.T, b *Builder, owner *testOwner, mode Mode) *Controller {
	t.Helper()
	require.NoError(t, b.RegisterMode(mode))
	reg, err := b.Build()
	require.NoError(t, err)
	c := NewController(reg, owner)
	require.NoError(t, c.SetHandler(mode.Name))
	return c
}

func TestParseInput(t *testing.T) {
	in, ok := ParseInput(`@desc/quiet/All here = A small room\=cell.`)
	require.True(t, ok)
	assert.Equal(t, "@desc", in.Cmd)
	assert.Equal(t, "@", in.Prefix)
	assert.Equal(t, "desc", in.Name)
	assert.Equal(t, []string{"quiet", "All"}, in.Switches)
	assert.True(t, in.HasSwitch("all"))
	assert.Equal(t, "here", in.Left)
	assert.Equal(t, "A small room=cell.", in.Right)
	assert.True(t, in.HasRight)

	in, ok = ParseInput(`say 2\=2 is true`)
	require.True(t, ok)
	assert.False(t, in.HasRight)
	assert.Equal(t, "2=2 is true", in.Left)
	assert.Equal(t, []string{"2\\=2", "is", "true"}, in.Fields())

	in, ok = ParseInput("  look  ")
	require.True(t, ok)
	assert.Equal(t, "look", in.Cmd)
	assert.Empty(t, in.Args)

	_, ok = ParseInput("!!!")
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	b := newBuilder()
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "", Main: "entity", Subs: []string{"play"}}, Behavior{})), ErrInvalidCommand)
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "x", Subs: []string{"play"}}, Behavior{})), ErrInvalidCommand)
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "x", Main: "entity"}, Behavior{})), ErrInvalidCommand)
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "x", Main: "entity", Subs: []string{"admin"}}, Behavior{})), ErrUnknownCategory)
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "x", Main: "account", Subs: []string{"menu"}}, Behavior{})), ErrUnknownCategory)
	assert.ErrorIs(t, b.Register(Define(Definition{Name: "look", MinText: "x", Main: "entity", Subs: []string{"play"}}, Behavior{})), ErrInvalidCommand)
	assert.ErrorIs(t, b.RegisterMode(Mode{Name: "m", Main: "entity", Subs: []string{"nope"}}), ErrUnknownCategory)

	b.MustRegister(Define(Definition{Name: "bad"}, Behavior{}))
	_, err := b.Build()
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestMatchPriority(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	require.NoError(t, b.Register(
		rec.cmd(Definition{Name: "look", Main: "entity", Subs: []string{"play"}, Priority: 10}),
		rec.cmd(Definition{Name: "LOOK", Aliases: []string{"l"}, Main: "entity", Subs: []string{"universal"}, Priority: 5}),
	))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play", "universal"}, PartialNormal: true})

	require.NoError(t, c.Push("look north"))
	assert.Equal(t, []string{"LOOK:north"}, rec.ran, "lower priority value wins across sub categories")

	cmds := c.Handler().Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "LOOK", cmds[0].Definition().Name)
}

func TestMatchEqualPriorityKeepsRegistrationOrder(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	require.NoError(t, b.Register(
		rec.cmd(Definition{Name: "get", Main: "entity", Subs: []string{"play"}}),
		rec.cmd(Definition{Name: "get", Main: "entity", Subs: []string{"play"}, Summary: "second"}),
	))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}})
	require.NoError(t, c.Push("get coin"))
	require.Len(t, rec.ran, 1)
	assert.Empty(t, c.Handler().Commands()[0].Definition().Summary)
}

func TestAccessFiltersBeforeMatch(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	admin := rec.cmd(Definition{Name: "goto", Main: "entity", Subs: []string{"play"}, Priority: -1})
	admin.behavior.Access = func(ctx *Context) bool { return ctx.Actor.Level > 0 }
	require.NoError(t, b.Register(admin, rec.cmd(Definition{Name: "goto", Main: "entity", Subs: []string{"play"}, Summary: "fallback"})))

	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}})
	require.NoError(t, c.Push("goto 5"))
	owner.actor.Level = 1
	require.NoError(t, c.Push("goto 6"))
	assert.Equal(t, []string{"goto:5", "goto:6"}, rec.ran)
}

func TestPartialThreshold(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	require.NoError(t, b.Register(rec.cmd(Definition{Name: "inventory", MinText: "inv", Main: "entity", Subs: []string{"play"}})))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}, PartialNormal: true})

	require.NoError(t, c.Push("in"))
	assert.Empty(t, rec.ran)
	assert.Equal(t, "No command for: in. Type 'help' for help!", owner.last())

	for _, line := range []string{"inv", "INVEN", "inventory"} {
		require.NoError(t, c.Push(line))
	}
	assert.Len(t, rec.ran, 3)

	require.NoError(t, c.Push("inventoryx"))
	assert.Len(t, rec.ran, 3, "longer than the name is not a prefix")
}

func TestPartialDisabled(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	require.NoError(t, b.Register(rec.cmd(Definition{Name: "inventory", MinText: "inv", Main: "entity", Subs: []string{"play"}})))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}})
	require.NoError(t, c.Push("inv"))
	assert.Empty(t, rec.ran)
}

func TestSpecialsBeforeNormals(t *testing.T) {
	rec := &recorder{}
	b := newBuilder()
	require.NoError(t, b.Register(rec.cmd(Definition{Name: "north", Main: "entity", Subs: []string{"play"}, Priority: -100})))
	special := rec.cmd(Definition{Name: "north", Summary: "exit"})
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{
		Name: "play", Main: "entity", Subs: []string{"play"},
		Specials: func(*Handler) []Command { return []Command{special} },
	})

	require.NoError(t, c.Push("north"))
	require.Len(t, rec.ran, 1)

	ctx := c.Handler().Context()
	in, _ := ParseInput("north")
	found, ok := c.Handler().Find(ctx, in)
	require.True(t, ok)
	assert.Same(t, special, found)
}

func TestNoMatchTruncates(t *testing.T) {
	assert.Equal(t, "No command for: short. Type 'help' for help!", NoMatchMessage("short"))
	assert.Equal(t, "No command for: abcdefghijklmnopqrst.... Type 'help' for help!", NoMatchMessage("abcdefghijklmnopqrstuvwxyz"))
	accented := NoMatchMessage("a" + strings.Repeat("é", 30))
	assert.True(t, utf8.ValidString(accented), "truncation keeps whole runes")
	assert.Equal(t, "No command for: a"+strings.Repeat("é", 19)+".... Type 'help' for help!", accented)

	owner := &testOwner{}
	var forwarded []string
	c := buildController(t, newBuilder(), owner, Mode{
		Name: "puppet", Main: "entity", Subs: []string{"play"},
		NoMatch: func(_ *Handler, line string) { forwarded = append(forwarded, line) },
	})
	require.NoError(t, c.Push("dance wildly"))
	require.NoError(t, c.Push("   "))
	assert.Equal(t, []string{"dance wildly"}, forwarded)
	assert.Empty(t, owner.sent)
}

func TestExecutionPipeline(t *testing.T) {
	var steps []string
	b := newBuilder()
	require.NoError(t, b.Register(
		Define(Definition{Name: "vetoed", Main: "entity", Subs: []string{"play"}}, Behavior{
			Pre:     func(*Invocation) bool { steps = append(steps, "pre-veto"); return false },
			Execute: func(*Invocation) error { steps = append(steps, "never"); return nil },
		}),
		Define(Definition{Name: "fails", Main: "entity", Subs: []string{"play"}}, Behavior{
			Execute: func(*Invocation) error { return Errorf("You can't do that, %s.", "Bob") },
			Post:    func(*Invocation) error { steps = append(steps, "never-post"); return nil },
		}),
		Define(Definition{Name: "broken", Main: "entity", Subs: []string{"play"}}, Behavior{
			Execute: func(*Invocation) error { return errors.New("db gone") },
		}),
		Define(Definition{Name: "panics", Main: "entity", Subs: []string{"play"}}, Behavior{
			Execute: func(*Invocation) error { panic("boom") },
		}),
		Define(Definition{Name: "works", Main: "entity", Subs: []string{"play"}}, Behavior{
			Pre:     func(*Invocation) bool { steps = append(steps, "pre"); return true },
			Execute: func(*Invocation) error { steps = append(steps, "exec"); return nil },
			Post:    func(*Invocation) error { steps = append(steps, "post"); return nil },
		}),
	))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}})

	require.NoError(t, c.Push("vetoed"))
	assert.Empty(t, owner.sent, "a veto is silent")

	require.NoError(t, c.Push("fails"))
	assert.Equal(t, "You can't do that, Bob.", owner.last())

	require.NoError(t, c.Push("broken"))
	assert.Equal(t, genericFailure, owner.last())

	assert.NotPanics(t, func() { require.NoError(t, c.Push("panics")) })
	assert.Equal(t, genericFailure, owner.last())

	require.NoError(t, c.Push("works"))
	assert.Equal(t, []string{"pre-veto", "pre", "exec", "post"}, steps)
}

func TestMatchingPanicIsReported(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.Register(
		Define(Definition{Name: "trap", Main: "entity", Subs: []string{"play"}}, Behavior{
			Access:  func(*Context) bool { panic("bad access check") },
			Execute: func(*Invocation) error { return nil },
		}),
	))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}})

	assert.NotPanics(t, func() { require.NoError(t, c.Push("anything")) })
	assert.Equal(t, []string{genericFailure}, owner.sent)
}

func TestTurnDelayedQueueFIFO(t *testing.T) {
	var ran []string
	b := newBuilder()
	require.NoError(t, b.Register(Define(Definition{Name: "act", Main: "entity", Subs: []string{"play"}}, Behavior{
		Execute: func(inv *Invocation) error {
			ran = append(ran, inv.Input.Args)
			inv.Handler.SetWait(1)
			return nil
		},
	})))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}, TurnDelayed: true})

	for _, arg := range []string{"one", "two", "three"} {
		require.NoError(t, c.Push("act "+arg))
	}
	assert.Empty(t, ran, "turn-delayed input waits for a tick")
	assert.Len(t, c.Handler().Pending(), 3)

	c.Update()
	assert.Equal(t, []string{"one"}, ran)
	assert.Equal(t, 1, c.Handler().Wait())

	c.Update()
	assert.Equal(t, []string{"one", "two"}, ran)
	c.Update()
	assert.Equal(t, []string{"one", "two", "three"}, ran)
	c.Update()
	assert.Len(t, ran, 3)
	assert.Equal(t, 0, c.Handler().Wait())
}

func TestWaitDecrementsOncePerTick(t *testing.T) {
	owner := &testOwner{}
	c := buildController(t, newBuilder(), owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}, TurnDelayed: true})
	h := c.Handler()
	h.SetWait(3)
	require.NoError(t, h.Push("anything"))

	h.Update()
	h.Update()
	assert.Equal(t, 1, h.Wait())
	assert.Len(t, h.Pending(), 1)
	h.Update()
	assert.Equal(t, 0, h.Wait())
	assert.Empty(t, h.Pending(), "head runs on the tick the wait reaches zero")
}

func TestSetHandlerDiscardsQueue(t *testing.T) {
	var events []string
	b := newBuilder()
	require.NoError(t, b.RegisterMode(Mode{
		Name: "login", Main: "entity", Subs: []string{"universal"},
		OnStart: func(*Handler) { events = append(events, "login-start") },
		OnClose: func(*Handler) { events = append(events, "login-close") },
	}))
	owner := &testOwner{}
	c := buildController(t, b, owner, Mode{Name: "play", Main: "entity", Subs: []string{"play"}, TurnDelayed: true})

	old := c.Handler()
	require.NoError(t, c.Push("queued one"))
	require.NoError(t, c.Push("queued two"))

	assert.ErrorIs(t, c.SetHandler("nowhere"), ErrUnknownMode)
	assert.Same(t, old, c.Handler(), "unknown mode keeps the current handler")

	require.NoError(t, c.SetHandler("login"))
	assert.True(t, old.Closed())
	assert.Empty(t, old.Pending())
	assert.ErrorIs(t, old.Push("late"), ErrHandlerClosed)
	assert.Equal(t, "login", c.ModeName())
	assert.NotSame(t, old, c.Handler())

	require.NoError(t, c.SetHandler("login"))
	assert.Equal(t, []string{"login-start", "login-close", "login-start"}, events, "re-entering a mode builds a new handler")
}

func TestDefaultMode(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.RegisterMode(Mode{Name: "play", Main: "entity", Subs: []string{"play"}}))
	reg, err := b.Build()
	require.NoError(t, err)

	owner := &testOwner{}
	assert.ErrorIs(t, NewController(reg, owner).Push("x"), ErrHandlerClosed)

	c := NewController(reg, owner, WithDefaultMode("play"))
	require.NoError(t, c.Push("x"))
	assert.Equal(t, "play", c.ModeName())
	assert.Equal(t, []string{"play"}, reg.Modes())
	assert.Equal(t, []string{"play", "universal"}, reg.Categories("entity"))
}
