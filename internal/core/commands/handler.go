package commands

import (
	"errors"
	"fmt"

	"github.com/zeusync/mudcore/internal/core/observability/log"
	"github.com/zeusync/mudcore/pkg/sequence"
)

const genericFailure = "Something went wrong with that command. Staff have been notified."

// Handler matches and runs input for one owner in one mode. Its mode never changes; a mode
// switch replaces the handler (see Controller.SetHandler).
type Handler struct {
	mode     *Mode
	registry *Registry
	owner    Owner
	ctrl     *Controller
	logger   log.Log

	queue    sequence.Queue[string]
	wait     int
	normals  []Command
	started  bool
	closed   bool
	executed uint64
}

func newHandler(ctrl *Controller, mode *Mode) *Handler {
	return &Handler{
		mode:     mode,
		registry: ctrl.registry,
		owner:    ctrl.owner,
		ctrl:     ctrl,
		logger:   ctrl.logger.With(log.Mode(mode.Name)),
	}
}

// Mode returns the handler's mode.
func (h *Handler) Mode() *Mode {
	return h.mode
}

// Owner returns what the handler is bound to.
func (h *Handler) Owner() Owner {
	return h.owner
}

// Controller returns the controller that created the handler.
func (h *Handler) Controller() *Controller {
	return h.ctrl
}

// Send writes a line to the owner.
func (h *Handler) Send(text string) {
	h.owner.Send(text)
}

// Start runs the mode's start hook once.
func (h *Handler) Start() {
	if h.started || h.closed {
		return
	}
	h.started = true
	if h.mode.OnStart != nil {
		h.mode.OnStart(h)
	}
}

// Close discards pending input and runs the mode's close hook. It returns how many queued
// lines were dropped. Closing twice is a no-op.
func (h *Handler) Close() int {
	if h.closed {
		return 0
	}
	h.closed = true
	dropped := h.queue.Clear()
	if dropped > 0 {
		h.logger.Debug("pending input discarded", log.Int("lines", dropped))
	}
	if h.mode.OnClose != nil {
		h.mode.OnClose(h)
	}
	return dropped
}

// Closed reports whether Close was called.
func (h *Handler) Closed() bool {
	return h.closed
}

// Push accepts a line of input. Turn-delayed modes queue it for Update; others run it now.
func (h *Handler) Push(line string) error {
	if h.closed {
		return ErrHandlerClosed
	}
	if h.mode.TurnDelayed {
		h.queue.Enqueue(line)
		return nil
	}
	h.Parse(line)
	return nil
}

// Update advances the handler by one tick: the wait counter drops by one, and once it is zero
// the head of the queue is run.
func (h *Handler) Update() {
	if h.closed {
		return
	}
	if h.wait > 0 {
		h.wait--
	}
	if h.wait == 0 {
		if line, ok := h.queue.Dequeue(); ok {
			h.Parse(line)
		}
	}
}

// SetWait sets how many ticks must pass before the next queued line runs.
func (h *Handler) SetWait(ticks int) {
	h.wait = max(ticks, 0)
}

// Wait returns the remaining wait in ticks.
func (h *Handler) Wait() int {
	return h.wait
}

// Pending returns the queued lines in order.
func (h *Handler) Pending() []string {
	return h.queue.Items()
}

// Executed counts commands that reached Execute.
func (h *Handler) Executed() uint64 {
	return h.executed
}

// Context builds the context commands see for this handler.
func (h *Handler) Context() *Context {
	return &Context{Handler: h, Actor: h.owner.Actor()}
}

// Commands returns the normal commands of the handler's categories, resolved once.
func (h *Handler) Commands() []Command {
	if h.normals == nil {
		h.normals = h.registry.Commands(h.mode.Main, h.mode.Subs...)
	}
	return h.normals
}

// Find returns the winning command for in: specials first, then normal commands. Within each
// tier the first command whose access check passes and which matches wins.
func (h *Handler) Find(ctx *Context, in Input) (Command, bool) {
	if h.mode.Specials != nil {
		if cmd, ok := firstMatch(h.mode.Specials(h), ctx, in, h.mode.PartialSpecial); ok {
			return cmd, true
		}
	}
	return firstMatch(h.Commands(), ctx, in, h.mode.PartialNormal)
}

func firstMatch(cmds []Command, ctx *Context, in Input, partial bool) (Command, bool) {
	for _, cmd := range cmds {
		if cmd.Access(ctx) && cmd.Match(in, partial) {
			return cmd, true
		}
	}
	return nil, false
}

// Parse matches and runs line immediately, bypassing the queue. Blank lines are ignored.
// A panic while matching is reported like one inside a command.
func (h *Handler) Parse(line string) {
	in, ok := ParseInput(line)
	if in.Line == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("input handling panicked",
				log.Mode(h.mode.Name),
				log.String("input", in.Line),
				log.Any("panic", r),
			)
			h.Send(genericFailure)
		}
	}()
	if ok {
		ctx := h.Context()
		if cmd, found := h.Find(ctx, in); found {
			h.run(ctx, cmd, in)
			return
		}
	}
	h.noMatch(in.Line)
}

func (h *Handler) noMatch(line string) {
	if h.mode.NoMatch != nil {
		h.mode.NoMatch(h, line)
		return
	}
	h.Send(NoMatchMessage(line))
}

// NoMatchMessage is the default reply to unmatched input.
func NoMatchMessage(line string) string {
	shown := line
	if runes := []rune(line); len(runes) >= 20 {
		shown = string(runes[:20]) + "..."
	}
	return fmt.Sprintf("No command for: %s. Type 'help' for help!", shown)
}

// run executes one command. Nothing escapes: user errors are shown, everything else is logged.
func (h *Handler) run(ctx *Context, cmd Command, in Input) {
	name := cmd.Definition().Name
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("command panicked",
				log.Command(name),
				log.String("input", in.Line),
				log.Any("panic", r),
			)
			h.Send(genericFailure)
		}
	}()

	runner, err := cmd.New(ctx, in)
	if err != nil {
		h.report(name, err)
		return
	}
	if pre, ok := runner.(PreExecutor); ok && !pre.PreExecute() {
		return
	}
	h.executed++
	if err := runner.Execute(); err != nil {
		h.report(name, err)
		return
	}
	if post, ok := runner.(PostExecutor); ok {
		if err := post.PostExecute(); err != nil {
			h.report(name, err)
		}
	}
}

func (h *Handler) report(name string, err error) {
	var ue *UserError
	if errors.As(err, &ue) {
		h.Send(ue.Message)
		return
	}
	h.logger.Error("command failed", log.Command(name), log.Error(err))
	h.Send(genericFailure)
}
