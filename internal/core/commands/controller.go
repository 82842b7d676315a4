package commands

import (
	"fmt"

	"github.com/zeusync/mudcore/internal/core/observability/log"
)

// Controller owns the current handler of one owner and swaps it on mode changes.
type Controller struct {
	registry    *Registry
	owner       Owner
	logger      log.Log
	defaultMode string
	handler     *Handler
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDefaultMode sets the mode entered on first input when none was set.
func WithDefaultMode(name string) ControllerOption {
	return func(c *Controller) { c.defaultMode = name }
}

// WithControllerLogger sets the logger handlers inherit.
func WithControllerLogger(l log.Log) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// NewController binds a controller to owner. No handler is active until SetHandler.
func NewController(registry *Registry, owner Owner, opts ...ControllerOption) *Controller {
	c := &Controller{registry: registry, owner: owner, logger: log.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Owner returns the bound owner.
func (c *Controller) Owner() Owner {
	return c.owner
}

// Handler returns the active handler, or nil.
func (c *Controller) Handler() *Handler {
	return c.handler
}

// ModeName returns the active mode name, or "".
func (c *Controller) ModeName() string {
	if c.handler == nil {
		return ""
	}
	return c.handler.mode.Name
}

// SetHandler closes the current handler, discarding its pending input, then builds and starts
// a handler for mode. An unknown mode leaves the current handler in place.
func (c *Controller) SetHandler(mode string) error {
	m, ok := c.registry.Mode(mode)
	if !ok {
		c.logger.Warn("handler mode not found", log.Mode(mode))
		return fmt.Errorf("set handler %q: %w", mode, ErrUnknownMode)
	}
	if c.handler != nil {
		c.handler.Close()
	}
	c.handler = newHandler(c, m)
	c.handler.Start()
	return nil
}

// Push routes a line to the active handler, entering the default mode first if needed.
func (c *Controller) Push(line string) error {
	if c.handler == nil || c.handler.Closed() {
		if c.defaultMode == "" {
			return ErrHandlerClosed
		}
		if err := c.SetHandler(c.defaultMode); err != nil {
			return err
		}
	}
	return c.handler.Push(line)
}

// Update ticks the active handler.
func (c *Controller) Update() {
	if c.handler != nil {
		c.handler.Update()
	}
}

// Close closes the active handler. The controller may be reused with SetHandler.
func (c *Controller) Close() {
	if c.handler != nil {
		c.handler.Close()
	}
}
