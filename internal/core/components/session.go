package components

import (
	"github.com/zeusync/mudcore/internal/core/commands"
	"github.com/zeusync/mudcore/internal/core/models"
)

// HasSession links a puppeted entity to the session driving it. The session is looked up by id.
type HasSession struct {
	SessionID string
}

func (*HasSession) Type() models.ComponentType { return HasSessionType }

// Controlled gives an entity its own command controller, ticked by the world every tick.
type Controlled struct {
	Controller *commands.Controller
}

func (*Controlled) Type() models.ComponentType { return ControlledType }

// Release closes the controller so queued input is dropped with the entity.
func (c *Controlled) Release(*models.Store, models.EntityID) {
	if c.Controller != nil {
		c.Controller.Close()
	}
}

// InGame marks entities that are active in the simulation.
type InGame struct{}

func (*InGame) Type() models.ComponentType { return InGameType }

// PendingRemove marks entities to be deleted at the end of the tick.
type PendingRemove struct{}

func (*PendingRemove) Type() models.ComponentType { return PendingRemoveType }
