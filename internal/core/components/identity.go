package components

import (
	"slices"

	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// MetaTypes lists meta types an entity has beyond those implied by its components.
type MetaTypes struct {
	Types []string
}

func (*MetaTypes) Type() models.ComponentType   { return MetaTypesType }
func (*MetaTypes) ExportName() string           { return "MetaTypes" }
func (*MetaTypes) ShouldSave(registry.Env) bool { return true }
func (m *MetaTypes) MetaTypes() []string        { return m.Types }

func (m *MetaTypes) Export(registry.Env) (any, error) {
	if m.Types == nil {
		return []string{}, nil
	}
	return m.Types, nil
}

// Has reports whether t is listed.
func (m *MetaTypes) Has(t string) bool {
	return slices.Contains(m.Types, t)
}

func decodeMetaTypes(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
	types, err := registry.As[[]string](raw)
	if err != nil {
		return nil, err
	}
	return &MetaTypes{Types: types}, nil
}

// Prototype records which module prototype an entity was spawned from.
type Prototype struct {
	Module    string `json:"module_name"`
	Prototype string `json:"prototype"`
}

func (*Prototype) Type() models.ComponentType         { return PrototypeType }
func (*Prototype) ExportName() string                 { return "Prototype" }
func (*Prototype) ShouldSave(registry.Env) bool       { return true }
func (p *Prototype) Export(registry.Env) (any, error) { return *p, nil }

// Identity is the world-unique name of an entity: module, prototype and instance id.
// Entities carrying it can be indexed and referenced from saved data.
type Identity struct {
	Module    string `json:"module_name"`
	Prototype string `json:"prototype"`
	ID        string `json:"ent_id"`
}

func (*Identity) Type() models.ComponentType         { return IdentityType }
func (*Identity) ExportName() string                 { return "EntityID" }
func (*Identity) ShouldSave(registry.Env) bool       { return true }
func (i *Identity) Export(registry.Env) (any, error) { return *i, nil }

// Key is the "module:id" reference form.
func (i *Identity) Key() string {
	return i.Module + ":" + i.ID
}

// PlayerCharacter marks a player's character.
type PlayerCharacter struct {
	PlayerID int64 `json:"player_id"`
}

func (*PlayerCharacter) Type() models.ComponentType         { return PlayerCharacterType }
func (*PlayerCharacter) ExportName() string                 { return "PlayerCharacter" }
func (*PlayerCharacter) ShouldSave(registry.Env) bool       { return true }
func (p *PlayerCharacter) Export(registry.Env) (any, error) { return *p, nil }

// NPC marks a non-player character.
type NPC struct{}

func (*NPC) Type() models.ComponentType       { return NPCType }
func (*NPC) ExportName() string               { return "NPC" }
func (*NPC) ShouldSave(registry.Env) bool     { return true }
func (*NPC) Export(registry.Env) (any, error) { return map[string]any{}, nil }

// AccountOwner links a character to the account that plays it.
type AccountOwner struct {
	AccountID string `json:"account_id"`
}

func (*AccountOwner) Type() models.ComponentType         { return AccountOwnerType }
func (*AccountOwner) ExportName() string                 { return "AccountOwner" }
func (*AccountOwner) ShouldSave(registry.Env) bool       { return true }
func (a *AccountOwner) Export(registry.Env) (any, error) { return *a, nil }

// WearSlots lists the equipment slots an equipper has.
type WearSlots struct {
	Slots []string
}

// DefaultWearSlots is what the equipper integrity rule gives entities without slots.
var DefaultWearSlots = []string{"head", "body", "hands", "legs", "feet", "wield", "hold"}

func (*WearSlots) Type() models.ComponentType { return WearSlotsType }
func (*WearSlots) ExportName() string         { return "WearSlots" }

// ShouldSave is false for the default slots, which the equipper rule puts back on load.
func (w *WearSlots) ShouldSave(registry.Env) bool {
	return !slices.Equal(w.Slots, DefaultWearSlots)
}

func (w *WearSlots) Export(registry.Env) (any, error) {
	if w.Slots == nil {
		return []string{}, nil
	}
	return w.Slots, nil
}

// Has reports whether slot exists.
func (w *WearSlots) Has(slot string) bool {
	return slices.Contains(w.Slots, slot)
}

func decodeWearSlots(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
	slots, err := registry.As[[]string](raw)
	if err != nil {
		return nil, err
	}
	return &WearSlots{Slots: slots}, nil
}

// decodeStruct decodes the exported form of a struct-valued component.
func decodeStruct[T any, P interface {
	*T
	models.Component
}]() registry.DecodeFunc {
	return func(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
		v, err := registry.As[T](raw)
		if err != nil {
			return nil, err
		}
		return P(&v), nil
	}
}
