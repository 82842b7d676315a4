package components

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

var (
	ErrSelfContainment = errors.New("an entity cannot contain itself")
	ErrContainmentLoop = errors.New("entity would end up inside itself")
	ErrEquipped        = errors.New("entity is equipped")
	ErrSlotTaken       = errors.New("equipment slot is taken")
	ErrNoSuchSlot      = errors.New("no such equipment slot")
	ErrNotContained    = errors.New("entity is not held")
)

// Inventory lists the entities an entity carries. Deleting the holder deletes the contents.
type Inventory struct {
	Items []models.EntityID
}

func (*Inventory) Type() models.ComponentType     { return InventoryType }
func (*Inventory) ExportName() string             { return "Inventory" }
func (i *Inventory) ShouldSave(registry.Env) bool { return len(i.Items) > 0 }

// Export nests the full record of each carried entity.
func (i *Inventory) Export(env registry.Env) (any, error) {
	out := make([]registry.Record, 0, len(i.Items))
	for _, item := range i.Items {
		rec, err := env.ExportEntity(item)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (i *Inventory) Release(s *models.Store, _ models.EntityID) {
	for _, item := range slices.Clone(i.Items) {
		if s.Exists(item) {
			s.Delete(item)
		}
	}
	i.Items = nil
}

func decodeInventory(raw any, owner models.EntityID, env registry.Env) (models.Component, error) {
	recs, err := registry.As[[]registry.Record](raw)
	if err != nil {
		return nil, err
	}
	inv := &Inventory{}
	for _, rec := range recs {
		// A rejected item is dropped; the holder and the other items still load.
		item, err := env.ImportEntity(rec, hasIdentity(rec))
		if err != nil {
			continue
		}
		if err := env.Store().AddComponent(item, &InInventory{Holder: owner}); err != nil {
			env.Store().Delete(item)
			continue
		}
		inv.Items = append(inv.Items, item)
	}
	return inv, nil
}

// InInventory is the back-reference from a carried entity to its holder.
type InInventory struct {
	Holder models.EntityID
}

func (*InInventory) Type() models.ComponentType { return InInventoryType }

func (in *InInventory) Release(s *models.Store, owner models.EntityID) {
	if inv, ok := models.Get[*Inventory](s, in.Holder); ok {
		inv.Items = slices.DeleteFunc(inv.Items, func(id models.EntityID) bool { return id == owner })
	}
}

// EquipSlot is one filled slot.
type EquipSlot struct {
	Category string
	Item     models.EntityID
}

// Equipment maps slot names to worn entities.
type Equipment struct {
	Slots map[string]EquipSlot
}

func (*Equipment) Type() models.ComponentType     { return EquipmentType }
func (*Equipment) ExportName() string             { return "Equipment" }
func (e *Equipment) ShouldSave(registry.Env) bool { return len(e.Slots) > 0 }

// Export writes [category, slot, record] triples ordered by slot.
func (e *Equipment) Export(env registry.Env) (any, error) {
	out := make([][3]any, 0, len(e.Slots))
	for _, slot := range e.SlotNames() {
		worn := e.Slots[slot]
		rec, err := env.ExportEntity(worn.Item)
		if err != nil {
			return nil, err
		}
		out = append(out, [3]any{worn.Category, slot, rec})
	}
	return out, nil
}

// SlotNames lists filled slots, sorted.
func (e *Equipment) SlotNames() []string {
	names := make([]string, 0, len(e.Slots))
	for name := range e.Slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Equipment) Release(s *models.Store, _ models.EntityID) {
	for _, slot := range e.SlotNames() {
		if item := e.Slots[slot].Item; s.Exists(item) {
			s.Delete(item)
		}
	}
	e.Slots = nil
}

func decodeEquipment(raw any, owner models.EntityID, env registry.Env) (models.Component, error) {
	triples, err := registry.As[[][3]any](raw)
	if err != nil {
		return nil, err
	}
	eq := &Equipment{Slots: make(map[string]EquipSlot, len(triples))}
	for _, t := range triples {
		category, _ := t[0].(string)
		slot, _ := t[1].(string)
		if _, taken := eq.Slots[slot]; taken {
			continue
		}
		rec, err := registry.AsRecord(t[2])
		if err != nil {
			continue
		}
		item, err := env.ImportEntity(rec, hasIdentity(rec))
		if err != nil {
			continue
		}
		if err := env.Store().AddComponent(item, &Equipped{Holder: owner, Category: category, Slot: slot}); err != nil {
			env.Store().Delete(item)
			continue
		}
		eq.Slots[slot] = EquipSlot{Category: category, Item: item}
	}
	return eq, nil
}

// Equipped is the back-reference from a worn entity to its wearer.
type Equipped struct {
	Holder   models.EntityID
	Category string
	Slot     string
}

func (*Equipped) Type() models.ComponentType { return EquippedType }

func (e *Equipped) Release(s *models.Store, owner models.EntityID) {
	if eq, ok := models.Get[*Equipment](s, e.Holder); ok {
		if worn, ok := eq.Slots[e.Slot]; ok && worn.Item == owner {
			delete(eq.Slots, e.Slot)
		}
	}
}

// AddToInventory moves item into holder's inventory, taking it out of any other inventory first.
// Room placement is the caller's business; use the navigation mover to extract first.
func AddToInventory(s *models.Store, holder, item models.EntityID) error {
	if holder == item {
		return ErrSelfContainment
	}
	if !s.Exists(holder) || !s.Exists(item) {
		return models.ErrNoEntity
	}
	if s.HasComponent(item, EquippedType) {
		return ErrEquipped
	}
	if slices.Contains(AllContained(s, item), holder) {
		return ErrContainmentLoop
	}
	if s.HasComponent(item, InInventoryType) {
		if err := RemoveFromInventory(s, item); err != nil {
			return err
		}
	}
	inv, err := models.GetOrAdd(s, holder, func() *Inventory { return &Inventory{} })
	if err != nil {
		return err
	}
	inv.Items = append(inv.Items, item)
	return s.AddComponent(item, &InInventory{Holder: holder})
}

// RemoveFromInventory takes item out of whatever inventory holds it. The holder keeps its
// (possibly empty) Inventory component.
func RemoveFromInventory(s *models.Store, item models.EntityID) error {
	c, ok := s.RemoveComponent(item, InInventoryType)
	if !ok {
		return ErrNotContained
	}
	in := c.(*InInventory)
	if inv, ok := models.Get[*Inventory](s, in.Holder); ok {
		inv.Items = slices.DeleteFunc(inv.Items, func(id models.EntityID) bool { return id == item })
	}
	return nil
}

// Equip wears item in slot. The holder's WearSlots, when present, must list the slot.
func Equip(s *models.Store, holder, item models.EntityID, category, slot string) error {
	if holder == item {
		return ErrSelfContainment
	}
	if !s.Exists(holder) || !s.Exists(item) {
		return models.ErrNoEntity
	}
	if slots, ok := models.Get[*WearSlots](s, holder); ok && !slots.Has(slot) {
		return fmt.Errorf("%w: %q", ErrNoSuchSlot, slot)
	}
	if s.HasComponent(item, EquippedType) {
		return ErrEquipped
	}
	eq, err := models.GetOrAdd(s, holder, func() *Equipment { return &Equipment{Slots: map[string]EquipSlot{}} })
	if err != nil {
		return err
	}
	if eq.Slots == nil {
		eq.Slots = make(map[string]EquipSlot)
	}
	if _, taken := eq.Slots[slot]; taken {
		return fmt.Errorf("%w: %q", ErrSlotTaken, slot)
	}
	if s.HasComponent(item, InInventoryType) {
		if err := RemoveFromInventory(s, item); err != nil {
			return err
		}
	}
	eq.Slots[slot] = EquipSlot{Category: category, Item: item}
	return s.AddComponent(item, &Equipped{Holder: holder, Category: category, Slot: slot})
}

// Unequip takes item off and returns it to the wearer's inventory.
func Unequip(s *models.Store, item models.EntityID) error {
	c, ok := s.RemoveComponent(item, EquippedType)
	if !ok {
		return ErrNotContained
	}
	worn := c.(*Equipped)
	if eq, ok := models.Get[*Equipment](s, worn.Holder); ok {
		delete(eq.Slots, worn.Slot)
	}
	if !s.Exists(worn.Holder) {
		return nil
	}
	return AddToInventory(s, worn.Holder, item)
}

// DumpInventory empties holder's inventory and returns what it held, now loose.
func DumpInventory(s *models.Store, holder models.EntityID) []models.EntityID {
	inv, ok := models.Get[*Inventory](s, holder)
	if !ok {
		return nil
	}
	items := inv.Items
	inv.Items = nil
	for _, item := range items {
		s.RemoveComponent(item, InInventoryType)
	}
	return items
}

// AllContained returns everything inside id, depth first: equipment before inventory.
func AllContained(s *models.Store, id models.EntityID) []models.EntityID {
	var out []models.EntityID
	var walk func(models.EntityID)
	walk = func(e models.EntityID) {
		if eq, ok := models.Get[*Equipment](s, e); ok {
			for _, slot := range eq.SlotNames() {
				item := eq.Slots[slot].Item
				if s.Exists(item) {
					walk(item)
					out = append(out, item)
				}
			}
		}
		if inv, ok := models.Get[*Inventory](s, e); ok {
			for _, item := range inv.Items {
				if s.Exists(item) {
					walk(item)
					out = append(out, item)
				}
			}
		}
	}
	walk(id)
	return out
}

func hasIdentity(rec registry.Record) bool {
	_, ok := rec["EntityID"]
	return ok
}
