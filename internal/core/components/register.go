package components

import (
	"fmt"

	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/navigation"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// Register adds every component and integrity rule of the core to b. Registration order is
// the order components are decoded in: plain data first, then containers, then location.
func Register(b *registry.Builder, graph *navigation.Graph) error {
	character := []string{MetaCharacter, MetaContainer, MetaEquipper}
	descriptors := []registry.Descriptor{
		{Type: NameType, Name: "name", ExportName: "Name", Decode: decodeText(NewName)},
		{Type: DescriptionType, Name: "description", ExportName: "Description", Decode: decodeText(NewDescription)},
		{Type: ShortDescriptionType, Name: "short description", ExportName: "ShortDescription", Decode: decodeText(NewShortDescription)},
		{Type: LongDescriptionType, Name: "long description", ExportName: "LongDescription", Decode: decodeText(NewLongDescription)},
		{Type: ExDescriptionsType, Name: "extra descriptions", ExportName: "ExDescriptions", Decode: decodeExDescriptions},
		{Type: MetaTypesType, Name: "meta types", ExportName: "MetaTypes", Decode: decodeMetaTypes},
		{Type: PrototypeType, Name: "prototype", ExportName: "Prototype", Decode: decodeStruct[Prototype]()},
		{Type: IdentityType, Name: "identity", ExportName: "EntityID", Decode: decodeStruct[Identity]()},
		{Type: PlayerCharacterType, Name: "player character", ExportName: "PlayerCharacter", Decode: decodeStruct[PlayerCharacter](), MetaTypes: character},
		{Type: NPCType, Name: "npc", ExportName: "NPC", Decode: decodeStruct[NPC](), MetaTypes: character},
		{Type: AccountOwnerType, Name: "account owner", ExportName: "AccountOwner", Decode: decodeStruct[AccountOwner]()},
		{Type: WearSlotsType, Name: "wear slots", ExportName: "WearSlots", Decode: decodeWearSlots, MetaTypes: []string{MetaEquipper}},
		{Type: InventoryType, Name: "inventory", ExportName: "Inventory", Decode: decodeInventory, MetaTypes: []string{MetaContainer}},
		{Type: EquipmentType, Name: "equipment", ExportName: "Equipment", Decode: decodeEquipment, MetaTypes: []string{MetaEquipper}},
		{Type: InRoomType, Name: "in room", ExportName: "SaveInRoom", Decode: decodeInRoom(graph)},
		{Type: InInventoryType, Name: "in inventory"},
		{Type: EquippedType, Name: "equipped"},
		{Type: HasSessionType, Name: "has session"},
		{Type: ControlledType, Name: "controlled"},
		{Type: InGameType, Name: "in game"},
		{Type: PendingRemoveType, Name: "pending remove"},
	}
	for _, d := range descriptors {
		if err := b.Register(d); err != nil {
			return err
		}
	}
	b.RegisterIntegrity(MetaContainer, ensureInventory)
	b.RegisterIntegrity(MetaCharacter, requireName)
	b.RegisterIntegrity(MetaEquipper, ensureWearSlots)
	return nil
}

// NewRegistry builds a component table holding only the core components.
func NewRegistry(graph *navigation.Graph) (*registry.Registry, error) {
	b := registry.NewBuilder()
	if err := Register(b, graph); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func ensureInventory(env registry.Env, id models.EntityID) error {
	_, err := models.GetOrAdd(env.Store(), id, func() *Inventory { return &Inventory{} })
	return err
}

func ensureWearSlots(env registry.Env, id models.EntityID) error {
	_, err := models.GetOrAdd(env.Store(), id, func() *WearSlots {
		return &WearSlots{Slots: append([]string(nil), DefaultWearSlots...)}
	})
	return err
}

func requireName(env registry.Env, id models.EntityID) error {
	if n, ok := models.Get[*Name](env.Store(), id); !ok || n.Text == "" {
		return fmt.Errorf("character %s has no name", id)
	}
	return nil
}
