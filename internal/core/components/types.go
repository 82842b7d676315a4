package components

import "github.com/zeusync/mudcore/internal/core/models"

// Component type tags. Values are part of no durable format; export names are.
const (
	NameType models.ComponentType = iota + 1
	DescriptionType
	ShortDescriptionType
	LongDescriptionType
	ExDescriptionsType
	MetaTypesType
	PrototypeType
	IdentityType
	PlayerCharacterType
	NPCType
	AccountOwnerType
	WearSlotsType
	InventoryType
	InInventoryType
	EquipmentType
	EquippedType
	InRoomType
	HasSessionType
	ControlledType
	InGameType
	PendingRemoveType
)

// Meta types with integrity rules.
const (
	MetaCharacter = "character"
	MetaContainer = "container"
	MetaEquipper  = "equipper"
	MetaItem      = "item"
	MetaRoomThing = "thing"
)
