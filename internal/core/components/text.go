package components

import (
	"github.com/zeusync/mudcore/internal/core/models"
	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

// text is the shared shape of the string components; empty strings are not saved.
type text struct {
	Text string
}

func (t *text) ShouldSave(registry.Env) bool     { return t.Text != "" }
func (t *text) Export(registry.Env) (any, error) { return t.Text, nil }
func (t *text) String() string                   { return t.Text }

type (
	Name             struct{ text }
	Description      struct{ text }
	ShortDescription struct{ text }
	LongDescription  struct{ text }
)

func NewName(s string) *Name                         { return &Name{text{s}} }
func NewDescription(s string) *Description           { return &Description{text{s}} }
func NewShortDescription(s string) *ShortDescription { return &ShortDescription{text{s}} }
func NewLongDescription(s string) *LongDescription   { return &LongDescription{text{s}} }

func (*Name) Type() models.ComponentType             { return NameType }
func (*Name) ExportName() string                     { return "Name" }
func (*Description) Type() models.ComponentType      { return DescriptionType }
func (*Description) ExportName() string              { return "Description" }
func (*ShortDescription) Type() models.ComponentType { return ShortDescriptionType }
func (*ShortDescription) ExportName() string         { return "ShortDescription" }
func (*LongDescription) Type() models.ComponentType  { return LongDescriptionType }
func (*LongDescription) ExportName() string          { return "LongDescription" }

func decodeText[T models.Component](wrap func(string) T) registry.DecodeFunc {
	return func(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
		s, err := registry.As[string](raw)
		if err != nil {
			return nil, err
		}
		return wrap(s), nil
	}
}

// ExDescription is an extra description players can look at by keyword.
type ExDescription struct {
	Keyword     string
	Description string
}

// ExDescriptions is saved as a list of [keyword, description] pairs.
type ExDescriptions struct {
	Entries []ExDescription
}

func (*ExDescriptions) Type() models.ComponentType     { return ExDescriptionsType }
func (*ExDescriptions) ExportName() string             { return "ExDescriptions" }
func (e *ExDescriptions) ShouldSave(registry.Env) bool { return len(e.Entries) > 0 }

func (e *ExDescriptions) Export(registry.Env) (any, error) {
	out := make([][2]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		out = append(out, [2]string{entry.Keyword, entry.Description})
	}
	return out, nil
}

// Lookup finds an entry by keyword.
func (e *ExDescriptions) Lookup(keyword string) (string, bool) {
	for _, entry := range e.Entries {
		if entry.Keyword == keyword {
			return entry.Description, true
		}
	}
	return "", false
}

func decodeExDescriptions(raw any, _ models.EntityID, _ registry.Env) (models.Component, error) {
	pairs, err := registry.As[[][2]string](raw)
	if err != nil {
		return nil, err
	}
	e := &ExDescriptions{}
	for _, p := range pairs {
		e.Entries = append(e.Entries, ExDescription{Keyword: p[0], Description: p[1]})
	}
	return e, nil
}

// DisplayName returns the entity's name, or fallback when it has none.
func DisplayName(s *models.Store, id models.EntityID, fallback string) string {
	if n, ok := models.Get[*Name](s, id); ok && n.Text != "" {
		return n.Text
	}
	return fallback
}
