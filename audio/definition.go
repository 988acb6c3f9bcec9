package audio

import (
	"github.com/google/uuid"
)

// Definition describes a playable sound: where its clips come from and how to play them
// Treated as immutable once registered
type Definition struct {
	guid uuid.UUID
	name string

	Group    string
	Options  Options
	Provider Provider
}

// NewDefinition creates a definition with a fresh GUID and default options
func NewDefinition(name string, provider Provider) *Definition {
	return NewDefinitionWithGUID(uuid.New(), name, provider)
}

// NewDefinitionWithGUID creates a definition with a known GUID, as read from a manifest
func NewDefinitionWithGUID(guid uuid.UUID, name string, provider Provider) *Definition {
	return &Definition{
		guid:     guid,
		name:     name,
		Options:  DefaultOptions(),
		Provider: provider,
	}
}

// GUID returns the stable identity used for registry lookup and serialization
func (d *Definition) GUID() uuid.UUID { return d.guid }

// Name returns the definition name
func (d *Definition) Name() string { return d.name }
