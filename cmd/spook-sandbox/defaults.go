package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/audio"
	"github.com/lixenwraith/spook/registry"
)

// builtinLabel is the registry label used for the built-in tone set
const builtinLabel = "sandbox"

type toneSpec struct {
	guid  string
	name  string
	group string
	clips []string
	opts  audio.Options
}

// builtinTones are available when no manifest directory is configured
// GUIDs are fixed so saves referencing them stay resolvable
var builtinTones = []toneSpec{
	{"0b6f1d7e-6a51-4c38-9a1e-2f7b1c3d4e01", "blip", "ui", []string{"tone:880:0.08", "tone:990:0.08"}, audio.DefaultOptions()},
	{"0b6f1d7e-6a51-4c38-9a1e-2f7b1c3d4e02", "thud", "props", []string{"tone:110:0.25:square"}, audio.DefaultOptions().WithVolume(0.7)},
	{"0b6f1d7e-6a51-4c38-9a1e-2f7b1c3d4e03", "wind", "ambience", []string{"tone:1:2:noise"}, audio.DefaultOptions().WithVolume(0.4).WithSpatialBlend(1)},
	{"0b6f1d7e-6a51-4c38-9a1e-2f7b1c3d4e04", "hum", "ambience", []string{"tone:220:1.5:saw"}, audio.DefaultOptions().WithVolume(0.5)},
	{"0b6f1d7e-6a51-4c38-9a1e-2f7b1c3d4e05", "chime", "ui", []string{"tone:660:0.6", "tone:784:0.6", "tone:1046:0.6"}, audio.DefaultOptions().WithSpatialBlend(0.8)},
}

// builtinLocator builds a static locator over the tone set
func builtinLocator(ctx context.Context, loader audio.ClipLoader, log zerolog.Logger) *registry.StaticLocator[*audio.Definition] {
	locator := registry.NewStaticLocator[*audio.Definition]()
	for _, spec := range builtinTones {
		p := audio.NewRangeProvider(loader, log, spec.clips...)
		if err := p.Load(ctx); err != nil {
			log.Error().Err(err).Str("definition", spec.name).Msg("builtin tone failed to load")
			continue
		}
		def := audio.NewDefinitionWithGUID(uuid.MustParse(spec.guid), spec.name, p)
		def.Group = spec.group
		def.Options = spec.opts
		locator.Add(builtinLabel, def)
	}
	return locator
}
