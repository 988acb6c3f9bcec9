package audio

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/registry"
)

// manifestFile is one *.toml definition manifest
//
//	label = "sfx"
//
//	[[sound]]
//	guid  = "5f0c6a8e-3f55-4a8e-9a55-0d6f3e1a7b21"
//	name  = "door_creak"
//	group = "props"
//	clips = ["door_a.wav", "door_b.wav"]
//	volume = 0.8
//	spatial_blend = 1.0
type manifestFile struct {
	Label  string          `toml:"label"`
	Sounds []manifestSound `toml:"sound"`
}

type manifestSound struct {
	GUID         string   `toml:"guid"`
	Name         string   `toml:"name"`
	Group        string   `toml:"group"`
	Clips        []string `toml:"clips"`
	Loop         *bool    `toml:"loop"`
	Volume       *float64 `toml:"volume"`
	Pitch        *float64 `toml:"pitch"`
	MinDistance  *float64 `toml:"min_distance"`
	MaxDistance  *float64 `toml:"max_distance"`
	SpatialBlend *float64 `toml:"spatial_blend"`
}

// options overlays the keys present in the manifest onto the defaults
func (s manifestSound) options() Options {
	o := DefaultOptions()
	if s.Loop != nil {
		o.Loop = *s.Loop
	}
	if s.Volume != nil {
		o.Volume = *s.Volume
	}
	if s.Pitch != nil {
		o.Pitch = *s.Pitch
	}
	if s.MinDistance != nil {
		o.MinDistance = *s.MinDistance
	}
	if s.MaxDistance != nil {
		o.MaxDistance = *s.MaxDistance
	}
	if s.SpatialBlend != nil {
		o.SpatialBlend = *s.SpatialBlend
	}
	return o
}

// ManifestLocator finds audio definitions in TOML manifests under Dir
// Loading a definition also loads its provider's clips
type ManifestLocator struct {
	Dir    string
	Loader ClipLoader
	Log    zerolog.Logger
}

// NewManifestLocator creates a locator reading *.toml in dir
func NewManifestLocator(dir string, loader ClipLoader, log zerolog.Logger) *ManifestLocator {
	return &ManifestLocator{Dir: dir, Loader: loader, Log: log.With().Str("component", "audio.manifest").Logger()}
}

// Locate implements registry.Locator; an empty label matches every manifest
func (m *ManifestLocator) Locate(ctx context.Context, label string) ([]registry.Located[*Definition], error) {
	paths, err := filepath.Glob(filepath.Join(m.Dir, "*.toml"))
	if err != nil {
		return nil, eris.Wrap(err, "glob manifests")
	}
	sort.Strings(paths)

	var located []registry.Located[*Definition]
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mf, err := readManifest(path)
		if err != nil {
			m.Log.Error().Err(err).Str("path", path).Msg("manifest unreadable, skipping")
			continue
		}
		if label != "" && mf.Label != label {
			continue
		}
		for _, s := range mf.Sounds {
			id, err := uuid.Parse(s.GUID)
			if err != nil {
				m.Log.Warn().Str("path", path).Str("name", s.Name).Msg("sound has no valid guid")
				id = uuid.Nil
			}
			located = append(located, registry.Located[*Definition]{
				GUID:    id,
				Load:    m.loader(id, s),
				Release: releaseDefinition,
			})
		}
	}
	return located, nil
}

func (m *ManifestLocator) loader(id uuid.UUID, s manifestSound) func(ctx context.Context) (*Definition, error) {
	return func(ctx context.Context) (*Definition, error) {
		provider := NewRangeProvider(m.Loader, m.Log, s.Clips...)
		def := NewDefinitionWithGUID(id, s.Name, provider)
		def.Group = s.Group
		def.Options = s.options()
		if err := provider.Load(ctx); err != nil {
			return nil, err
		}
		return def, nil
	}
}

func releaseDefinition(def *Definition) {
	if def != nil && def.Provider != nil {
		_ = def.Provider.Unload(context.Background())
	}
}

func readManifest(path string) (*manifestFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf manifestFile
	if _, err := toml.Decode(string(data), &mf); err != nil {
		return nil, eris.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return &mf, nil
}

// WriteManifest encodes definitions backed by RangeProviders into a manifest file
func WriteManifest(path, label string, defs ...*Definition) error {
	mf := manifestFile{Label: label}
	for _, d := range defs {
		rp, ok := d.Provider.(*RangeProvider)
		if !ok {
			return eris.Errorf("definition %q: provider %T has no clip list", d.Name(), d.Provider)
		}
		o := d.Options
		mf.Sounds = append(mf.Sounds, manifestSound{
			GUID:         d.GUID().String(),
			Name:         d.Name(),
			Group:        d.Group,
			Clips:        rp.Refs(),
			Loop:         &o.Loop,
			Volume:       &o.Volume,
			Pitch:        &o.Pitch,
			MinDistance:  &o.MinDistance,
			MaxDistance:  &o.MaxDistance,
			SpatialBlend: &o.SpatialBlend,
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create manifest")
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(mf); err != nil {
		return eris.Wrap(err, "encode manifest")
	}
	return nil
}
