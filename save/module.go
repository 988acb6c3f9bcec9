package save

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"

	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/event"
	"github.com/lixenwraith/spook/module"
)

// ModuleName is the host registration name of the save module
const ModuleName = "save"

// Module raises SaveEvt and LoadEvt and moves encoded games through a Store
type Module struct {
	module.Base

	store  Store
	log    zerolog.Logger
	name   string
	ver    int
	saving atomic.Bool
}

// NewModule creates the save module over store; store may be nil for in-memory use
func NewModule(store Store) *Module {
	return &Module{store: store}
}

// Name implements module.Module
func (m *Module) Name() string { return ModuleName }

// Load implements module.Module
func (m *Module) Load(rt *module.Runtime) error {
	m.Attach(rt, ModuleName)
	rt.Bind(m)
	m.log = rt.Log.With().Str("module", ModuleName).Logger()
	m.name = rt.Config.GameName
	m.ver = rt.Config.SaveVersion
	if m.store != nil {
		m.DisposeOnUnload(core.DisposeFunc(func() {
			if err := m.store.Close(); err != nil {
				m.log.Error().Err(err).Msg("close save store")
			}
		}))
	}
	return nil
}

// Unload implements module.Module
func (m *Module) Unload() {
	m.Base.Unload()
	if rt := m.Runtime(); rt != nil {
		rt.Unbind(m)
	}
}

// Saving reports whether a save pass is running
func (m *Module) Saving() bool { return m.saving.Load() }

// Save collects a new Game from every SaveEvt subscriber
// The game is returned even when some continuations failed; err joins their failures
func (m *Module) Save(ctx context.Context) (*Game, error) {
	if !m.saving.CompareAndSwap(false, true) {
		return nil, ErrSaveInProgress
	}
	defer m.saving.Store(false)

	g := NewGame(m.name, m.ver)
	evt := NewSaveEvt(g, m.log)
	err := event.RaiseChain(ctx, m.Runtime().Events, evt)
	if err != nil {
		m.log.Warn().Err(err).Msg("save completed with errors")
	}
	return g, err
}

// TriggerLoad hands g to every LoadEvt subscriber
func (m *Module) TriggerLoad(ctx context.Context, g *Game) error {
	if g == nil {
		return eris.New("load: nil game")
	}
	if g.GameName != m.name {
		m.log.Warn().Str("saved", g.GameName).Str("running", m.name).Msg("loading save from another game")
	}
	if g.Version != m.ver {
		m.log.Warn().Int("saved", g.Version).Int("running", m.ver).Msg("save version mismatch")
	}
	return event.RaiseChain(ctx, m.Runtime().Events, NewLoadEvt(g))
}

// SaveToStore encodes g under name; a nil g runs Save first, an empty name picks Save_<n+1>
// Subscriber errors from that Save do not stop the write: the stored name is returned with them
func (m *Module) SaveToStore(ctx context.Context, g *Game, name string) (string, error) {
	if m.store == nil {
		return "", eris.New("no save store")
	}
	var saveErr error
	if g == nil {
		if g, saveErr = m.Save(ctx); g == nil {
			return "", saveErr
		}
	}
	if name == "" {
		var err error
		if name, err = m.nextName(ctx); err != nil {
			return "", err
		}
	}

	data, err := g.Encode()
	if err != nil {
		return "", err
	}
	if err := m.store.Write(ctx, name, data); err != nil {
		return "", err
	}
	if saveErr != nil {
		m.log.Warn().Err(saveErr).Str("save", name).Int("bytes", len(data)).Msg("game saved with errors")
		return name, saveErr
	}
	m.log.Info().Str("save", name).Int("bytes", len(data)).Msg("game saved")
	return name, nil
}

// nextName returns Save_<n+1> for n existing saves, skipping names already taken
func (m *Module) nextName(ctx context.Context) (string, error) {
	entries, err := m.store.List(ctx)
	if err != nil {
		return "", err
	}
	taken := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		taken[e.Name] = struct{}{}
	}
	for n := len(entries) + 1; ; n++ {
		name := fmt.Sprintf("Save_%d", n)
		if _, ok := taken[name]; !ok {
			return name, nil
		}
	}
}

// LoadFromStore decodes the named save and triggers a load with it
func (m *Module) LoadFromStore(ctx context.Context, name string) (*Game, error) {
	if m.store == nil {
		return nil, eris.New("no save store")
	}
	data, err := m.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	g, err := DecodeGame(data, m.log)
	if err != nil {
		return nil, eris.Wrapf(err, "decode save %q", name)
	}
	if err := m.TriggerLoad(ctx, g); err != nil {
		return g, err
	}
	m.log.Info().Str("save", name).Msg("game loaded")
	return g, nil
}

// Delete removes the named save
func (m *Module) Delete(ctx context.Context, name string) error {
	if m.store == nil {
		return eris.New("no save store")
	}
	return m.store.Delete(ctx, name)
}

// List returns stored saves newest first
func (m *Module) List(ctx context.Context) ([]Entry, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.List(ctx)
}

// JSONDump renders g as indented JSON in document order
func JSONDump(g *Game) ([]byte, error) {
	doc := NewDocument()
	g.Write(doc)
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "dump save")
	}
	return pretty.PrettyOptions(raw, &pretty.Options{Width: 80, Indent: "  ", SortKeys: false}), nil
}
