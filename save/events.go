package save

import (
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/event"
)

// SaveEvt asks modules to write their state into Game
// Handlers may defer work with Then; the save completes after every link ran
type SaveEvt struct {
	event.Chain
	Game *Game
	log  zerolog.Logger
}

// NewSaveEvt wraps g for a save pass
func NewSaveEvt(g *Game, log zerolog.Logger) *SaveEvt {
	return &SaveEvt{Game: g, log: log}
}

// WriteData stores v under key in the shared data section; nil is ignored
func (e *SaveEvt) WriteData(key string, v any) {
	if v == nil {
		e.log.Warn().Str("key", key).Msg("ignoring nil save data")
		return
	}
	e.Game.Data.Set(key, v)
}

// WithExtension returns the named extension section, creating it if needed
func (e *SaveEvt) WithExtension(name string) *Document {
	return e.Game.Extensions.Sub(name)
}

// LoadEvt hands a decoded Game to modules
type LoadEvt struct {
	event.Chain
	Game *Game
}

// NewLoadEvt wraps g for a load pass
func NewLoadEvt(g *Game) *LoadEvt {
	return &LoadEvt{Game: g}
}

// ReadData returns the raw value under key in the shared data section
func (e *LoadEvt) ReadData(key string) (any, bool) {
	return e.Game.Data.Get(key)
}

// Extension returns the named extension section if the save has one
func (e *LoadEvt) Extension(name string) (*Document, bool) {
	return e.Game.Extensions.TrySub(name)
}

// TryRead converts the shared value under key to T
func TryRead[T any](e *LoadEvt, key string) (T, bool) {
	v, err := Read[T](e.Game.Data, key)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
