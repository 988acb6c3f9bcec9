package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/audio"
	"github.com/lixenwraith/spook/config"
	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/engine"
	"github.com/lixenwraith/spook/save"
)

const redrawInterval = 100 * time.Millisecond

// listenerStep is how far one key press moves the listener
const listenerStep = 5.0

type panel int

const (
	panelEvents panel = iota
	panelMetrics
)

// app is the interactive sandbox: one screen over one running host
type app struct {
	ctx    context.Context
	screen tcell.Screen
	cfg    *config.Config
	log    zerolog.Logger

	host   *engine.Host
	ticker *engine.Ticker
	audio  *audio.Module
	saves  *save.Module
	scene  *scene
	keys   *keyTable

	selected int
	panel    panel
	message  string
	entries  []save.Entry
}

// definitions returns the loaded definitions sorted by name
func (a *app) definitions() []*audio.Definition {
	defs := a.audio.Registry().Objects()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name() < defs[j].Name() })
	return defs
}

func (a *app) current() *audio.Definition {
	defs := a.definitions()
	if len(defs) == 0 {
		return nil
	}
	a.selected = min(max(a.selected, 0), len(defs)-1)
	return defs[a.selected]
}

func (a *app) status(format string, args ...any) {
	a.message = fmt.Sprintf(format, args...)
}

func (a *app) fail(op string, err error) {
	a.log.Error().Err(err).Str("op", op).Msg("sandbox action failed")
	a.status("%s failed: %v", op, err)
}

func (a *app) refreshSaves() {
	entries, err := a.saves.List(a.ctx)
	if err != nil {
		a.fail("list saves", err)
		return
	}
	a.entries = entries
}

// run pumps terminal events and redraws until quit
func (a *app) run() {
	events := make(chan tcell.Event, 16)
	core.Go(func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	})

	redraw := time.NewTicker(redrawInterval)
	defer redraw.Stop()

	a.refreshSaves()
	a.draw()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !a.handle(ev) {
				return
			}
		case <-redraw.C:
		case <-a.ctx.Done():
			return
		}
		a.draw()
	}
}

// handle applies one terminal event; false means quit
func (a *app) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventKey:
		return a.key(ev)
	}
	return true
}

func (a *app) key(ev *tcell.EventKey) bool {
	switch a.keys.lookup(ev) {
	case intentQuit:
		return false
	case intentUp:
		a.selected--
	case intentDown:
		a.selected++
	case intentListenerLeft:
		a.scene.MoveListener(core.Vec3{X: -listenerStep})
	case intentListenerRight:
		a.scene.MoveListener(core.Vec3{X: listenerStep})
	case intentPanel:
		a.panel = (a.panel + 1) % 2
	case intentPlay:
		a.play()
	case intentToggleLoop:
		a.toggleLoop()
	case intentSave:
		a.save()
	case intentLoad:
		a.load()
	case intentDelete:
		a.deleteNewest()
	case intentDump:
		a.dump()
	}
	a.current()
	return true
}

func (a *app) play() {
	def := a.current()
	if def == nil {
		return
	}
	if err := a.scene.Play(a.ctx, def, core.Vec3{}); err != nil {
		if errors.Is(err, audio.ErrDisabled) {
			a.status("audio disabled")
			return
		}
		a.fail("play", err)
		return
	}
	a.status("playing %s", def.Name())
}

func (a *app) toggleLoop() {
	def := a.current()
	if def == nil {
		return
	}
	on, err := a.scene.ToggleLoop(a.ctx, def)
	if err != nil {
		a.fail("loop", err)
		return
	}
	if on {
		a.status("looping %s", def.Name())
	} else {
		a.status("stopped %s", def.Name())
	}
}

func (a *app) save() {
	name, err := a.saves.SaveToStore(a.ctx, nil, "")
	if name == "" {
		a.fail("save", err)
		return
	}
	a.refreshSaves()
	if err != nil {
		a.status("saved %s with errors: %v", name, err)
		return
	}
	a.status("saved %s", name)
}

func (a *app) load() {
	a.refreshSaves()
	if len(a.entries) == 0 {
		a.status("no saves")
		return
	}
	name := a.entries[0].Name
	if _, err := a.saves.LoadFromStore(a.ctx, name); err != nil {
		a.fail("load", err)
		return
	}
	a.status("loaded %s", name)
}

func (a *app) deleteNewest() {
	a.refreshSaves()
	if len(a.entries) == 0 {
		a.status("no saves")
		return
	}
	name := a.entries[0].Name
	if err := a.saves.Delete(a.ctx, name); err != nil {
		a.fail("delete", err)
		return
	}
	a.refreshSaves()
	a.status("deleted %s", name)
}

// dump writes the current state as JSON next to the saves
func (a *app) dump() {
	g, err := a.saves.Save(a.ctx)
	if g == nil {
		a.fail("dump", err)
		return
	}
	out, err := save.JSONDump(g)
	if err != nil {
		a.fail("dump", err)
		return
	}
	if err := os.MkdirAll(a.cfg.SaveDir, 0o755); err != nil {
		a.fail("dump", err)
		return
	}
	path := filepath.Join(a.cfg.SaveDir, "dump.json")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		a.fail("dump", err)
		return
	}
	a.status("dumped to %s", path)
}
