// Command spook-sandbox hosts the audio and save modules in a terminal UI
// for auditioning definitions, watching the handle pool and exercising saves
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/lixenwraith/spook/audio"
	"github.com/lixenwraith/spook/config"
	"github.com/lixenwraith/spook/core"
	"github.com/lixenwraith/spook/engine"
	"github.com/lixenwraith/spook/logging"
	"github.com/lixenwraith/spook/module"
	"github.com/lixenwraith/spook/registry"
	"github.com/lixenwraith/spook/save"
)

var (
	logPath      = flag.String("log", "spook-sandbox.log", "Log file; the terminal is owned by the UI")
	manifestFlag = flag.String("manifest", "", "Manifest directory, overrides SPOOK_AUDIO_MANIFEST_DIR")
	backendFlag  = flag.String("backend", "", "Audio backend: sim or beep, overrides SPOOK_AUDIO_BACKEND")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *manifestFlag != "" {
		cfg.AudioManifest = *manifestFlag
	}
	if *backendFlag != "" {
		cfg.AudioBackend = *backendFlag
	}

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logging.NewWriter(cfg, logFile)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("sandbox exited with error")
		fmt.Fprintf(os.Stderr, "spook-sandbox: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return eris.Wrap(err, "create screen")
	}
	if err := screen.Init(); err != nil {
		return eris.Wrap(err, "init screen")
	}
	core.SetCrashHook(screen.Fini)
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	defer screen.Fini()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := module.NewRuntime(cfg, log)
	host := engine.NewHost(rt)

	backend, err := audio.NewBackend(cfg)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.AudioBackend).Msg("audio backend unavailable, using simulation")
		backend = audio.NewSimBackend()
	}
	loader := audio.NewClipLoader(cfg)

	var (
		locator registry.Locator[*audio.Definition]
		label   string
	)
	if cfg.AudioManifest != "" {
		locator = audio.NewManifestLocator(cfg.AudioManifest, loader, log)
	} else {
		locator = builtinLocator(ctx, loader, log)
		label = builtinLabel
	}
	audioMod := audio.NewModule(backend, locator, label)

	var store save.Store
	if s, err := save.NewStore(cfg); err == nil {
		store = s
	} else {
		log.Error().Err(err).Msg("save store unavailable, saving to disk disabled")
	}
	saveMod := save.NewModule(store)
	sc := newScene(audioMod)

	for _, m := range []module.Module{audioMod, saveMod, sc} {
		if err := host.Register(m); err != nil {
			return err
		}
	}
	if err := host.Boot(ctx); err != nil {
		return err
	}
	defer host.Teardown()

	ticker := engine.NewTicker(rt, cfg.TickInterval())
	ticker.Start()
	defer ticker.Stop()

	a := &app{
		ctx:    ctx,
		screen: screen,
		cfg:    cfg,
		log:    log,
		host:   host,
		ticker: ticker,
		audio:  audioMod,
		saves:  saveMod,
		scene:  sc,
		keys:   defaultKeyTable(),
	}
	a.run()
	return nil
}
