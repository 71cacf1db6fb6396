/*
vkcube opens a window and draws a rotating, textured cube with Vulkan.
Settings are read from vkcube.toml in the working directory when present.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spaghettifunk/vkcube/engine"
	"github.com/spaghettifunk/vkcube/engine/assets"
	"github.com/spaghettifunk/vkcube/engine/core"
	"github.com/spaghettifunk/vkcube/engine/platform"
	"github.com/spaghettifunk/vkcube/engine/renderer/vulkan"
)

const configFile = "vkcube.toml"

func main() {
	if err := run(); err != nil {
		// Exits with status 1.
		core.LogFatal("%+v", err)
	}
}

func run() error {
	cfg, err := engine.LoadConfig(configFile)
	if err != nil {
		return err
	}
	core.SetLogLevel(core.ParseLogLevel(cfg.LogLevel))

	events := core.NewEventBus()
	p := platform.New(events)
	if err := p.Startup(cfg.Window.Title,
		cfg.Window.StartPosX,
		cfg.Window.StartPosY,
		cfg.Window.StartWidth,
		cfg.Window.StartHeight); err != nil {
		return err
	}
	defer p.Shutdown()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer signal.Stop(sigCh)
	// Stopped before the window is destroyed, so RequestClose never sees a dead window.
	defer watchSignals(sigCh, func() {
		core.LogInfo("signal received, closing window")
		p.RequestClose()
	})()

	vertexShader := cfg.AssetPath(cfg.Assets.VertexShader)
	fragmentShader := cfg.AssetPath(cfg.Assets.FragmentShader)
	texture := cfg.AssetPath(cfg.Assets.Texture)

	backend := vulkan.New(p, vulkan.RendererConfig{
		ApplicationName:    cfg.Window.Title,
		Validation:         cfg.Renderer.Validation,
		ClearColor:         cfg.Renderer.ClearColor,
		RotationStep:       cfg.Renderer.RotationStep,
		VertexShaderPath:   vertexShader,
		FragmentShaderPath: fragmentShader,
		TexturePath:        texture,
	})

	e := engine.New(cfg, p, events, backend)
	if err := e.Initialize(context.Background()); err != nil {
		if errors.Is(err, core.ErrWindowClosing) {
			core.LogInfo("window closed during startup")
			return e.Shutdown()
		}
		return errors.CombineErrors(err, e.Shutdown())
	}

	if cfg.Renderer.WatchAssets {
		am, err := assets.NewAssetManager()
		if err != nil {
			return errors.CombineErrors(err, e.Shutdown())
		}
		defer am.Close()
		if err := am.Track(vertexShader, fragmentShader, texture); err != nil {
			return errors.CombineErrors(err, e.Shutdown())
		}
		am.Start()
		backend.WatchAssets(am.Changes())
	}

	runErr := e.Run()
	return errors.CombineErrors(runErr, e.Shutdown())
}

// watchSignals calls onSignal for the first signal on sigCh. The returned stop
// function ends the watcher and returns only once it has exited.
func watchSignals(sigCh <-chan os.Signal, onSignal func()) (stop func()) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-sigCh:
			onSignal()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
