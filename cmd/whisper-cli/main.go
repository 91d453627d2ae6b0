package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/petems/whisper-cli/internal/app"
	"github.com/petems/whisper-cli/internal/capture"
	"github.com/petems/whisper-cli/internal/config"
	"github.com/petems/whisper-cli/internal/devices"
	"github.com/petems/whisper-cli/internal/hostaudio"
	"github.com/petems/whisper-cli/internal/inject"
	"github.com/petems/whisper-cli/internal/logging"
	"github.com/petems/whisper-cli/internal/session"
	"github.com/petems/whisper-cli/internal/sysexec"
	"github.com/petems/whisper-cli/internal/transcribe"
	"github.com/petems/whisper-cli/internal/ui"
	"github.com/petems/whisper-cli/internal/whisper"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

// Tools the capture chain shells out to.
var requiredTools = []string{"arecord", "parec", "parecord", "pactl", "pkill"}

type cli struct {
	Config   string           `help:"Path to config.json (defaults to the XDG config dir)." type:"path"`
	CacheDir string           `help:"Directory for recordings and transcripts." type:"path"`
	LogLevel string           `help:"Log level (debug, info, warn, error)." placeholder:"LEVEL"`
	Version  kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var flags cli
	kong.Parse(&flags,
		kong.Name("whisper-cli"),
		kong.Description("Record from a microphone or the system output and transcribe it locally with whisper.cpp."),
		kong.Vars{"version": Version + " (" + Commit + ")"},
	)

	cfg, err := config.Load(flags.Config)
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if flags.CacheDir != "" {
		cfg.CacheDir = flags.CacheDir
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}

	log := logging.NewWithLevel(cfg.LogLevel)
	log.Debug().Str("version", Version).Str("commit", Commit).Msg("whisper-cli starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := ui.New(os.Stdin, os.Stdout)
	console.Info("Transcription Tool started! Press Ctrl+C to exit.")

	if missing := sysexec.Missing(requiredTools...); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Msg("Recording tools not found")
		console.Error("Warning: Missing required tools (%s). Please install:", strings.Join(missing, ", "))
		console.Warn("sudo apt-get install alsa-utils pulseaudio-utils")
	} else {
		console.Success("Required tools (%s) are available", strings.Join(requiredTools, ", "))
	}

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CacheDir).Msg("Failed to create cache directory")
	}

	mode, err := app.SelectMode(ctx, console)
	if err != nil {
		interrupted(console)
		return
	}
	lang, err := app.SelectLanguage(ctx, console)
	if err != nil {
		interrupted(console)
		return
	}

	adapter := transcribe.New(
		whisper.Loader(cfg.ModelsDir(), cfg.Whisper.Threads, log),
		cfg.Whisper.Timeout.Std(),
		log,
	)
	defer adapter.Close()

	console.Warn("Loading Whisper model '%s'...", lang.Model)
	if err := adapter.Preload(ctx, lang.Model); err != nil {
		if ctx.Err() != nil {
			interrupted(console)
			return
		}
		if errors.Is(err, transcribe.ErrModelUnavailable) {
			console.Error("Could not load model '%s'. Check your network connection or %s", lang.Model, cfg.ModelsDir())
		}
		log.Fatal().Err(err).Str("model", lang.Model).Msg("Failed to initialize whisper")
	}
	console.Success("Whisper model loaded!")

	selector := devices.NewSelector(sysexec.Exec{}, hostaudio.PortAudio{}, console, cfg.Devices, log)
	device, err := selector.Select(ctx, mode)
	if err != nil {
		interrupted(console)
		return
	}
	if mode == config.ModeOutput {
		console.Success("Audio output monitor selected: %s at %dHz", device.ID, device.SampleRate)
	} else {
		console.Success("Microphone selected: %s at %dHz", device.Name, device.SampleRate)
	}

	copier := inject.Nop()
	if cfg.Clipboard {
		copier = inject.New()
	}

	application := app.New(app.Config{
		Settings: app.Settings{
			Mode:     mode,
			Device:   device,
			Language: lang,
			CacheDir: cfg.CacheDir,
		},
		Recorder:    capture.NewLauncher(sysexec.Exec{}, sysexec.Exec{}, cfg.Capture, console, log),
		Transcriber: adapter,
		Clipboard:   copier,
		Console:     console,
		History:     session.NewLog(cfg.CacheDir, nil),
		Logger:      log,
	})

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Transcription loop failed")
	}
	// A second interrupt during cleanup kills the process.
	stop()
}

func interrupted(console *ui.Console) {
	console.Error("Exiting...")
	console.Note("Transcription session ended.")
}
