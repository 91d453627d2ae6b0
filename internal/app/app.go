package app

import (
	"context"
	"errors"
	"time"

	"github.com/petems/whisper-cli/internal/audio"
	"github.com/petems/whisper-cli/internal/capture"
	"github.com/petems/whisper-cli/internal/config"
	"github.com/petems/whisper-cli/internal/devices"
	"github.com/petems/whisper-cli/internal/handoff"
	"github.com/petems/whisper-cli/internal/inject"
	"github.com/petems/whisper-cli/internal/session"
	"github.com/petems/whisper-cli/internal/transcribe"
	"github.com/rs/zerolog"
)

// Settings are fixed once setup is done.
type Settings struct {
	Mode     config.Mode
	Device   devices.Device
	Language config.Language
	CacheDir string
}

// Recorder captures one recording and hands it off through q. It returns
// once the recorder process is gone. Cancelling ctx means the user quit.
type Recorder interface {
	Record(ctx context.Context, s capture.Session, stop <-chan struct{}, q *handoff.Queue)
}

type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, rate int, lang config.Language) (string, error)
}

// Console is the interactive terminal.
type Console interface {
	Info(format string, a ...any)
	Success(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
	Note(format string, a ...any)
	Plain(format string, a ...any)
	Prompt(ctx context.Context, label string) (string, error)
	WaitEnter(ctx context.Context) error
}

type Config struct {
	Settings    Settings
	Recorder    Recorder
	Transcriber Transcriber
	Clipboard   inject.Copier // Optional
	Console     Console
	History     *session.Log
	Logger      zerolog.Logger
	Now         func() time.Time // Optional
}

type App struct {
	settings Settings
	rec      Recorder
	stt      Transcriber
	clip     inject.Copier
	ui       Console
	history  *session.Log
	log      zerolog.Logger
	now      func() time.Time
}

func New(cfg Config) *App {
	clip := cfg.Clipboard
	if clip == nil {
		clip = inject.Nop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	history := cfg.History
	if history == nil {
		history = session.NewLog(cfg.Settings.CacheDir, now)
	}
	return &App{
		settings: cfg.Settings,
		rec:      cfg.Recorder,
		stt:      cfg.Transcriber,
		clip:     clip,
		ui:       cfg.Console,
		history:  history,
		log:      cfg.Logger,
		now:      now,
	}
}

// Run records and transcribes until ctx is cancelled or input closes, then
// writes the session file.
func (a *App) Run(ctx context.Context) error {
	a.log.Info().
		Str("mode", string(a.settings.Mode)).
		Str("device", a.settings.Device.ID).
		Str("model", a.settings.Language.Model).
		Msg("Transcription loop started")

	for {
		if err := a.cycle(ctx); err != nil {
			a.log.Info().Err(err).Msg("Interrupted")
			break
		}
	}

	a.shutdown()
	return nil
}

// cycle runs one start/stop/transcribe round. It only returns an error
// when the user interrupted.
func (a *App) cycle(ctx context.Context) error {
	if a.settings.Mode == config.ModeOutput {
		a.ui.Info("Press Enter to start recording audio output, then press Enter again to stop.")
	} else {
		a.ui.Info("Press Enter to start recording, then speak and press Enter again to stop.")
	}
	if err := a.ui.WaitEnter(ctx); err != nil {
		return err
	}

	res, err := a.record(ctx)
	if err != nil {
		return err
	}

	a.handle(ctx, res)
	return nil
}

// record runs the recorder in a worker until the user presses Enter again.
// On interrupt the worker is still stopped and joined, and its audio dropped.
func (a *App) record(ctx context.Context) (handoff.Result, error) {
	s := capture.Session{
		Mode:       a.settings.Mode,
		Device:     a.settings.Device,
		OutputPath: capture.OutputPath(a.settings.CacheDir, a.now()),
	}

	q := handoff.NewQueue()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.rec.Record(ctx, s, stop, q)
	}()

	if a.settings.Mode == config.ModeOutput {
		a.ui.Success("Recording... Playing audio and press Enter when finished.")
	} else {
		a.ui.Success("Recording... Speak now and press Enter when finished.")
	}

	err := a.ui.WaitEnter(ctx)
	close(stop)
	<-done

	if err != nil {
		return handoff.Result{}, err
	}
	return q.Drain(), nil
}

func (a *App) handle(ctx context.Context, res handoff.Result) {
	if res.Empty() {
		a.ui.Error("No audio chunks were recorded. Please check your microphone.")
		return
	}

	st := audio.Measure(res.Samples)
	a.ui.Note("Audio shape: (%d,)", st.Samples)
	a.ui.Note("Audio stats - min: %d, max: %d, mean: %.2f", st.Min, st.Max, st.MeanAbs)

	if !st.Audible() {
		a.log.Info().Int("samples", st.Samples).Float64("level", st.Level()).Msg("Recording below audibility threshold")
		a.ui.Warn("Audio level too low. Please speak louder or check your microphone settings.")
		return
	}

	if res.SampleRate != transcribe.TargetRate {
		a.ui.Note("Resampling audio from %dHz to %dHz for transcription", res.SampleRate, transcribe.TargetRate)
	}

	started := a.now()
	text, err := a.stt.Transcribe(ctx, res.Samples, res.SampleRate, a.settings.Language)
	if err != nil {
		a.log.Error().Err(err).Str("file", res.FilePath).Msg("Transcription failed")
		if errors.Is(err, context.DeadlineExceeded) {
			a.ui.Error("Transcription timed out. Please try again.")
		} else {
			a.ui.Error("Error during transcription: %v", err)
		}
		return
	}
	a.log.Debug().Dur("elapsed", a.now().Sub(started)).Int("chars", len(text)).Msg("Transcription finished")

	rec, ok := a.history.Append(text, res.FilePath)
	if !ok {
		a.ui.Warn("No speech detected in the transcription. Please try again and speak clearly.")
		return
	}

	a.ui.Success("Transcription: %s", rec.Text)

	path, err := a.history.SaveTranscript(rec)
	if err != nil {
		a.log.Error().Err(err).Msg("Failed to save transcription")
		a.ui.Error("Failed to save transcription: %v", err)
	} else {
		a.ui.Success("Transcription saved to %s", path)
	}

	if err := a.clip.Copy(rec.Text); err != nil {
		a.log.Warn().Err(err).Msg("Clipboard copy failed")
		a.ui.Warn("Could not copy to clipboard: %v", err)
	}

	a.ui.Warn("Session transcription history:")
	for i, r := range a.history.Records() {
		a.ui.Plain("%d. %s", i+1, r.Text)
	}
	a.ui.Plain("")
}

func (a *App) shutdown() {
	a.ui.Error("Exiting...")

	if a.history.Len() > 0 {
		path, err := a.history.Flush()
		if err != nil {
			a.log.Error().Err(err).Msg("Failed to write session file")
			a.ui.Error("Failed to save session transcriptions: %v", err)
		} else {
			a.ui.Success("All session transcriptions saved to %s", path)
		}
	}

	a.ui.Note("Transcription session ended.")
}
