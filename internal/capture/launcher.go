// Package capture records one session by driving an external recorder
// (arecord for microphones, parec/parecord for monitor sources) into a WAV
// file and handing the decoded audio to the main loop.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/petems/whisper-cli/internal/audio"
	"github.com/petems/whisper-cli/internal/config"
	"github.com/petems/whisper-cli/internal/devices"
	"github.com/petems/whisper-cli/internal/handoff"
	"github.com/petems/whisper-cli/internal/sysexec"
	"github.com/rs/zerolog"
)

// ErrNoAudio means an attempt finished without a usable recording.
var ErrNoAudio = errors.New("no audio recorded")

// Session describes one recording attempt.
type Session struct {
	Mode       config.Mode
	Device     devices.Device
	OutputPath string
}

// OutputPath is where a recording started at t is written.
func OutputPath(dir string, t time.Time) string {
	return filepath.Join(dir, "recording_"+t.Format("20060102_150405")+".wav")
}

// UI receives user-facing progress messages.
type UI interface {
	Success(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
	Note(format string, a ...any)
}

type Launcher struct {
	start sysexec.Starter
	run   sysexec.Runner
	cfg   config.CaptureConfig
	ui    UI
	log   zerolog.Logger
}

func NewLauncher(start sysexec.Starter, run sysexec.Runner, cfg config.CaptureConfig, ui UI, log zerolog.Logger) *Launcher {
	return &Launcher{start: start, run: run, cfg: cfg, ui: ui, log: log}
}

type attempt struct {
	label string
	name  string
	args  []string
	// timed attempts run for FallbackDuration instead of until stop
	timed bool
}

func (a attempt) String() string {
	return a.name + " " + strings.Join(a.args, " ")
}

func (l *Launcher) plan(s Session) []attempt {
	rate := strconv.Itoa(s.Device.SampleRate)
	dev := s.Device.ID

	if s.Mode == config.ModeOutput {
		parec := []string{"--device=" + dev, "--file-format=wav", "--channels=1", "--rate=" + rate, s.OutputPath}
		return []attempt{
			{label: "parec", name: "parec", args: parec},
			{label: "alternative system audio recording (parec)", name: "parec", args: parec, timed: true},
			{label: "final fallback recording (parecord)", name: "parecord", args: []string{s.OutputPath, "--device=" + dev}, timed: true},
		}
	}

	secs := strconv.Itoa(int(l.cfg.FallbackDuration.Std().Round(time.Second) / time.Second))
	return []attempt{
		{label: "arecord", name: "arecord", args: []string{"--device=" + dev, "-f", "S16_LE", "-c", "1", "-r", rate, "-t", "wav", s.OutputPath}},
		{label: "fallback recording (" + secs + " seconds)", name: "arecord", args: []string{"-d", secs, "-f", "cd", "-t", "wav", s.OutputPath}, timed: true},
	}
}

// Record runs the attempt chain until one produces audio, then pushes the
// samples, sample rate and file path onto q. It returns once the recorder
// process has been stopped; nothing is pushed if every attempt fails.
// Closing stop ends a recording; cancelling ctx also skips the fallbacks.
func (l *Launcher) Record(ctx context.Context, s Session, stop <-chan struct{}, q *handoff.Queue) {
	for i, a := range l.plan(s) {
		if i > 0 {
			if ctx.Err() != nil {
				l.log.Info().Str("mode", string(s.Mode)).Msg("Interrupted, skipping fallback recordings")
				return
			}
			l.ui.Warn("Trying %s...", a.label)
		}

		pcm, err := l.attempt(ctx, s, a, stop)
		if s.Mode == config.ModeOutput {
			l.cleanup(s.Device.ID)
		}
		if err != nil {
			l.log.Warn().Err(err).Str("cmd", a.String()).Msg("Recording attempt failed")
			l.ui.Error("Recording failed: %v", err)
			continue
		}

		st := audio.Measure(pcm.Samples)
		l.log.Info().
			Int("samples", st.Samples).
			Int("sample_rate", pcm.SampleRate).
			Str("file", s.OutputPath).
			Msg("Recording captured")
		l.ui.Success("Recording successful: %d samples", st.Samples)
		l.ui.Note("Audio stats - min: %d, max: %d, mean: %.2f", st.Min, st.Max, st.MeanAbs)

		for _, r := range []handoff.Record{
			handoff.AudioChunk(pcm.Samples),
			handoff.SampleRate(pcm.SampleRate),
			handoff.FilePath(s.OutputPath),
		} {
			if !q.Push(r) {
				l.log.Error().Msg("Handoff queue full, dropping record")
			}
		}
		return
	}

	l.log.Error().Str("mode", string(s.Mode)).Str("device", s.Device.ID).Msg("All recording attempts failed")
}

func (l *Launcher) attempt(ctx context.Context, s Session, a attempt, stop <-chan struct{}) (audio.PCM, error) {
	if err := os.Remove(s.OutputPath); err != nil && !os.IsNotExist(err) {
		l.log.Debug().Err(err).Str("file", s.OutputPath).Msg("Could not remove stale recording")
	}

	l.ui.Note("Executing command: %s", a)
	p, err := l.start.Start(a.name, a.args...)
	if err != nil {
		return audio.PCM{}, err
	}

	// Timed attempts ignore stop: they run after the user already asked to stop.
	stopCh := stop
	var limit <-chan time.Time
	if a.timed {
		stopCh = nil
		timer := time.NewTimer(l.cfg.FallbackDuration.Std())
		defer timer.Stop()
		limit = timer.C
	}

	started := time.Now()
	select {
	case <-p.Done():
		l.log.Debug().Err(p.Err()).Dur("elapsed", time.Since(started)).Msg("Recorder exited on its own")
	case <-stopCh:
		l.ui.Warn("Stopping recording...")
	case <-limit:
	case <-ctx.Done():
	}

	term := NewTerminator(p, l.cfg.StopGrace.Std(), l.cfg.KillWait.Std(), l.log)
	if err := term.Stop(); err != nil {
		l.ui.Error("Process did not terminate, giving up on it")
	}

	return collect(s.OutputPath)
}

// cleanup kills any parec/parecord still attached to device.
func (l *Launcher) cleanup(device string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pattern := "parec.*" + regexp.QuoteMeta(device)
	if _, err := l.run.Output(ctx, "pkill", "-f", pattern); err != nil {
		// pkill exits 1 when nothing matched
		l.log.Debug().Err(err).Str("pattern", pattern).Msg("pkill")
	}
}

func collect(path string) (audio.PCM, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: file not found: %s", ErrNoAudio, path)
	}
	if fi.Size() <= audio.WAVHeaderSize {
		return audio.PCM{}, fmt.Errorf("%w: file is empty (size %d)", ErrNoAudio, fi.Size())
	}

	pcm, err := audio.ReadWAV(path)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: %v", ErrNoAudio, err)
	}
	if len(pcm.Samples) == 0 {
		return audio.PCM{}, fmt.Errorf("%w: file has a header but no audio data", ErrNoAudio)
	}
	return pcm, nil
}
