// Package devices picks the capture device for a session: an ALSA
// microphone or a PulseAudio/PipeWire monitor source.
package devices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/petems/whisper-cli/internal/config"
	"github.com/petems/whisper-cli/internal/sysexec"
	"github.com/rs/zerolog"
)

// Device identifies what to record from.
type Device struct {
	ID         string
	Name       string
	SampleRate int
}

// UI is the console surface the selector talks through.
type UI interface {
	Prompt(ctx context.Context, label string) (string, error)
	Info(format string, a ...any)
	Success(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
	Detail(format string, a ...any)
	Plain(format string, a ...any)
}

// HostInput is a capture-capable input as the host audio API reports it.
type HostInput struct {
	Name       string
	SampleRate int
	Channels   int
	Default    bool
}

// InputLister enumerates host inputs (see hostaudio.PortAudio).
type InputLister interface {
	Inputs() ([]HostInput, error)
}

type Selector struct {
	run    sysexec.Runner
	inputs InputLister // optional
	ui     UI
	cfg    config.DevicesConfig
	log    zerolog.Logger
}

func NewSelector(run sysexec.Runner, inputs InputLister, ui UI, cfg config.DevicesConfig, log zerolog.Logger) *Selector {
	if cfg.DefaultSampleRate <= 0 {
		cfg.DefaultSampleRate = 44100
	}
	return &Selector{run: run, inputs: inputs, ui: ui, cfg: cfg, log: log}
}

// Select dispatches on mode.
func (s *Selector) Select(ctx context.Context, mode config.Mode) (Device, error) {
	if mode == config.ModeOutput {
		return s.SelectMonitor(ctx)
	}
	return s.SelectMicrophone(ctx)
}

func (s *Selector) fallbackMicrophone() Device {
	s.ui.Warn("Using default audio device")
	return Device{ID: "default", Name: "default", SampleRate: s.cfg.DefaultSampleRate}
}

// SelectMicrophone never fails on enumeration problems; the only error it
// returns is an abandoned prompt (ctx done or input closed).
func (s *Selector) SelectMicrophone(ctx context.Context) (Device, error) {
	hostInputs := s.hostInputs()

	var candidates []candidate
	out, err := s.run.Output(ctx, "arecord", "-l")
	if err != nil {
		s.log.Warn().Err(err).Msg("arecord -l failed")
		s.ui.Error("Error detecting ALSA devices: %v", err)
	} else {
		s.ui.Detail("ALSA devices from arecord -l:")
		s.ui.Plain("%s", strings.TrimRight(string(out), "\n"))
		for _, c := range ParseCards(string(out)) {
			candidates = append(candidates, candidate{name: c.Name, hw: c.HW()})
		}
	}

	if len(candidates) == 0 && len(hostInputs) > 0 {
		s.log.Info().Int("inputs", len(hostInputs)).Msg("No ALSA cards parsed, using PortAudio inputs")
		for _, in := range hostInputs {
			candidates = append(candidates, candidate{name: in.Name, rate: in.SampleRate})
		}
	}

	if len(candidates) == 0 {
		s.log.Warn().Msg("No capture devices found")
		s.ui.Error("No ALSA devices found!")
		return s.fallbackMicrophone(), nil
	}

	if s.cfg.AutoSelectPreferred {
		if c, pref, ok := s.preferred(candidates); ok {
			s.log.Info().Str("device", c.name).Str("matched", pref).Msg("Auto-selected preferred microphone")
			s.ui.Success("Found preferred microphone %q (matches %q)", c.name, pref)
			return s.micDevice(c, hostInputs), nil
		}
	}

	s.ui.Warn("Please select a microphone:")
	for i, c := range candidates {
		if c.hw != "" {
			s.ui.Warn("%d: %s (%s)", i, c.name, c.hw)
		} else {
			s.ui.Warn("%d: %s", i, c.name)
		}
	}

	idx, err := s.choose(ctx, "Select microphone number > ", len(candidates))
	if err != nil {
		if isAbandoned(err) {
			return Device{}, err
		}
		s.ui.Error("Invalid input, using default device")
		return s.fallbackMicrophone(), nil
	}

	c := candidates[idx]
	s.ui.Success("Selected: %s", c.name)
	return s.micDevice(c, hostInputs), nil
}

type candidate struct {
	name string
	hw   string
	rate int
}

func (s *Selector) preferred(cs []candidate) (candidate, string, bool) {
	for _, c := range cs {
		for _, p := range s.cfg.PreferredMicrophones {
			if p != "" && strings.Contains(c.name, p) {
				return c, p, true
			}
		}
	}
	return candidate{}, "", false
}

func (s *Selector) micDevice(c candidate, hostInputs []HostInput) Device {
	id := "default"
	if !s.cfg.PipeWireDefault && c.hw != "" {
		id = c.hw
	}

	rate := c.rate
	if rate <= 0 {
		rate = matchRate(c.name, hostInputs)
	}
	if rate <= 0 {
		rate = s.cfg.DefaultSampleRate
	}

	return Device{ID: id, Name: c.name, SampleRate: rate}
}

// matchRate finds a PortAudio input whose name shares the card name.
func matchRate(name string, inputs []HostInput) int {
	card := name
	if i := strings.Index(name, ":"); i > 0 {
		card = name[:i]
	}
	for _, in := range inputs {
		if card != "" && strings.Contains(in.Name, card) {
			return in.SampleRate
		}
	}
	return 0
}

func (s *Selector) hostInputs() []HostInput {
	if s.inputs == nil {
		return nil
	}
	inputs, err := s.inputs.Inputs()
	if err != nil {
		s.log.Debug().Err(err).Msg("PortAudio enumeration unavailable")
		return nil
	}
	return inputs
}

// SelectMonitor picks a monitor source for recording system output. Like
// SelectMicrophone it only returns an error for an abandoned prompt.
func (s *Selector) SelectMonitor(ctx context.Context) (Device, error) {
	monitor := func(name string) Device {
		return Device{ID: name, Name: name, SampleRate: s.cfg.DefaultSampleRate}
	}

	out, err := s.run.Output(ctx, "pactl", "list", "sources")
	if err != nil {
		s.log.Warn().Err(err).Msg("pactl list sources failed")
		s.ui.Error("Error detecting PulseAudio sources: %v", err)
	} else {
		s.ui.Detail("PulseAudio/PipeWire sources:")
		sources := ParseSources(string(out))
		list, label := Monitors(sources), "Select output monitor number > "

		if len(list) > 0 {
			s.ui.Warn("Available audio output monitors:")
		} else {
			s.ui.Warn("No monitor sources found, checking all sources...")
			list, label = sources, "Select source number > "
			if len(list) > 0 {
				s.ui.Warn("Available audio sources (may not all be monitors):")
			}
		}

		if len(list) > 0 {
			for i, src := range list {
				s.ui.Warn("%d: %s", i, src.Label())
			}
			idx, err := s.choose(ctx, label, len(list))
			if err == nil {
				src := list[idx]
				s.ui.Success("Selected: %s", src.Label())
				d := monitor(src.Name)
				d.Name = src.Label()
				return d, nil
			}
			if isAbandoned(err) {
				return Device{}, err
			}
			s.ui.Error("Invalid input, trying to find default monitor")
		}
	}

	if name, ok := s.firstShortMonitor(ctx); ok {
		return monitor(name), nil
	}

	s.log.Warn().Str("device", s.cfg.DefaultMonitor).Msg("Falling back to default monitor")
	s.ui.Warn("Using default monitor source")
	return monitor(s.cfg.DefaultMonitor), nil
}

func (s *Selector) firstShortMonitor(ctx context.Context) (string, bool) {
	out, err := s.run.Output(ctx, "pactl", "list", "short", "sources")
	if err != nil {
		s.log.Warn().Err(err).Msg("pactl list short sources failed")
		s.ui.Error("Error finding default monitor: %v", err)
		return "", false
	}
	s.ui.Info("Available sources from 'pactl list short sources':")
	s.ui.Plain("%s", strings.TrimRight(string(out), "\n"))

	names := ParseShortMonitors(string(out))
	for _, n := range names {
		s.ui.Success("Found monitor source: %s", n)
	}
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}

var errOutOfRange = errors.New("selection out of range")

func (s *Selector) choose(ctx context.Context, label string, n int) (int, error) {
	answer, err := s.ui.Prompt(ctx, label)
	if err != nil {
		return 0, err
	}
	idx, err := strconv.Atoi(answer)
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q: %w", answer, err)
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("%w: %d", errOutOfRange, idx)
	}
	return idx, nil
}

func isAbandoned(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF)
}
