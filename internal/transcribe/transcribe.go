// Package transcribe turns a recorded buffer into text: it prepares the
// samples for whisper and runs them through a cached per-model engine.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/petems/whisper-cli/internal/audio"
	"github.com/petems/whisper-cli/internal/config"
	"github.com/rs/zerolog"
)

// TargetRate is the sample rate whisper models expect.
const TargetRate = 16000

// ErrModelUnavailable means the engine for a model could not be loaded.
var ErrModelUnavailable = errors.New("whisper model unavailable")

// Engine recognises speech in 16 kHz mono float32 audio. An empty language
// lets the model decide.
type Engine interface {
	Recognize(ctx context.Context, pcm []float32, language string) (string, error)
	Close() error
}

// Loader opens the engine for a model name such as "base.en". Loading may
// download the model, so it honours ctx.
type Loader func(ctx context.Context, model string) (Engine, error)

// Prepare resamples to 16 kHz, scales into [-1, 1) and peak-normalises.
func Prepare(samples []int16, rate int) ([]float32, error) {
	resampled, err := audio.Resample(samples, rate, TargetRate)
	if err != nil {
		return nil, fmt.Errorf("resample %d Hz: %w", rate, err)
	}
	pcm := audio.ToFloat32(resampled)
	audio.NormalizePeak(pcm)
	return pcm, nil
}

// Hint is the language passed to the engine. English models are given no
// hint.
func Hint(lang config.Language) string {
	if lang.Code == "en" {
		return ""
	}
	return lang.Code
}

type Adapter struct {
	load    Loader
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	engines map[string]Engine
	busy    map[string]int // in-flight Recognize calls per model
}

// New returns an adapter that loads engines lazily. A zero timeout disables
// the per-call limit.
func New(load Loader, timeout time.Duration, log zerolog.Logger) *Adapter {
	return &Adapter{
		load:    load,
		timeout: timeout,
		log:     log,
		engines: make(map[string]Engine),
		busy:    make(map[string]int),
	}
}

// Preload loads model so the first transcription does not pay for it.
// Cancelling ctx abandons a download in progress.
func (a *Adapter) Preload(ctx context.Context, model string) error {
	_, err := a.engine(ctx, model)
	return err
}

func (a *Adapter) engine(ctx context.Context, model string) (Engine, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if e, ok := a.engines[model]; ok {
		return e, nil
	}

	started := time.Now()
	e, err := a.load(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, model, err)
	}
	a.log.Info().Str("model", model).Dur("elapsed", time.Since(started)).Msg("Whisper model loaded")
	a.engines[model] = e
	return e, nil
}

type result struct {
	text string
	err  error
}

// Transcribe returns the trimmed text recognised in samples.
func (a *Adapter) Transcribe(ctx context.Context, samples []int16, rate int, lang config.Language) (string, error) {
	pcm, err := Prepare(samples, rate)
	if err != nil {
		return "", err
	}

	e, err := a.engine(ctx, lang.Model)
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	hint := Hint(lang)
	a.log.Debug().
		Str("model", lang.Model).
		Str("language", hint).
		Int("samples", len(pcm)).
		Float64("seconds", float64(len(pcm))/TargetRate).
		Msg("Transcribing")

	// The engine may not notice cancellation until its next callback.
	a.acquire(lang.Model)
	done := make(chan result, 1)
	go func() {
		defer a.release(lang.Model)
		text, err := e.Recognize(ctx, pcm, hint)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("transcribe: %w", r.err)
		}
		return strings.TrimSpace(r.text), nil
	case <-ctx.Done():
		a.log.Warn().Err(ctx.Err()).Str("model", lang.Model).Msg("Transcription abandoned")
		return "", ctx.Err()
	}
}

func (a *Adapter) acquire(model string) {
	a.mu.Lock()
	a.busy[model]++
	a.mu.Unlock()
}

func (a *Adapter) release(model string) {
	a.mu.Lock()
	a.busy[model]--
	a.mu.Unlock()
}

// Close releases every idle engine. An engine still running an abandoned
// call is left to the process exit.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for model, e := range a.engines {
		if a.busy[model] > 0 {
			a.log.Warn().Str("model", model).Msg("Model still busy, not closing it")
			continue
		}
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", model, err))
		}
		delete(a.engines, model)
	}
	return errors.Join(errs...)
}
