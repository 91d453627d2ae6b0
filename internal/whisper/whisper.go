package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/petems/whisper-cli/internal/transcribe"
	"github.com/rs/zerolog"
)

// ModelPath is where the ggml file for a model lives.
func ModelPath(dir, model string) string {
	return filepath.Join(dir, "ggml-"+model+".bin")
}

// Engine runs whisper.cpp on a loaded model. Each Recognize call gets its
// own whisper context.
type Engine struct {
	model   whisper.Model
	name    string
	threads int
	log     zerolog.Logger

	mu sync.Mutex
}

// Open loads model from dir, downloading it first if the file is missing.
func Open(ctx context.Context, dir, model string, threads int, log zerolog.Logger) (*Engine, error) {
	path := ModelPath(dir, model)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := downloadModel(ctx, model, path, log); err != nil {
			return nil, fmt.Errorf("failed to download model: %w", err)
		}
	}

	m, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}

	log.Debug().Str("model", model).Bool("multilingual", m.IsMultilingual()).Msg("Model opened")
	return &Engine{model: m, name: model, threads: threads, log: log}, nil
}

// Loader opens engines from modelsDir for the transcription adapter.
func Loader(modelsDir string, threads int, log zerolog.Logger) transcribe.Loader {
	return func(ctx context.Context, model string) (transcribe.Engine, error) {
		e, err := Open(ctx, modelsDir, model, threads, log)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (e *Engine) Recognize(ctx context.Context, pcm []float32, language string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return "", errors.New("model closed")
	}

	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("failed to create context: %w", err)
	}

	if language != "" {
		if err := wctx.SetLanguage(language); err != nil {
			e.log.Warn().Err(err).Str("language", language).Msg("Failed to set language")
		}
	}
	if e.threads > 0 {
		wctx.SetThreads(uint(e.threads))
	}
	wctx.SetTranslate(false)

	// Returning false from the encoder callback aborts the run.
	keepGoing := func() bool { return ctx.Err() == nil }
	if err := wctx.Process(pcm, keepGoing, nil, nil); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper process failed: %w", err)
	}

	var text strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("get segment: %w", err)
		}
		text.WriteString(segment.Text)
	}

	e.log.Debug().Str("model", e.name).Int("chars", text.Len()).Msg("Recognition complete")
	return text.String(), nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	return err
}
