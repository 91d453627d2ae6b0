package app

import (
	"context"
	"strconv"

	"github.com/petems/whisper-cli/internal/config"
)

// SelectMode asks whether to record the microphone or the system output.
// Anything other than "2" means microphone. Only an interrupt is an error.
func SelectMode(ctx context.Context, c Console) (config.Mode, error) {
	c.Warn("Select recording source:")
	c.Info("1: Microphone (record your voice)")
	c.Info("2: System Audio (record computer sound output)")

	sel, err := c.Prompt(ctx, "Select recording source (1-2) > ")
	if err != nil {
		return "", err
	}

	switch sel {
	case "2":
		c.Success("Selected recording source: System Audio Output")
		return config.ModeOutput, nil
	case "1":
		c.Success("Selected recording source: Microphone")
	default:
		c.Warn("Invalid input, using Microphone as default")
	}
	return config.ModeMicrophone, nil
}

// SelectLanguage asks for one of the language tiers. Invalid input picks
// the first tier.
func SelectLanguage(ctx context.Context, c Console) (config.Language, error) {
	c.Warn("Available languages:")
	for i, l := range config.Languages {
		c.Info("%d: %s", i+1, l.Label)
	}

	sel, err := c.Prompt(ctx, "Select language option (1-"+strconv.Itoa(len(config.Languages))+") > ")
	if err != nil {
		return config.Language{}, err
	}

	n, err := strconv.Atoi(sel)
	if err != nil || n < 1 || n > len(config.Languages) {
		def := config.DefaultLanguage()
		c.Warn("Invalid input, using %s as default", def.Label)
		return def, nil
	}

	lang := config.Languages[n-1]
	c.Success("Selected language: %s", lang.Label)
	return lang, nil
}
