// Package hostaudio asks PortAudio which capture inputs the host has.
package hostaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/petems/whisper-cli/internal/devices"
)

var _ devices.InputLister = PortAudio{}

// PortAudio lists inputs through a short-lived PortAudio session.
type PortAudio struct{}

func (PortAudio) Inputs() ([]devices.HostInput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]devices.HostInput, 0, len(devs))
	for _, d := range devs {
		if d.MaxInputChannels > 0 {
			result = append(result, devices.HostInput{
				Name:       d.Name,
				SampleRate: int(d.DefaultSampleRate),
				Channels:   d.MaxInputChannels,
				Default:    d == defaultDevice,
			})
		}
	}

	return result, nil
}
