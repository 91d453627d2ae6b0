// Package audio holds the PCM plumbing between a recorded WAV file and the
// float samples whisper consumes.
package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVHeaderSize is the size of a canonical PCM WAV header; a file no larger
// than this carries no samples.
const WAVHeaderSize = 44

// ErrInvalidWAV is returned for files that are not decodable RIFF/WAVE.
var ErrInvalidWAV = errors.New("invalid WAV file")

// PCM is mono signed 16-bit audio.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// ReadWAV decodes path into mono 16-bit PCM, downmixing and rescaling
// other layouts.
func ReadWAV(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return PCM{}, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("decode %s: %w", path, err)
	}

	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}
	data := downmixInterleaved(buf.Data, channels, len(buf.Data)/channels)

	samples := make([]int16, len(data))
	for i, v := range data {
		samples[i] = toInt16(v, int(d.BitDepth))
	}

	return PCM{Samples: samples, SampleRate: int(d.SampleRate)}, nil
}

// WriteWAV encodes mono 16-bit PCM to path.
func WriteWAV(path string, pcm PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, pcm.SampleRate, 16, 1, 1)
	data := make([]int, len(pcm.Samples))
	for i, s := range pcm.Samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: pcm.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return enc.Close()
}

// downmixInterleaved averages interleaved frames down to one channel.
func downmixInterleaved(in []int, channels, frames int) []int {
	out := make([]int, frames)
	if channels == 1 {
		copy(out, in[:frames])
		return out
	}
	for f := 0; f < frames; f++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += in[f*channels+c]
		}
		out[f] = sum / channels
	}
	return out
}

func toInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		// 8-bit WAV is unsigned
		v = (v - 128) << 8
	case bitDepth > 16:
		v >>= bitDepth - 16
	}
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}
