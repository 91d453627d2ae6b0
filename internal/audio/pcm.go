package audio

import (
	"fmt"
	"math"

	"github.com/zeozeozeo/gomplerate"
)

// ResampledLength is the length a buffer of n samples has after conversion
// from one rate to another.
func ResampledLength(n, from, to int) int {
	if from <= 0 || from == to {
		return n
	}
	return int(math.Round(float64(n) * float64(to) / float64(from)))
}

// Resample converts mono samples from one rate to another. The result always
// has exactly ResampledLength(len(samples), from, to) samples.
func Resample(samples []int16, from, to int) ([]int16, error) {
	if from == to || len(samples) == 0 {
		return samples, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from, to)
	}

	resampler, err := gomplerate.NewResampler(1, from, to)
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	return fitLength(resampler.ResampleInt16(samples), ResampledLength(len(samples), from, to)), nil
}

// fitLength trims, or pads by holding the last sample, so the filter's edge
// handling never changes the output length.
func fitLength(s []int16, n int) []int16 {
	if len(s) == n {
		return s
	}
	if len(s) > n {
		return s[:n]
	}
	out := make([]int16, n)
	copy(out, s)
	var last int16
	if len(s) > 0 {
		last = s[len(s)-1]
	}
	for i := len(s); i < n; i++ {
		out[i] = last
	}
	return out
}

// ToFloat32 scales 16-bit samples into [-1, 1).
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// NormalizePeak scales x in place so its peak absolute value is 1.0.
// Silence is left untouched.
func NormalizePeak(x []float32) {
	var peak float32
	for _, v := range x {
		if a := abs32(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range x {
		x[i] /= peak
	}
}

// Stats summarises a 16-bit buffer.
type Stats struct {
	Samples int
	Min     int16
	Max     int16
	// MeanAbs is in raw sample units.
	MeanAbs float64
}

// Level is MeanAbs on the [-1, 1] scale.
func (s Stats) Level() float64 {
	return s.MeanAbs / 32768.0
}

func Measure(samples []int16) Stats {
	st := Stats{Samples: len(samples)}
	if len(samples) == 0 {
		return st
	}
	st.Min, st.Max = samples[0], samples[0]
	var sum float64
	for _, s := range samples {
		if s < st.Min {
			st.Min = s
		}
		if s > st.Max {
			st.Max = s
		}
		sum += math.Abs(float64(s))
	}
	st.MeanAbs = sum / float64(len(samples))
	return st
}

const (
	// MinSamples and MinLevel gate transcription: quieter or shorter
	// recordings are not worth a model run.
	MinSamples = 100
	MinLevel   = 0.001
)

// Audible reports whether a buffer is long and loud enough to transcribe.
func (s Stats) Audible() bool {
	return s.Samples > MinSamples && s.Level() > MinLevel
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
