package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDownmixInterleavedMono(t *testing.T) {
	input := []int{1, 2, 3, 4}
	got := downmixInterleaved(input, 1, len(input))

	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %d, got %d", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	input := []int{
		0, 100,
		50, 50,
		100, 0,
		-50, 50,
	}
	expected := []int{50, 50, 50, 0}

	got := downmixInterleaved(input, 2, 4)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %d, got %d", i, expected[i], got[i])
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	in := PCM{Samples: []int16{0, 1000, -1000, 32767, -32768, 5}, SampleRate: 22050}

	if err := WriteWAV(path, in); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() <= WAVHeaderSize {
		t.Fatalf("expected samples after the header, size %d", fi.Size())
	}

	out, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if out.SampleRate != 22050 {
		t.Errorf("expected 22050 Hz, got %d", out.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("expected %d samples, got %d", len(in.Samples), len(out.Samples))
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in.Samples[i], out.Samples[i])
		}
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("this is not a riff file at all, just some text padding it out"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestResampleLength(t *testing.T) {
	samples := make([]int16, 44100)
	for i := range samples {
		samples[i] = int16(i % 2000)
	}

	for _, rate := range []int{8000, 11025, 22050, 44100, 48000} {
		for _, n := range []int{101, 4410, 44100} {
			got, err := Resample(samples[:n], rate, 16000)
			if err != nil {
				t.Fatalf("Resample(%d Hz, %d): %v", rate, n, err)
			}
			if want := ResampledLength(n, rate, 16000); len(got) != want {
				t.Errorf("rate %d n %d: expected %d samples, got %d", rate, n, want, len(got))
			}
		}
	}
}

func TestResampledLengthRounds(t *testing.T) {
	// 3 * 16000 / 44100 = 1.088 -> 1; 7 * 16000 / 22050 = 5.079 -> 5
	cases := []struct{ n, from, want int }{
		{3, 44100, 1},
		{7, 22050, 5},
		{44100, 44100, 16000},
		{441, 44100, 160},
		{16000, 16000, 16000},
		{3, 32000, 2}, // 1.5 rounds up
	}
	for _, c := range cases {
		if got := ResampledLength(c.n, c.from, 16000); got != c.want {
			t.Errorf("ResampledLength(%d, %d): expected %d, got %d", c.n, c.from, c.want, got)
		}
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := []int16{1, 2, 3}
	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[2] != 3 {
		t.Errorf("expected passthrough, got %v", out)
	}
}

func TestFitLength(t *testing.T) {
	if got := fitLength([]int16{1, 2, 3}, 2); len(got) != 2 || got[1] != 2 {
		t.Errorf("trim failed: %v", got)
	}
	got := fitLength([]int16{1, 2}, 4)
	if len(got) != 4 || got[2] != 2 || got[3] != 2 {
		t.Errorf("pad should hold the last sample: %v", got)
	}
}

func TestNormalizePeakSilence(t *testing.T) {
	x := make([]float32, 16)
	NormalizePeak(x)
	for i, v := range x {
		if v != 0 {
			t.Fatalf("sample %d changed to %f", i, v)
		}
	}
}

func TestNormalizePeak(t *testing.T) {
	x := []float32{0.1, -0.25, 0.05}
	NormalizePeak(x)
	if x[1] != -1 {
		t.Errorf("peak should become -1, got %f", x[1])
	}
	if x[0] < 0.39 || x[0] > 0.41 {
		t.Errorf("expected 0.4, got %f", x[0])
	}
}

func TestToFloat32(t *testing.T) {
	got := ToFloat32([]int16{-32768, 0, 16384})
	if got[0] != -1 || got[1] != 0 || got[2] != 0.5 {
		t.Errorf("unexpected scaling %v", got)
	}
}

func TestMeasureAndAudible(t *testing.T) {
	quiet := make([]int16, 50)
	for i := range quiet {
		quiet[i] = 328 // ~0.01
	}
	if Measure(quiet).Audible() {
		t.Error("50 samples must be too short regardless of level")
	}

	silent := make([]int16, 16000)
	if Measure(silent).Audible() {
		t.Error("silence must not be audible")
	}

	speech := make([]int16, 16000)
	for i := range speech {
		if i%2 == 0 {
			speech[i] = 1638
		} else {
			speech[i] = -1638
		}
	}
	st := Measure(speech)
	if !st.Audible() {
		t.Errorf("expected audible, level %f", st.Level())
	}
	if st.Min != -1638 || st.Max != 1638 {
		t.Errorf("unexpected min/max %d/%d", st.Min, st.Max)
	}
}
