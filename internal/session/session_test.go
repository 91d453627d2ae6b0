package session

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 5, 17, 9, 30, 15, 0, time.Local)
	return func() time.Time { return t }
}

func TestAppendIgnoresBlankText(t *testing.T) {
	l := NewLog(t.TempDir(), fixedClock())

	if _, ok := l.Append("   \n", "a.wav"); ok {
		t.Error("blank text should not be recorded")
	}
	rec, ok := l.Append("  hello  ", "a.wav")
	if !ok || rec.Text != "hello" || rec.SourceFile != "a.wav" {
		t.Errorf("unexpected record %+v ok=%v", rec, ok)
	}
	if l.Len() != 1 {
		t.Errorf("expected 1 record, got %d", l.Len())
	}
}

func TestSaveTranscript(t *testing.T) {
	dir := t.TempDir()
	l := NewLog(dir, fixedClock())
	rec, _ := l.Append("hello there", "cache/recording_20240517_093010.wav")

	path, err := l.SaveTranscript(rec)
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if want := filepath.Join(dir, "transcription_20240517_093015.txt"); path != want {
		t.Errorf("expected %s, got %s", want, path)
	}

	data, _ := os.ReadFile(path)
	want := "Source audio: cache/recording_20240517_093010.wav\n\nhello there"
	if string(data) != want {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveTranscriptWithoutSource(t *testing.T) {
	l := NewLog(t.TempDir(), fixedClock())
	rec, _ := l.Append("just text", "")

	path, err := l.SaveTranscript(rec)
	if err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "just text" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestSaveTranscriptNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	l := NewLog(dir, fixedClock())
	first, _ := l.Append("first", "")
	second, _ := l.Append("second", "")

	p1, err := l.SaveTranscript(first)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := l.SaveTranscript(second)
	if err != nil {
		t.Fatal(err)
	}

	if p1 == p2 {
		t.Fatalf("both transcripts written to %s", p1)
	}
	if filepath.Base(p2) != "transcription_20240517_093015_2.txt" {
		t.Errorf("unexpected collision name %s", p2)
	}
	if data, _ := os.ReadFile(p1); string(data) != "first" {
		t.Errorf("first transcript overwritten: %q", data)
	}
}

func TestFlushEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	l := NewLog(dir, fixedClock())

	if _, err := l.Flush(); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("an empty flush should not create files")
	}
}

func TestFlushWritesNumberedHistory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	l := NewLog(dir, fixedClock())
	l.Append("A", "one.wav")
	l.Append("B", "two.wav")

	path, err := l.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "session_transcription_20240517_093015") {
		t.Errorf("unexpected session file %s", path)
	}

	data, _ := os.ReadFile(path)
	want := "# Transcription Session: 2024-05-17 09:30:15\n\n1. A\n\n2. B\n\n"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestRecordsIsACopy(t *testing.T) {
	l := NewLog(t.TempDir(), fixedClock())
	l.Append("one", "")

	recs := l.Records()
	recs[0].Text = "changed"
	if l.Records()[0].Text != "one" {
		t.Error("Records exposed internal state")
	}
}
