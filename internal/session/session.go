// Package session keeps the transcripts produced during one run and writes
// them to disk: one file per transcript, plus a numbered summary on exit.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrEmpty is returned by Flush when nothing was transcribed.
var ErrEmpty = errors.New("no transcriptions in session")

const stamp = "20060102_150405"

type Record struct {
	Text       string
	SourceFile string
	Time       time.Time
}

// Log is the in-memory session history. It is safe for concurrent use.
type Log struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	records []Record
}

// NewLog writes files under dir. A nil now uses time.Now.
func NewLog(dir string, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{dir: dir, now: now}
}

// Append adds a transcript. Blank text is not recorded.
func (l *Log) Append(text, source string) (Record, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Record{}, false
	}

	rec := Record{Text: text, SourceFile: source, Time: l.now()}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return rec, true
}

// Records returns a copy of the history in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// SaveTranscript writes rec to transcription_<timestamp>.txt and returns the
// path. An existing file is never overwritten.
func (l *Log) SaveTranscript(rec Record) (string, error) {
	var b strings.Builder
	if rec.SourceFile != "" {
		fmt.Fprintf(&b, "Source audio: %s\n\n", rec.SourceFile)
	}
	b.WriteString(rec.Text)

	return l.create("transcription_"+rec.Time.Format(stamp), b.String())
}

// Flush writes the whole history to session_transcription_<timestamp>.txt.
func (l *Log) Flush() (string, error) {
	records := l.Records()
	if len(records) == 0 {
		return "", ErrEmpty
	}

	now := l.now()
	var b strings.Builder
	fmt.Fprintf(&b, "# Transcription Session: %s\n\n", now.Format("2006-01-02 15:04:05"))
	for i, r := range records {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, r.Text)
	}

	return l.create("session_transcription_"+now.Format(stamp), b.String())
}

// create writes content to base.txt in the log directory, adding _N to the
// name until it is unused.
func (l *Log) create(base, content string) (string, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return "", fmt.Errorf("create %s: %w", l.dir, err)
	}

	for n := 1; ; n++ {
		name := base + ".txt"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.txt", base, n)
		}
		path := filepath.Join(l.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}

		if _, err := f.WriteString(content); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, nil
	}
}
