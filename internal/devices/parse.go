package devices

import (
	"fmt"
	"regexp"
	"strings"
)

// Card is one capture device line from `arecord -l`.
type Card struct {
	Card   string
	ID     string
	Name   string // "<card name>: <device name>"
	Device string
}

// HW is the ALSA hardware identifier, e.g. "hw:1,0".
func (c Card) HW() string {
	return fmt.Sprintf("hw:%s,%s", c.Card, c.Device)
}

// Source is one entry from `pactl list sources`.
type Source struct {
	Index       string
	Name        string
	Description string
}

// Label is what the user sees in the selection list.
func (s Source) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}

// IsMonitor reports whether the source loops back an output sink.
func (s Source) IsMonitor() bool {
	return (s.Description != "" && monitorDesc.MatchString(strings.ToLower(s.Description))) ||
		strings.Contains(strings.ToLower(s.Name), "monitor")
}

var (
	cardLine    = regexp.MustCompile(`card (\d+): (\w+) \[(.*?)\], device (\d+): (.*)`)
	monitorDesc = regexp.MustCompile(`monitor.*of.*`)
)

// ParseCards extracts capture devices from `arecord -l` output.
func ParseCards(out string) []Card {
	var cards []Card
	for _, line := range strings.Split(out, "\n") {
		m := cardLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		cards = append(cards, Card{
			Card:   m[1],
			ID:     m[2],
			Name:   m[3] + ": " + strings.TrimSpace(m[5]),
			Device: m[4],
		})
	}
	return cards
}

// ParseSources extracts sources from `pactl list sources`. Blocks without a
// Name are dropped.
func ParseSources(out string) []Source {
	var (
		sources []Source
		cur     *Source
	)
	flush := func() {
		if cur != nil && cur.Name != "" {
			sources = append(sources, *cur)
		}
	}

	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Source #"):
			flush()
			cur = &Source{Index: strings.TrimSpace(strings.TrimPrefix(line, "Source #"))}
		case cur == nil:
		case cur.Name == "" && strings.Contains(line, "Name:"):
			cur.Name = strings.TrimSpace(line[strings.Index(line, "Name:")+len("Name:"):])
		case cur.Description == "" && strings.Contains(line, "Description:"):
			cur.Description = strings.TrimSpace(line[strings.Index(line, "Description:")+len("Description:"):])
		}
	}
	flush()

	return sources
}

// Monitors filters sources down to monitor sources.
func Monitors(sources []Source) []Source {
	var out []Source
	for _, s := range sources {
		if s.IsMonitor() {
			out = append(out, s)
		}
	}
	return out
}

// ParseShortMonitors returns the names of monitor sources from
// `pactl list short sources` (tab separated: index, name, driver, ...).
func ParseShortMonitors(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(strings.ToLower(line), "monitor") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		names = append(names, strings.TrimSpace(fields[1]))
	}
	return names
}
