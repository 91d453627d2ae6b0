// Package ui is the interactive terminal surface: styled status lines and
// line-based prompts that can be abandoned when the context ends.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Console struct {
	out   io.Writer
	lines <-chan string

	mu     sync.Mutex
	styles styles
}

type styles struct {
	info, success, warn, err, note, detail lipgloss.Style
}

// New starts reading lines from in. The reader goroutine ends when in
// reaches EOF or fails.
func New(in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:   out,
		lines: readLines(in),
		styles: styles{
			info:    r.NewStyle().Foreground(lipgloss.Color("86")),
			success: r.NewStyle().Foreground(lipgloss.Color("82")),
			warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
			err:     r.NewStyle().Foreground(lipgloss.Color("196")),
			note:    r.NewStyle().Foreground(lipgloss.Color("39")),
			detail:  r.NewStyle().Foreground(lipgloss.Color("212")),
		},
	}
}

func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func (c *Console) Info(format string, a ...any)    { c.print(c.styles.info, format, a...) }
func (c *Console) Success(format string, a ...any) { c.print(c.styles.success, format, a...) }
func (c *Console) Warn(format string, a ...any)    { c.print(c.styles.warn, format, a...) }
func (c *Console) Error(format string, a ...any)   { c.print(c.styles.err, format, a...) }
func (c *Console) Note(format string, a ...any)    { c.print(c.styles.note, format, a...) }
func (c *Console) Detail(format string, a ...any)  { c.print(c.styles.detail, format, a...) }

// Plain prints without styling, e.g. raw tool listings.
func (c *Console) Plain(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, fmt.Sprintf(format, a...))
}

func (c *Console) print(style lipgloss.Style, format string, a ...any) {
	msg := format
	if len(a) > 0 {
		msg = fmt.Sprintf(format, a...)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, style.Render(msg))
}

// Prompt prints label and waits for the next input line. It returns io.EOF
// once input is closed and ctx.Err() if ctx ends first.
func (c *Console) Prompt(ctx context.Context, label string) (string, error) {
	if label != "" {
		c.mu.Lock()
		fmt.Fprint(c.out, label)
		c.mu.Unlock()
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// WaitEnter blocks until the user presses Enter.
func (c *Console) WaitEnter(ctx context.Context) error {
	_, err := c.Prompt(ctx, "")
	return err
}
