// Package progress renders step progress for long-running commands.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter receives one Advance per unit of work.
type Reporter interface {
	Start(total int, description string)
	Advance(message string)
	Finish()
}

// New picks a bar renderer when w is a terminal and a line renderer otherwise.
func New(w io.Writer) Reporter {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &Bar{w: w}
	}
	return &Lines{w: w}
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start(int, string) {}
func (Nop) Advance(string)    {}
func (Nop) Finish()           {}

// Bar draws an animated bar and prints step messages above it.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (b *Bar) Start(total int, description string) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (b *Bar) Advance(message string) {
	if b.bar == nil {
		return
	}
	if message != "" {
		_ = b.bar.Clear()
		fmt.Fprintln(b.w, message)
	}
	_ = b.bar.Add(1)
}

func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}

// Lines prints "current/total message" lines, suitable for logs and pipes.
type Lines struct {
	w       io.Writer
	total   int
	current int
}

func (l *Lines) Start(total int, description string) {
	l.total = total
	l.current = 0
	if description != "" {
		fmt.Fprintln(l.w, description)
	}
}

func (l *Lines) Advance(message string) {
	l.current++
	counter := color.New(color.FgHiBlack).Sprintf("%d/%d", l.current, l.total)
	if message == "" {
		fmt.Fprintln(l.w, counter)
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", counter, message)
}

func (l *Lines) Finish() {}
