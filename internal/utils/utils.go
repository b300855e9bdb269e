package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DumpTimestampLayout is the timestamp embedded in dump and archive names.
const DumpTimestampLayout = "2006-01-02_15-04-05"

type FileUtils struct{}

// TimestampedName returns "{name}_{timestamp}{ext}".
func (f *FileUtils) TimestampedName(name, ext string, now time.Time) string {
	cleanName := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return fmt.Sprintf("%s_%s%s", cleanName, now.Format(DumpTimestampLayout), ext)
}

// EnsureDir creates dir and its parents if missing.
func (f *FileUtils) EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// RemoveIfExists deletes path, ignoring a missing file.
func (f *FileUtils) RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

// InputUtils is the operator confirmation gate.
type InputUtils struct {
	in  *bufio.Reader
	out io.Writer
}

func NewInputUtils(in io.Reader, out io.Writer) *InputUtils {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &InputUtils{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question. Forced answers yes without prompting.
// Only "y" and "yes" accept; empty input and EOF decline.
func (i *InputUtils) Confirm(prompt string, forced bool) (bool, error) {
	if forced {
		return true, nil
	}

	fmt.Fprintf(i.out, "🤔 %s %s: ", prompt, color.New(color.Faint).Sprint("(y/N)"))
	line, err := i.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(i.out)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
