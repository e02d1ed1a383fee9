// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Writer provides formatted output for the CLI. Icons are only emitted
// when the destination is an interactive terminal, so piped output stays
// machine-friendly.
type Writer struct {
	out       io.Writer
	decorated bool
}

// New creates a Writer, auto-detecting terminal decoration.
func New(out io.Writer) *Writer {
	return &Writer{out: out, decorated: IsTTY(out) && !plainRequested()}
}

// NewPlain creates a Writer that never decorates.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" && w.decorated {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s\n", msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// plainRequested honors NO_COLOR and common CI environments.
func plainRequested() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
