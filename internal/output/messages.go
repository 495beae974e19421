package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Messenger writes user-facing diagnostics, usually to stderr.
type Messenger struct {
	w       io.Writer
	colored bool
	verbose bool
}

// NewMessenger creates a Messenger. Info and Detail lines are dropped unless
// verbose is set.
func NewMessenger(w io.Writer, colored, verbose bool) *Messenger {
	return &Messenger{w: w, colored: colored, verbose: verbose}
}

func (m *Messenger) print(attr color.Attribute, prefix, format string, args ...any) {
	if m.colored {
		color.New(attr).Fprintf(m.w, format+"\n", args...)
		return
	}
	fmt.Fprintf(m.w, prefix+format+"\n", args...)
}

func (m *Messenger) Success(format string, args ...any) {
	m.print(color.FgGreen, "", format, args...)
}

func (m *Messenger) Warning(format string, args ...any) {
	m.print(color.FgYellow, "WARNING: ", format, args...)
}

func (m *Messenger) Error(format string, args ...any) {
	m.print(color.FgRed, "ERROR: ", format, args...)
}

func (m *Messenger) Info(format string, args ...any) {
	if !m.verbose {
		return
	}
	m.print(color.FgCyan, "", format, args...)
}

// Detail prints a warning only in verbose mode.
func (m *Messenger) Detail(format string, args ...any) {
	if !m.verbose {
		return
	}
	m.Warning(format, args...)
}
