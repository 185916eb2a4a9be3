package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes human-facing command output. Colors follow
// color.NoColor, which honors NO_COLOR and non-terminal outputs.
type Printer struct {
	out io.Writer
	err io.Writer
}

func NewPrinter(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Heading prints a section title in cyan.
func (p *Printer) Heading(format string, a ...any) {
	cyan.Fprintf(p.out, format+"\n", a...)
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.err, "⚠️  "+format+"\n", a...)
}

// Error prints a formatted error with an explanation and suggestions to
// stderr and returns a plain error for cobra.
func (p *Printer) Error(title, explanation string, suggestions ...string) error {
	red.Fprintf(p.err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.err, "\n%s\n", explanation)
	}
	if len(suggestions) == 1 {
		fmt.Fprintf(p.err, "\n%s\n", suggestions[0])
	} else if len(suggestions) > 1 {
		fmt.Fprintf(p.err, "\nEither:\n")
		for i, s := range suggestions {
			fmt.Fprintf(p.err, "  %d. %s\n", i+1, s)
		}
	}
	return &printedError{title: title}
}

// printedError is returned once an error has been written to stderr.
type printedError struct {
	title string
}

func (e *printedError) Error() string { return e.title }
