package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Console prints status lines for the operator. Stdout carries the change
// report, so a Console normally writes to stderr.
type Console struct {
	out   io.Writer
	color bool
	quiet bool
}

// NewConsole creates a console on stderr, colored when stderr is a terminal
func NewConsole(quiet bool) *Console {
	return &Console{out: os.Stderr, color: IsTerminal(os.Stderr), quiet: quiet}
}

// NewConsoleWithWriter creates an uncolored console writing to w
func NewConsoleWithWriter(w io.Writer, quiet bool) *Console {
	return &Console{out: w, quiet: quiet}
}

func (c *Console) paint(fn func(string) string, s string) string {
	if !c.color {
		return s
	}
	return fn(s)
}

// PrintError prints an error message in red. Errors are printed even when quiet.
func (c *Console) PrintError(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(c.out, c.paint(Red, msg))
}

// PrintSuccess prints a success message in green
func (c *Console) PrintSuccess(msg string) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, c.paint(Green, msg))
}

// PrintInfo prints a label and value
func (c *Console) PrintInfo(label string, value string) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.out, "%s: %s\n", c.paint(Cyan, label), c.paint(Yellow, value))
}

// PrintWarning prints a warning message in yellow
func (c *Console) PrintWarning(msg string) {
	if c.quiet {
		return
	}
	fmt.Fprintln(c.out, c.paint(Yellow, msg))
}
