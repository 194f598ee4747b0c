package cli

// This file implements terminal output helpers on top of pterm. Styling is
// disabled automatically when stdout is not a terminal, so CI logs stay
// clean.

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.DisableStyling()
	}
}

// Table renders rows with the first row treated as a header.
func Table(data [][]string) {
	if len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(data)).Render()
}

// TableBoxed renders rows inside a box with the first row as a header.
func TableBoxed(data [][]string) {
	if len(data) == 0 {
		return
	}
	_ = pterm.DefaultTable.WithBoxed().WithHasHeader().WithData(pterm.TableData(data)).Render()
}

// Green returns s styled green.
func Green(s string) string { return pterm.FgGreen.Sprint(s) }

// Yellow returns s styled yellow.
func Yellow(s string) string { return pterm.FgYellow.Sprint(s) }

// Red returns s styled red.
func Red(s string) string { return pterm.FgRed.Sprint(s) }

// Cyan returns s styled cyan.
func Cyan(s string) string { return pterm.FgCyan.Sprint(s) }

// Error prints an error message.
func Error(msg string) {
	pterm.Error.Println(msg)
}

// Printer writes user-facing progress output. Quiet suppresses everything
// except explicit errors.
type Printer struct {
	Quiet bool
}

// Section prints a section heading.
func (p *Printer) Section(msg string) {
	if p.Quiet {
		return
	}
	pterm.DefaultSection.Println(msg)
}

// Step prints a progress step.
func (p *Printer) Step(msg string) {
	if p.Quiet {
		return
	}
	pterm.Println(Cyan("→ ") + msg)
}

// Info prints an informational message.
func (p *Printer) Info(msg string) {
	if p.Quiet {
		return
	}
	pterm.Info.Println(msg)
}

// Success prints a success message.
func (p *Printer) Success(msg string) {
	if p.Quiet {
		return
	}
	pterm.Success.Println(msg)
}

// Warning prints a warning message.
func (p *Printer) Warning(msg string) {
	if p.Quiet {
		return
	}
	pterm.Warning.Println(msg)
}

// Printf prints formatted output.
func (p *Printer) Printf(format string, args ...any) {
	if p.Quiet {
		return
	}
	pterm.Printf(format, args...)
}

// SpinnerStart starts a spinner with the given message and returns a stop
// function taking the outcome and a final message. In quiet mode the spinner
// is a no-op; without a terminal it degrades to plain printed lines.
func (p *Printer) SpinnerStart(msg string) func(success bool, msg string) {
	if p.Quiet {
		return func(bool, string) {}
	}
	plainStop := func(success bool, final string) {
		if success {
			pterm.Success.Println(final)
		} else {
			pterm.Error.Println(final)
		}
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		pterm.Println(msg)
		return plainStop
	}
	spinner, err := pterm.DefaultSpinner.Start(msg)
	if err != nil {
		fmt.Println(msg)
		return plainStop
	}
	return func(success bool, final string) {
		if success {
			spinner.Success(final)
		} else {
			spinner.Fail(final)
		}
	}
}
