// ABOUTME: Printer for colored status lines and aligned fields
// ABOUTME: Honours NO_COLOR and TERM=dumb

// Package output formats console output: colored status lines, tables and
// question/answer exports.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes status lines, colored when enabled
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer on stdout and stderr
func NewPrinter(useColors bool) *Printer {
	return NewPrinterWithWriters(os.Stdout, os.Stderr, useColors)
}

// NewPrinterWithWriters creates a printer on custom writers
func NewPrinterWithWriters(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

// ResolveColors decides whether to color output. NO_COLOR and TERM=dumb win
// over the configured value.
func ResolveColors(configColors bool) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return configColors
}

// Out is the printer's standard writer
func (p *Printer) Out() io.Writer {
	return p.out
}

func (p *Printer) print(w io.Writer, attr color.Attribute, prefix, plain, format string, args ...any) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintf(w, prefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, plain+format+"\n", args...)
}

// Info prints an informational line
func (p *Printer) Info(format string, args ...any) {
	p.print(p.out, color.FgCyan, "", "", format, args...)
}

// Success prints a success line
func (p *Printer) Success(format string, args ...any) {
	p.print(p.out, color.FgGreen, "✓ ", "[OK] ", format, args...)
}

// Warning prints a warning line to stderr
func (p *Printer) Warning(format string, args ...any) {
	p.print(p.err, color.FgYellow, "! ", "[WARN] ", format, args...)
}

// Error prints an error line to stderr
func (p *Printer) Error(format string, args ...any) {
	p.print(p.err, color.FgRed, "Error: ", "[ERROR] ", format, args...)
}

// Field prints an aligned "label: value" line
func (p *Printer) Field(label string, value any) {
	if p.useColors {
		c := color.New(color.FgCyan)
		c.EnableColor()
		c.Fprintf(p.out, "%-14s", label+":")
		fmt.Fprintf(p.out, " %v\n", value)
		return
	}
	fmt.Fprintf(p.out, "%-14s %v\n", label+":", value)
}
