package output

import (
	"fmt"
	"io"
)

type Class int

const (
	Required Class = iota
	Error
	Normal
	Verbose
)

// Printer routes user-facing text by class. Logging is separate and never goes through here.
type Printer struct {
	classes    map[Class]bool
	terminal   io.Writer
	diagnosis  io.Writer
	useEscapes bool
}

func NewPrinter(include []Class, allowEscapes bool, out io.Writer, errOut io.Writer) (p Printer) {
	p = Printer{
		classes:    map[Class]bool{},
		terminal:   out,
		diagnosis:  errOut,
		useEscapes: allowEscapes,
	}
	for _, class := range include {
		p.classes[class] = true
	}
	return
}

// ClassesFor picks the printed classes for the given verbosity switches.
func ClassesFor(verbose bool, quiet bool) []Class {
	switch {
	case quiet:
		return []Class{Required, Error}
	case verbose:
		return []Class{Required, Error, Normal, Verbose}
	default:
		return []Class{Required, Error, Normal}
	}
}

func (p Printer) Out(class Class, format string, values ...interface{}) {
	if !p.classes[class] {
		return
	}
	target := &p.terminal
	if class == Error {
		target = &p.diagnosis
	}
	fmt.Fprintf(*target, format, values...)
}

// Dim de-emphasizes text if escape sequences are allowed.
func (p Printer) Dim(text string) string {
	if !p.useEscapes {
		return text
	}
	return TerminalFormatAsDim(text)
}

// Alert highlights text if escape sequences are allowed.
func (p Printer) Alert(text string) string {
	if !p.useEscapes {
		return text
	}
	return TerminalFormatAsError(text)
}
