package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HarveyDevel/fonts-installer/internal/installer"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printer renders progress lines with coloured Success/Error markers.
type printer struct {
	out    io.Writer
	errOut io.Writer
	green  *color.Color
	red    *color.Color
}

func newPrinter(out, errOut io.Writer) *printer {
	p := &printer{
		out:    out,
		errOut: errOut,
		green:  color.New(color.FgGreen, color.Bold),
		red:    color.New(color.FgRed, color.Bold),
	}
	if !isTerminal(out) {
		p.green.DisableColor()
	}
	if !isTerminal(errOut) {
		p.red.DisableColor()
	}
	return p
}

func (p *printer) event(ev installer.Event) {
	switch ev.Level {
	case installer.LevelSuccess:
		p.success(ev.Message)
	case installer.LevelError:
		p.error(ev.Message)
	default:
		fmt.Fprintln(p.out, ev.Message)
	}
}

func (p *printer) success(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", p.green.Sprint("Success:"), msg)
}

func (p *printer) error(msg string) {
	fmt.Fprintf(p.errOut, "%s %s\n", p.red.Sprint("Error:"), msg)
}
