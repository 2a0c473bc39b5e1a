package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// options is the state shared by the root command and its subcommands.
type options struct {
	profile termenv.Profile
}

func (o *options) styler(w io.Writer) styler {
	return newStyler(w, o.profile)
}

// colorProfile maps a --color mode to the profile used for output on tty.
func colorProfile(mode string, tty *os.File) (termenv.Profile, error) {
	switch mode {
	case "never":
		return termenv.Ascii, nil
	case "always":
		p := termenv.NewOutput(tty).EnvColorProfile()
		if p == termenv.Ascii {
			p = termenv.ANSI
		}
		return p, nil
	case "auto":
		if isatty.IsTerminal(tty.Fd()) || isatty.IsCygwinTerminal(tty.Fd()) {
			return termenv.NewOutput(tty).EnvColorProfile(), nil
		}
		return termenv.Ascii, nil
	}
	return termenv.Ascii, fmt.Errorf("unknown color mode: %s (expected auto, always or never)", mode)
}

// styler colors status words on w according to a profile.
type styler struct {
	out *termenv.Output
}

func newStyler(w io.Writer, p termenv.Profile) styler {
	return styler{out: termenv.NewOutput(w, termenv.WithProfile(p))}
}

func (s styler) ok(text string) string {
	return s.out.String(text).Foreground(s.out.Color("2")).String()
}

func (s styler) warn(text string) string {
	return s.out.String(text).Foreground(s.out.Color("3")).String()
}

func (s styler) fail(text string) string {
	return s.out.String(text).Foreground(s.out.Color("1")).Bold().String()
}

func (s styler) title(text string) string {
	return s.out.String(text).Bold().String()
}
