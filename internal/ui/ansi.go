package ui

import (
	"fmt"
	"io"
	"os"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"

	symCheck = "✔"
	symCross = "✖"
	symLock  = "🔒"
)

var (
	forceColor   bool
	disableColor bool
)

func SetColorForcing(force, disable bool) {
	forceColor = force
	disableColor = disable
}

// Colors reports whether C will emit escape codes.
func Colors() bool {
	if disableColor {
		return false
	}
	return forceColor || isTTY()
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func C(color, s string) string {
	if color == "" || !Colors() {
		return s
	}
	return color + s + reset
}

func Dim(s string) string  { return C(dim, s) }
func Bold(s string) string { return C(bold, s) }

// LockGlyph marks password-protected logs in listings.
func LockGlyph() string {
	if Current().V == "|" {
		return "[locked]"
	}
	return symLock
}

func OK(w io.Writer, msg string)   { fmt.Fprintln(w, C(fgGreen, symCheck+" "+msg)) }
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, C(fgRed, symCross+" "+msg)) }
