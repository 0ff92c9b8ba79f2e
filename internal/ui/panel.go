package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

// visibleWidth is the terminal cell width of s without escape codes.
func visibleWidth(s string) int { return runewidth.StringWidth(stripANSI(s)) }

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

// Panel draws a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	t := Current()
	maxw := 0
	for _, ln := range lines {
		if vw := visibleWidth(ln); vw > maxw {
			maxw = vw
		}
	}
	pad := func(s string) string {
		if vw := visibleWidth(s); vw < maxw {
			s += strings.Repeat(" ", maxw-vw)
		}
		return s
	}
	fmt.Fprintln(w, C(t.Muted, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR))
	for _, ln := range lines {
		fmt.Fprintln(w, C(t.Muted, t.V)+" "+pad(ln)+" "+C(t.Muted, t.V))
	}
	fmt.Fprintln(w, C(t.Muted, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR))
}

// Truncate shortens s to n cells, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "…")
}
