package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders md for the terminal, wrapped at width. With colors off it
// uses the plain notty style so piped output stays readable.
func Markdown(md string, width int) (string, error) {
	style := Current().Glamour
	if style == "" || !Colors() {
		style = "notty"
	}
	return renderMarkdown(md, width, style)
}

func renderMarkdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

var taskRegexp = regexp.MustCompile(`^\s*[-*+] \[([ xX])\]`)

// Checklist counts markdown task items ("- [ ]" and "- [x]") in body.
// Items inside fenced code blocks are ignored.
func Checklist(body string) (done, total int) {
	fenced := false
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			fenced = !fenced
			continue
		}
		if fenced {
			continue
		}
		m := taskRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		total++
		if m[1] != " " {
			done++
		}
	}
	return done, total
}
