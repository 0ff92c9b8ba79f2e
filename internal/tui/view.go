package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/ui"
)

const (
	headerHeight = 1
	footerHeight = 1
	inputHeight  = 4
	// border plus horizontal padding of a pane
	paneChrome = 4
	minListW   = 20
)

func (m *Model) previewWidth() int {
	w := m.opts.PreviewWidth
	if half := m.width / 2; w > half {
		w = half
	}
	return max(w, 10)
}

func (m *Model) layout() {
	h := m.height - headerHeight - footerHeight - 2
	if m.mode == modeAdd || m.mode == modeRename {
		h -= inputHeight
	}
	h = max(h, 3)
	pw := m.previewWidth()
	lw := max(m.width-pw-2*paneChrome, minListW)
	m.list.SetSize(lw, h)
	m.preview.Width = pw
	m.preview.Height = h
	m.body.SetWidth(max(m.width-paneChrome, 10))
	m.body.SetHeight(max(m.height-headerHeight-footerHeight-3, 3))
}

func (m *Model) refreshPreview() {
	l := m.selected()
	if l == nil {
		m.preview.SetContent(mutedStyle.Render("No logs yet. Press n to write one."))
		return
	}
	m.preview.SetContent(renderPreview(l, m.preview.Width))
	m.preview.GotoTop()
}

func renderPreview(l *model.Log, width int) string {
	if l.Locked {
		return ui.LockGlyph() + " " + lockedStyle.Render(l.Name) +
			"\n\nThis log is password protected.\nUse `journal unlock` to read it."
	}
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", l.Name)
	if d := strings.TrimSpace(l.Description); d != "" {
		fmt.Fprintf(&md, "*%s*\n\n", d)
	}
	md.WriteString(l.Body)
	out, err := ui.Markdown(md.String(), width)
	if err != nil {
		out = md.String()
	}
	var meta []string
	if done, total := ui.Checklist(l.Body); total > 0 {
		meta = append(meta, ui.ProgressBar(done, total, 10))
	}
	if len(l.Tags) > 0 {
		meta = append(meta, accentStyle.Render("#"+strings.Join(l.Tags, " #")))
	}
	meta = append(meta, mutedStyle.Render(fmt.Sprintf("v%d · %s", l.Version, l.UpdatedAt.Local().Format("2006-01-02 15:04"))))
	return out + "\n" + strings.Join(meta, "\n")
}

func (m Model) header() string {
	h := titleStyle.Render("journal")
	if m.opts.Splash != "" {
		h += "  " + mutedStyle.Render(m.opts.Splash)
	}
	locked := 0
	for _, l := range m.logs {
		if l.Locked {
			locked++
		}
	}
	h += fmt.Sprintf("   %s %d  %s %d  %s %d",
		accentStyle.Render("Logs"), len(m.logs),
		pendingStyle.Render("Locked"), locked,
		successStyle.Render("Tags"), m.tags.Len(),
	)
	return h
}

func (m Model) footer() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render("✖ " + m.errMsg)
	case m.status != "":
		return successStyle.Render("✔ " + m.status)
	case m.mode == modeBody:
		return helpStyle.Render("ctrl+s save · esc save & close")
	case m.mode == modeTags:
		return helpStyle.Render("↑/↓ move · space toggle · esc done")
	}
	return ""
}

func (m Model) tagPicker() string {
	cur := m.selected()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tags"))
	if cur != nil {
		b.WriteString(" " + mutedStyle.Render("for "+cur.Name))
	}
	b.WriteString("\n\n")
	t := ui.Current()
	for i, tag := range m.tags.All() {
		box := t.BoxUnchecked
		if cur != nil && cur.HasTag(tag.Name) {
			box = successStyle.Render(t.BoxChecked)
		}
		prefix := "  "
		if i == m.tagCursor {
			prefix = selectedStyle.Render("> ")
		}
		line := prefix + box + " " + tag.Name
		if tag.Description != "" {
			line += " " + mutedStyle.Render(ui.Truncate(tag.Description, max(m.previewWidth()-len(tag.Name)-6, 8)))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) View() string {
	if m.mode == modeBody && m.editing != nil {
		title := titleStyle.Render("Editing " + m.editing.Name)
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			paneStyle.Render(m.body.View()),
			m.footer(),
		)
	}

	left := m.list.View()
	if m.mode == modeAdd || m.mode == modeRename {
		title := "New log"
		if m.mode == modeRename {
			title = "Rename log"
		}
		if m.errMsg != "" {
			title += ": " + errorStyle.Render(m.errMsg)
		}
		left += "\n" + inputBarStyle.Render(title+"\n"+m.ti.View())
	}
	right := m.preview.View()
	if m.mode == modeTags {
		right = m.tagPicker()
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(left),
		paneStyle.Width(m.preview.Width+paneChrome).Render(right),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
}
