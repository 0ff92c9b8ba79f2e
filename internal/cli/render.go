package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/ui"
)

// -------------- rendering helpers --------------

func stats(logs []*model.Log) (unlocked, locked int) {
	for _, l := range logs {
		if l.Locked {
			locked++
		} else {
			unlocked++
		}
	}
	return
}

func headerLine(logs []*model.Log, tags int) string {
	t := ui.Current()
	open, locked := stats(logs)
	return fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Journal"),
		ui.C(t.Success, t.SymDone), open,
		ui.C(t.Pending, ui.LockGlyph()), locked,
		ui.C(t.Accent, "Tags"), tags,
	)
}

// checklistTotals sums task items over every readable log.
func checklistTotals(logs []*model.Log) (done, total int) {
	for _, l := range logs {
		d, n := ui.Checklist(l.Body)
		done += d
		total += n
	}
	return
}

// indexOf maps log ids to their 1-based position in logs.
func indexOf(logs []*model.Log) map[string]int {
	idx := make(map[string]int, len(logs))
	for i, l := range logs {
		idx[l.ID] = i + 1
	}
	return idx
}

func flatLines(logs []*model.Log, idx map[string]int, showTags bool) []string {
	t := ui.Current()
	if len(logs) == 0 {
		return []string{ui.C(t.Muted, "no logs")}
	}
	out := make([]string, 0, len(logs))
	for _, l := range logs {
		n := fmt.Sprintf("%2d.", idx[l.ID])
		name := ui.Truncate(l.Name, 40)
		if l.Locked {
			name = ui.LockGlyph() + " " + name
		}
		line := fmt.Sprintf("%s %s  %s", ui.Dim(n), name,
			ui.C(t.Muted, l.CreatedAt.Local().Format("Jan 2 2006")))
		if showTags && len(l.Tags) > 0 {
			line += "  " + ui.C(t.Accent, "#"+strings.Join(l.Tags, " #"))
		}
		if s := l.Summary(); s != "" && !l.Locked {
			line += "\n     " + ui.C(t.Muted, ui.Truncate(s, 60))
		}
		out = append(out, strings.Split(line, "\n")...)
	}
	return out
}

// groupLines lists logs under each of their tags. Untagged logs come last.
func groupLines(logs []*model.Log, idx map[string]int, showTags bool) []string {
	t := ui.Current()
	groups := map[string][]*model.Log{}
	names := map[string]string{}
	var untagged []*model.Log
	for _, l := range logs {
		if len(l.Tags) == 0 {
			untagged = append(untagged, l)
			continue
		}
		for _, tag := range l.Tags {
			k := model.TagKey(tag)
			if _, ok := names[k]; !ok {
				names[k] = tag
			}
			groups[k] = append(groups[k], l)
		}
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, ui.C(t.Accent, "#"+names[k]))
		lines = append(lines, flatLines(groups[k], idx, false)...)
		lines = append(lines, "")
	}
	lines = append(lines, ui.C(t.Accent, "Untagged"))
	if len(untagged) == 0 {
		lines = append(lines, ui.C(t.Muted, "(none)"))
	} else {
		lines = append(lines, flatLines(untagged, idx, showTags)...)
	}
	return lines
}

// bar draws a 0..10 score.
func bar(score float64, width int) string {
	if score < 0 {
		return strings.Repeat("·", width) + "   ?"
	}
	filled := int(score / 10 * float64(width))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf(" %4.1f", score)
}
