// Package tui is the interactive log browser: a filterable list of logs next
// to a rendered markdown preview, with inline add, rename, delete/undo, tag
// toggling and a body editor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/ui"
)

// Options tune the browser. Zero values are usable.
type Options struct {
	Logger *zap.Logger
	// Changes signals that logs were modified outside the browser.
	Changes <-chan struct{}
	// Sort is newest, oldest or name.
	Sort         string
	ShowTags     bool
	PreviewWidth int
	// Autosave is the interval for saving an open body edit without
	// creating a version. Zero disables it.
	Autosave time.Duration
	Splash   string
}

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeRename
	modeTags
	modeBody
)

// listItem adapts a log to bubbles/list.Item.
type listItem struct {
	log      *model.Log
	showTags bool
}

func (i listItem) FilterValue() string {
	return i.log.Name + " " + strings.Join(i.log.Tags, " ")
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	name := it.log.Name
	if it.log.Locked {
		name = ui.LockGlyph() + " " + lockedStyle.Render(name)
	}
	line := name
	if it.showTags && len(it.log.Tags) > 0 {
		line += " " + mutedStyle.Render("#"+strings.Join(it.log.Tags, " #"))
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

type loadedMsg struct {
	logs []*model.Log
	tags model.TagSet
	err  error
}

type changedMsg struct{}

type autosaveMsg struct{ session int }

// deleted is the single-level undo buffer.
type deleted struct {
	log      *model.Log
	analysis *model.Sentiment
}

type Model struct {
	ctx    context.Context
	store  store.Store
	opts   Options
	logger *zap.Logger

	logs []*model.Log
	tags model.TagSet

	list    list.Model
	preview viewport.Model
	ti      textinput.Model
	body    textarea.Model
	mode    mode

	width, height int
	status        string
	errMsg        string

	undo *deleted
	// id of a locked log waiting for a second d
	confirmDelete string

	// tag picker
	tagCursor int

	// body editor
	editing   *model.Log
	session   int
	bodyDirty bool
}

// New builds the browser model. Logs load on Init.
func New(ctx context.Context, st store.Store, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sort == "" {
		opts.Sort = "newest"
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 60
	}

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Journal"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("log", "logs")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "write")),
		key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tags")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	m := Model{
		ctx:     ctx,
		store:   st,
		opts:    opts,
		logger:  opts.Logger.Named("tui"),
		list:    l,
		preview: viewport.New(opts.PreviewWidth, 20),
		ti:      ti,
		body:    ta,
		width:   100,
		height:  30,
	}
	m.layout()
	return m
}

// Run starts the browser full screen and blocks until the user quits.
func Run(ctx context.Context, st store.Store, opts Options) error {
	p := tea.NewProgram(New(ctx, st, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if fm, ok := final.(Model); ok && fm.mode == modeBody {
		return fm.saveBody(true)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load, waitForChange(m.opts.Changes))
}

func (m Model) load() tea.Msg {
	logs, err := m.store.ListLogs(m.ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	tags, err := m.store.ListTags(m.ctx)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{logs: logs, tags: tags}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (m Model) selected() *model.Log {
	if it, ok := m.list.SelectedItem().(listItem); ok {
		return it.log
	}
	return nil
}

// setLogs replaces the list content, keeping selectID selected when present.
func (m *Model) setLogs(logs []*model.Log, selectID string) tea.Cmd {
	store.Sort(logs, m.opts.Sort)
	m.logs = logs
	items := make([]list.Item, 0, len(logs))
	sel := -1
	for i, l := range logs {
		items = append(items, listItem{log: l, showTags: m.opts.ShowTags})
		if l.ID == selectID {
			sel = i
		}
	}
	cmd := m.list.SetItems(items)
	if sel >= 0 {
		m.list.Select(sel)
	}
	m.refreshPreview()
	return cmd
}

func (m *Model) fail(err error) {
	m.errMsg = err.Error()
	m.logger.Warn("action failed", zap.Error(err))
}

func (m *Model) save(l *model.Log) bool {
	if err := m.store.SaveLog(m.ctx, l); err != nil {
		m.fail(err)
		return false
	}
	return true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshPreview()
		return m, nil
	case loadedMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.tags = msg.tags
		id := ""
		if cur := m.selected(); cur != nil {
			id = cur.ID
		}
		return m, m.setLogs(msg.logs, id)
	case changedMsg:
		return m, tea.Batch(m.load, waitForChange(m.opts.Changes))
	case autosaveMsg:
		if m.mode != modeBody || msg.session != m.session {
			return m, nil
		}
		if m.bodyDirty {
			if err := m.saveBody(false); err != nil {
				m.fail(err)
			} else {
				m.status = "autosaved"
			}
		}
		return m, m.autosaveTick()
	}

	switch m.mode {
	case modeAdd, modeRename:
		return m.updateInput(msg)
	case modeTags:
		return m.updateTags(msg)
	case modeBody:
		return m.updateBody(msg)
	}
	return m.updateBrowse(msg)
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, isKey := msg.(tea.KeyMsg)
	if !isKey || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		m.refreshPreview()
		return m, cmd
	}
	m.errMsg = ""
	m.status = ""
	pending := m.confirmDelete
	m.confirmDelete = ""

	switch km.String() {
	case "q", "esc":
		if m.list.FilterState() == list.FilterApplied {
			m.list.ResetFilter()
			return m, nil
		}
		return m, tea.Quit
	case "n":
		m.mode = modeAdd
		m.ti.SetValue("")
		m.ti.Placeholder = "New log name..."
		return m, m.ti.Focus()
	case "e":
		cur := m.selected()
		if cur == nil {
			return m, nil
		}
		m.mode = modeRename
		m.ti.SetValue(cur.Name)
		m.ti.CursorEnd()
		m.ti.Placeholder = "Log name..."
		return m, m.ti.Focus()
	case "d":
		cur := m.selected()
		if cur == nil {
			return m, nil
		}
		if cur.Locked && pending != cur.ID {
			m.confirmDelete = cur.ID
			m.status = fmt.Sprintf("%q is locked; press d again to delete it", cur.Name)
			return m, nil
		}
		d := &deleted{log: cur}
		if a, err := m.store.GetAnalysis(m.ctx, cur.ID); err == nil {
			d.analysis = &a
		}
		if err := m.store.DeleteLog(m.ctx, cur.ID); err != nil {
			m.fail(err)
			return m, nil
		}
		m.undo = d
		m.status = fmt.Sprintf("deleted %q (u to undo)", cur.Name)
		return m, m.setLogs(without(m.logs, cur.ID), "")
	case "u":
		if m.undo == nil {
			return m, nil
		}
		d := m.undo
		if !m.save(d.log) {
			return m, nil
		}
		if d.analysis != nil {
			if err := m.store.SaveAnalysis(m.ctx, *d.analysis); err != nil {
				m.fail(err)
			}
		}
		m.undo = nil
		m.status = fmt.Sprintf("restored %q", d.log.Name)
		return m, m.setLogs(append(m.logs, d.log), d.log.ID)
	case "t":
		if m.selected() == nil {
			return m, nil
		}
		if m.tags.Len() == 0 {
			m.status = "no tags defined yet; add some with `journal tags new`"
			return m, nil
		}
		m.mode = modeTags
		m.tagCursor = 0
		return m, nil
	case "enter":
		cur := m.selected()
		if cur == nil {
			return m, nil
		}
		if cur.Locked {
			m.errMsg = "log is locked; unlock it with `journal unlock`"
			return m, nil
		}
		m.mode = modeBody
		m.editing = cur
		m.bodyDirty = false
		m.session++
		m.body.SetValue(cur.Body)
		m.layout()
		return m, tea.Batch(m.body.Focus(), m.autosaveTick())
	case "pgdown", "pgup":
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.refreshPreview()
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			m.closeInput()
			return m, tea.Quit
		case "enter":
			name := strings.TrimSpace(m.ti.Value())
			if name == "" {
				m.errMsg = "Name cannot be empty"
				return m, nil
			}
			m.errMsg = ""
			var cmd tea.Cmd
			if m.mode == modeAdd {
				cmd = m.addLog(name)
			} else {
				cmd = m.renameSelected(name)
			}
			if m.errMsg != "" {
				return m, nil
			}
			m.closeInput()
			return m, cmd
		case "esc":
			m.closeInput()
			m.errMsg = ""
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m *Model) addLog(name string) tea.Cmd {
	l, err := model.NewLog(name, "", "")
	if err != nil {
		m.fail(err)
		return nil
	}
	if !m.save(l) {
		return nil
	}
	m.status = fmt.Sprintf("created %q", l.Name)
	return m.setLogs(append(m.logs, l), l.ID)
}

func (m *Model) renameSelected(name string) tea.Cmd {
	cur := m.selected()
	if cur == nil {
		return nil
	}
	next := cur.Clone()
	changed, err := next.Update(model.Changes{Name: &name})
	if err != nil {
		m.fail(err)
		return nil
	}
	if !changed || !m.save(next) {
		return nil
	}
	m.status = fmt.Sprintf("renamed to %q (v%d)", next.Name, next.Version)
	return m.setLogs(replace(m.logs, next), next.ID)
}

func (m Model) updateTags(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	all := m.tags.All()
	switch km.String() {
	case "up", "k":
		if m.tagCursor > 0 {
			m.tagCursor--
		}
	case "down", "j":
		if m.tagCursor < len(all)-1 {
			m.tagCursor++
		}
	case " ", "enter", "x":
		cur := m.selected()
		if cur == nil || m.tagCursor >= len(all) {
			return m, nil
		}
		next := cur.Clone()
		name := all[m.tagCursor].Name
		if next.HasTag(name) {
			next.RemoveTag(name)
		} else {
			next.AddTags(name)
		}
		if m.save(next) {
			return m, m.setLogs(replace(m.logs, next), next.ID)
		}
	case "esc", "q", "t":
		m.mode = modeBrowse
	case "ctrl+c":
		m.mode = modeBrowse
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateBody(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+s":
			if err := m.saveBody(false); err != nil {
				m.fail(err)
			} else {
				m.status = "saved"
			}
			return m, nil
		case "esc":
			if err := m.saveBody(true); err != nil {
				m.fail(err)
				return m, nil
			}
			return m, m.closeBody()
		case "ctrl+c":
			if err := m.saveBody(true); err != nil {
				// Run retries the save on exit while still in body mode.
				m.fail(err)
				return m, tea.Quit
			}
			m.closeBody()
			return m, tea.Quit
		}
	}
	before := m.body.Value()
	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	if m.body.Value() != before {
		m.bodyDirty = true
	}
	return m, cmd
}

func (m *Model) closeBody() tea.Cmd {
	id := m.editing.ID
	m.mode = modeBrowse
	m.editing = nil
	m.body.Blur()
	m.layout()
	return m.setLogs(m.logs, id)
}

// saveBody writes the editor content. Intermediate saves do not create a
// version; the final one commits everything typed since opening.
func (m *Model) saveBody(final bool) error {
	if m.editing == nil {
		return nil
	}
	next := m.editing.Clone()
	body := m.body.Value()
	if _, err := next.Update(model.Changes{Body: &body, NoBump: true}); err != nil {
		return err
	}
	committed := false
	if final {
		committed = next.Commit()
	}
	if !m.bodyDirty && !committed {
		return nil
	}
	if err := m.store.SaveLog(m.ctx, next); err != nil {
		return err
	}
	m.editing = next
	m.bodyDirty = false
	m.logs = replace(m.logs, next)
	return nil
}

func (m Model) autosaveTick() tea.Cmd {
	if m.opts.Autosave <= 0 {
		return nil
	}
	session := m.session
	return tea.Tick(m.opts.Autosave, func(time.Time) tea.Msg { return autosaveMsg{session: session} })
}

func without(logs []*model.Log, id string) []*model.Log {
	out := make([]*model.Log, 0, len(logs))
	for _, l := range logs {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func replace(logs []*model.Log, next *model.Log) []*model.Log {
	out := make([]*model.Log, 0, len(logs))
	for _, l := range logs {
		if l.ID == next.ID {
			l = next
		}
		out = append(out, l)
	}
	return out
}
