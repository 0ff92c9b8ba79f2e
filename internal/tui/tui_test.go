package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/store/jsonstore"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func boot(t *testing.T, opts Options, seed ...*model.Log) (Model, store.Store) {
	t.Helper()
	st, err := jsonstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	ctx := context.Background()
	for _, l := range seed {
		require.NoError(t, st.SaveLog(ctx, l))
	}
	m := New(ctx, st, opts)
	m = send(t, m, m.load())
	return m, st
}

func newLog(t *testing.T, name, body string) *model.Log {
	t.Helper()
	l, err := model.NewLog(name, "", body)
	require.NoError(t, err)
	return l
}

func TestAddRenameDeleteUndo(t *testing.T) {
	ctx := context.Background()
	m, st := boot(t, Options{})
	assert.Nil(t, m.selected())

	m = send(t, m, keyMsg("n"))
	require.Equal(t, modeAdd, m.mode)
	m = send(t, m, keyMsg("enter"))
	assert.Equal(t, "Name cannot be empty", m.errMsg)
	m = send(t, m, keyMsg("Tuesday"), keyMsg("enter"))
	require.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, m.errMsg)

	cur := m.selected()
	require.NotNil(t, cur)
	assert.Equal(t, "Tuesday", cur.Name)
	stored, err := st.GetLog(ctx, cur.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	m = send(t, m, keyMsg("e"), keyMsg(" night"), keyMsg("enter"))
	stored, err = st.GetLog(ctx, cur.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tuesday night", stored.Name)
	assert.Equal(t, 2, stored.Version)

	m = send(t, m, keyMsg("d"))
	assert.Nil(t, m.selected())
	_, err = st.GetLog(ctx, cur.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	m = send(t, m, keyMsg("u"))
	require.NotNil(t, m.selected())
	assert.Equal(t, "Tuesday night", m.selected().Name)
	_, err = st.GetLog(ctx, cur.ID)
	require.NoError(t, err)

	// the undo buffer holds one deletion only
	m = send(t, m, keyMsg("u"))
	assert.Len(t, m.logs, 1)
}

func TestUndoRestoresAnalysis(t *testing.T) {
	ctx := context.Background()
	l := newLog(t, "sad day", "")
	m, st := boot(t, Options{}, l)
	require.NoError(t, st.SaveAnalysis(ctx, model.Sentiment{LogID: l.ID, Version: 1, Emotions: map[string]float64{"sadness": 6}}))

	m = send(t, m, keyMsg("d"), keyMsg("u"))
	a, err := st.GetAnalysis(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.0, a.Score("sadness"))
	assert.NotNil(t, m.selected())
}

func TestTagPickerTogglesVocabularyTags(t *testing.T) {
	ctx := context.Background()
	l := newLog(t, "gym", "")
	m, st := boot(t, Options{ShowTags: true}, l)
	tags, err := model.NewTagSet(model.Tag{Name: "health"}, model.Tag{Name: "work"})
	require.NoError(t, err)
	require.NoError(t, st.SaveTags(ctx, tags))
	m = send(t, m, m.load())

	m = send(t, m, keyMsg("t"))
	require.Equal(t, modeTags, m.mode)
	m = send(t, m, keyMsg(" "), keyMsg("j"), keyMsg(" "))
	stored, err := st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "work"}, stored.Tags)
	assert.Contains(t, m.View(), "health")

	m = send(t, m, keyMsg("k"), keyMsg(" "), keyMsg("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	stored, err = st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, stored.Tags)
}

func TestTagPickerNeedsVocabulary(t *testing.T) {
	m, _ := boot(t, Options{}, newLog(t, "x", ""))
	m = send(t, m, keyMsg("t"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Contains(t, m.status, "no tags defined")
}

func TestBodyEditorAutosavesWithoutVersion(t *testing.T) {
	ctx := context.Background()
	l := newLog(t, "draft", "first line")
	m, st := boot(t, Options{Autosave: time.Minute}, l)

	m = send(t, m, keyMsg("enter"))
	require.Equal(t, modeBody, m.mode)
	m = send(t, m, keyMsg(" and more"))
	assert.True(t, m.bodyDirty)

	// a tick from an earlier session is ignored
	m = send(t, m, autosaveMsg{session: m.session - 1})
	stored, err := st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "first line", stored.Body)

	m = send(t, m, autosaveMsg{session: m.session})
	stored, err = st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "first line and more", stored.Body)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, "autosaved", m.status)

	m = send(t, m, keyMsg("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	stored, err = st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	rev, ok := stored.LatestRevision()
	require.True(t, ok)
	assert.Equal(t, "first line and more", rev.Body)
	assert.Equal(t, "first line and more", m.selected().Body)
}

func TestBodyEditorWithoutChangesKeepsVersion(t *testing.T) {
	ctx := context.Background()
	l := newLog(t, "same", "text")
	m, st := boot(t, Options{}, l)
	m = send(t, m, keyMsg("enter"), keyMsg("esc"))
	stored, err := st.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, modeBrowse, m.mode)
}

func TestLockedLogCannotBeOpened(t *testing.T) {
	l := newLog(t, "secret", "")
	l.Locked = true
	l.Body = ""
	m, _ := boot(t, Options{}, l)
	m = send(t, m, keyMsg("enter"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Contains(t, m.errMsg, "locked")
	assert.Contains(t, m.preview.View(), "password protected")
}

func TestExternalChangesReload(t *testing.T) {
	ch := make(chan struct{}, 1)
	m, st := boot(t, Options{Changes: ch}, newLog(t, "one", ""))
	require.NoError(t, st.SaveLog(context.Background(), newLog(t, "two", "")))

	_, cmd := m.Update(changedMsg{})
	require.NotNil(t, cmd)
	m = send(t, m, m.load())
	assert.Len(t, m.logs, 2)
	assert.Len(t, m.list.Items(), 2)

	ch <- struct{}{}
	msg := waitForChange(ch)()
	assert.IsType(t, changedMsg{}, msg)
	assert.Nil(t, waitForChange(nil))
}

func TestSortOrderFollowsOptions(t *testing.T) {
	a := newLog(t, "banana", "")
	b := newLog(t, "apple", "")
	m, _ := boot(t, Options{Sort: "name"}, a, b)
	require.Len(t, m.logs, 2)
	assert.Equal(t, "apple", m.logs[0].Name)
}

func quitting(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	return next.(Model)
}

func TestCtrlCSavesBodyAndQuits(t *testing.T) {
	l := newLog(t, "draft", "start")
	m, st := boot(t, Options{}, l)
	m = send(t, m, keyMsg("enter"), keyMsg(" typed"))
	m = quitting(t, m, keyMsg("ctrl+c"))
	assert.Equal(t, modeBrowse, m.mode)

	stored, err := st.GetLog(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, "start typed", stored.Body)
	assert.Equal(t, 2, stored.Version)
}

func TestCtrlCLeavesPrompts(t *testing.T) {
	m, st := boot(t, Options{}, newLog(t, "one", ""))
	m = send(t, m, keyMsg("n"), keyMsg("half typed"))
	require.Equal(t, modeAdd, m.mode)
	m = quitting(t, m, keyMsg("ctrl+c"))
	assert.Equal(t, modeBrowse, m.mode)

	logs, err := st.ListLogs(context.Background())
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeletingLockedLogNeedsSecondPress(t *testing.T) {
	ctx := context.Background()
	l := newLog(t, "secret", "")
	l.Locked = true
	m, st := boot(t, Options{}, l)

	m = send(t, m, keyMsg("d"))
	assert.Contains(t, m.status, "press d again")
	_, err := st.GetLog(ctx, l.ID)
	require.NoError(t, err)

	m = send(t, m, keyMsg("j"), keyMsg("d"))
	_, err = st.GetLog(ctx, l.ID)
	require.NoError(t, err, "another key in between cancels the confirmation")

	m = send(t, m, keyMsg("d"))
	_, err = st.GetLog(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotNil(t, m.undo)
}

func TestQuit(t *testing.T) {
	m, _ := boot(t, Options{})
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewShowsPreview(t *testing.T) {
	l := newLog(t, "Monday", "- [x] run\n- [ ] read")
	l.AddTags("health")
	m, _ := boot(t, Options{Splash: "hello there", ShowTags: true}, l)
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	v := m.View()
	assert.Contains(t, v, "hello there")
	assert.Contains(t, v, "Monday")
	assert.Contains(t, v, "50%")
}
