package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/idilsaglam/journal/internal/assist"
	"github.com/idilsaglam/journal/internal/config"
	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/store/jsonstore"
	"github.com/idilsaglam/journal/internal/tui"
	"github.com/idilsaglam/journal/internal/ui"
)

type result struct {
	code int
	out  string
	err  string
}

type fakeLLM struct{ calls []assist.Request }

func (f *fakeLLM) Complete(_ context.Context, req assist.Request) (string, error) {
	f.calls = append(f.calls, req)
	switch {
	case strings.Contains(req.System, "sentiment"):
		return `{"joy": 8, "calm": 6.5, "sadness": 2, "riskToSelf": false, "riskSeveritySelf": 0, "riskToOthers": false, "riskSeverityOthers": 0}`, nil
	case strings.Contains(req.System, "allowedTags"):
		return `{"selected": ["Work", "made-up"]}`, nil
	}
	return "# Summary\n\nA productive week.", nil
}

type harness struct {
	t        *testing.T
	home     string
	llm      *fakeLLM
	now      time.Time
	editTo   string
	tuiCalls []tui.Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("JOURNAL_OPENAI_API_KEY", "")
	t.Setenv("JOURNAL_GEMINI_API_KEY", "")
	t.Cleanup(func() {
		ui.SetColorForcing(false, false)
		_ = ui.SetTheme("classic")
	})
	return &harness{t: t, home: t.TempDir(), llm: &fakeLLM{}, now: time.Now()}
}

func (h *harness) run(stdin string, args ...string) result {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	a.now = func() time.Time { return h.now }
	a.newCompleter = func(context.Context, config.AI, *zap.Logger) (assist.Completer, error) { return h.llm, nil }
	a.runTUI = func(_ context.Context, _ store.Store, opts tui.Options) error {
		h.tuiCalls = append(h.tuiCalls, opts)
		return nil
	}
	a.editFile = func(_, path string) error { return os.WriteFile(path, []byte(h.editTo), 0o600) }
	code := a.run(context.Background(), append([]string{"--home", h.home, "--no-color"}, args...))
	return result{code: code, out: out.String(), err: errOut.String()}
}

func (h *harness) ok(args ...string) string {
	h.t.Helper()
	r := h.run("", args...)
	require.Equal(h.t, ExitOK, r.code, "journal %v: %s", args, r.err)
	return r.out
}

func (h *harness) logs() []*model.Log {
	h.t.Helper()
	st, err := jsonstore.Open(h.home, nil)
	require.NoError(h.t, err)
	logs, err := st.ListLogs(context.Background())
	require.NoError(h.t, err)
	return logs
}

func TestWriteReadEditRevertRemove(t *testing.T) {
	h := newHarness(t)

	out := h.ok("new", "Monday", "notes", "-d", "back to work", "-b", "- [x] run\n- [ ] read")
	assert.Contains(t, out, `✔ created "Monday notes"`)

	out = h.ok("ls")
	assert.Contains(t, out, " 1. Monday notes")
	assert.Contains(t, out, "back to work")
	assert.Contains(t, out, "50%")

	out = h.ok("show", "1")
	assert.Contains(t, out, "Monday notes")
	assert.Contains(t, out, "1/2 tasks")
	assert.Contains(t, out, "v1")

	out = h.ok("edit", "monday notes", "-b", "new body")
	assert.Contains(t, out, "(v2)")
	out = h.ok("edit", "1", "-b", "new body")
	assert.Contains(t, out, "no changes")

	h.editTo = "from the editor"
	h.ok("edit", "1")
	assert.Equal(t, "from the editor", h.logs()[0].Body)

	out = h.ok("history", "1")
	assert.Contains(t, out, "current v3")
	assert.Contains(t, out, "v1")

	out = h.ok("show", "1", "--raw", "--version", "1")
	assert.Equal(t, "- [x] run\n- [ ] read\n", out)

	h.ok("revert", "1", "1")
	l := h.logs()[0]
	assert.Equal(t, 1, l.Version)
	assert.Equal(t, "- [x] run\n- [ ] read", l.Body)
	assert.Len(t, l.Revisions, 4)

	out = h.ok("rm", l.ID)
	assert.Contains(t, out, "removed")
	assert.Empty(t, h.logs())
	assert.Contains(t, h.ok("ls"), "no logs")
}

func TestNoBumpAndThumbnail(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "x")
	h.ok("edit", "1", "-d", "quiet", "--no-bump")
	h.ok("edit", "1", "--thumbnail", "cover.png")
	l := h.logs()[0]
	assert.Equal(t, 1, l.Version)
	assert.Equal(t, "quiet", l.Description)
	assert.Equal(t, "cover.png", l.Thumbnail)
}

func TestBodyFromStdin(t *testing.T) {
	h := newHarness(t)
	r := h.run("piped body\n", "new", "piped", "--body-file", "-")
	require.Equal(t, ExitOK, r.code, r.err)
	assert.Equal(t, "piped body\n", h.logs()[0].Body)
}

func TestUsageErrorsExitTwo(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "same")
	h.ok("new", "same")

	cases := [][]string{
		{"show"},
		{"show", "9"},
		{"show", "same"},
		{"frobnicate"},
		{"ls", "--bogus"},
		{"revert", "1", "x"},
		{"revert", "1", "7"},
		{"new", "x", "-b", "1", "--body-file", "f"},
		{"edit", "1", "-b", "1", "--body-file", "f"},
		{"tags", "frobnicate"},
		{"analyze"},
		{"summarize"},
	}
	for _, args := range cases {
		r := h.run("", args...)
		assert.Equal(t, ExitUsage, r.code, "journal %v", args)
		assert.Contains(t, r.err, "✖", "journal %v", args)
	}

	r := h.run("", "show", "9")
	assert.Contains(t, r.err, "index out of range: have 2, got 9")
	assert.Contains(t, r.err, "Hint: run `journal ls` to see valid indexes")

	r = h.run("", "new", "x", "-b", "1", "--body-file", "f")
	assert.Contains(t, r.err, "--body and --body-file cannot be combined")
	assert.Len(t, h.logs(), 2)
}

func TestExitCodeFollowsErrorType(t *testing.T) {
	assert.Equal(t, ExitUsage, exitCode(usagef("bad call")))
	assert.Equal(t, ExitUsage, exitCode(fmt.Errorf("wrapped: %w", &usageError{msg: "x"})))
	assert.Equal(t, ExitError, exitCode(errors.New("unknown command in a log body")))
}

func TestTagVocabularyFlow(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "standup")
	h.ok("tags", "new", "Work", "-d", "job things")

	r := h.run("", "tags", "new", "work")
	assert.Equal(t, ExitUsage, r.code)

	r = h.run("", "tag", "add", "1", "nope")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.err, "journal tags new nope")

	h.ok("tag", "add", "1", "WORK")
	assert.Equal(t, []string{"Work"}, h.logs()[0].Tags)

	out := h.ok("tags", "ls")
	assert.Contains(t, out, "#Work (1)")
	assert.Contains(t, out, "job things")

	out = h.ok("ls", "--group")
	assert.Contains(t, out, "#Work")
	assert.Contains(t, out, "Untagged")

	h.ok("tags", "edit", "work", "--name", "job")
	assert.Equal(t, []string{"job"}, h.logs()[0].Tags)
	assert.Contains(t, h.ok("ls", "--tag", "JOB"), "standup")
	assert.Contains(t, h.ok("ls", "--tag", "other"), "no logs")

	h.ok("tags", "rm", "job")
	assert.Empty(t, h.logs()[0].Tags)
	assert.Equal(t, ExitUsage, h.run("", "tags", "rm", "job").code)
}

func TestLockUnlock(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "secret", "-b", "hidden body")

	r := h.run("hunter2\n", "lock", "1", "--password-stdin")
	require.Equal(t, ExitOK, r.code, r.err)
	l := h.logs()[0]
	assert.True(t, l.Locked)
	assert.Empty(t, l.Body)
	raw, err := os.ReadFile(filepath.Join(h.home, "logs", l.ID+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden body")

	assert.Contains(t, h.ok("ls"), "secret")
	assert.Equal(t, ExitError, h.run("", "edit", "1", "-b", "x").code)
	assert.Equal(t, ExitUsage, h.run("pw\n", "lock", "1", "--password-stdin").code)

	r = h.run("wrong\n", "show", "1", "--raw", "--password-stdin")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.err, "incorrect password")

	r = h.run("hunter2\n", "show", "1", "--raw", "--password-stdin")
	require.Equal(t, ExitOK, r.code, r.err)
	assert.Equal(t, "hidden body\n", r.out)
	assert.True(t, h.logs()[0].Locked, "show must not unlock")

	r = h.run("hunter2\n", "unlock", "1", "--password-stdin")
	require.Equal(t, ExitOK, r.code, r.err)
	l = h.logs()[0]
	assert.False(t, l.Locked)
	assert.Equal(t, "hidden body", l.Body)
	assert.Len(t, l.Revisions, 1)
}

func TestAIFeatures(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "busy day", "-b", "meetings all day")
	h.ok("tags", "new", "work", "-d", "job")

	r := h.run("", "summarize", "1")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.err, "ai_settings.enabled true")

	h.ok("settings", "set", "ai_settings.enabled", "true")

	out := h.ok("summarize", "1", "-p", "how was it?")
	assert.Contains(t, out, "A productive week.")
	require.Len(t, h.llm.calls, 1)
	assert.Contains(t, h.llm.calls[0].User, "Instruction: how was it?")

	out = h.ok("suggest-tags", "1")
	assert.Contains(t, out, "#work")
	assert.Empty(t, h.logs()[0].Tags)
	h.ok("suggest-tags", "1", "--apply")
	assert.Equal(t, []string{"work"}, h.logs()[0].Tags)
	assert.Contains(t, h.ok("suggest-tags", "1"), "no new tags")

	assert.Equal(t, ExitUsage, h.run("", "mood", "1").code)
	out = h.ok("analyze", "1")
	assert.Contains(t, out, "Mood of busy day")
	assert.Contains(t, out, "joy")

	out = h.ok("mood", "1", "-n", "1")
	assert.Contains(t, out, "joy")
	assert.NotContains(t, out, "calm")

	assert.Contains(t, h.ok("analyze", "--all"), "up to date")
	h.ok("new", "another", "-b", "quiet")
	assert.Contains(t, h.ok("analyze", "--all"), "analyzed 1 log(s)")

	h.ok("settings", "set", "ai_settings.sentiment_analysis", "false")
	r = h.run("", "analyze", "1")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.err, "ai_settings.sentiment_analysis true")
}

func TestAIRefusesLockedLogs(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "private", "-b", "x")
	h.ok("settings", "set", "ai_settings.enabled", "true")
	require.Equal(t, ExitOK, h.run("pw\n", "lock", "1", "--password-stdin").code)

	r := h.run("", "summarize", "1")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.err, "locked")
	assert.Empty(t, h.llm.calls)
}

func TestSummarizeSelectionsSkipLockedLogs(t *testing.T) {
	h := newHarness(t)
	h.ok("tags", "new", "work")
	h.ok("new", "open", "-b", "readable notes", "-t", "work")
	h.ok("new", "private", "-b", "sealed notes", "-t", "work")
	h.ok("settings", "set", "ai_settings.enabled", "true")
	require.Equal(t, ExitOK, h.run("pw\n", "lock", "private", "--password-stdin").code)

	out := h.ok("summarize", "--all")
	assert.Contains(t, out, "A productive week.")
	require.Len(t, h.llm.calls, 1)
	assert.Contains(t, h.llm.calls[0].User, "readable notes")
	assert.NotContains(t, h.llm.calls[0].User, "private")

	h.ok("summarize", "--tag", "work")
	require.Len(t, h.llm.calls, 2)
	assert.Contains(t, h.llm.calls[1].User, "Log name: open")
	assert.NotContains(t, h.llm.calls[1].User, "private")

	r := h.run("", "summarize", "--tag", "work", "private")
	assert.Equal(t, ExitError, r.code)
	assert.Contains(t, r.err, "locked")
	assert.Len(t, h.llm.calls, 2)

	require.Equal(t, ExitOK, h.run("pw\n", "lock", "open", "--password-stdin").code)
	r = h.run("", "summarize", "--all")
	assert.Equal(t, ExitUsage, r.code)
	assert.Contains(t, r.err, "no logs")
	assert.Len(t, h.llm.calls, 2)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	out := h.ok("settings")
	assert.Contains(t, out, "preferences.theme")
	assert.Contains(t, out, "classic")

	h.ok("settings", "set", "preferences.theme", "mono")
	assert.Equal(t, "mono\n", h.ok("settings", "get", "preferences.theme"))
	assert.Contains(t, h.ok("ls"), "+---")

	assert.Equal(t, ExitUsage, h.run("", "settings", "set", "preferences.theme", "sparkly").code)
	assert.Equal(t, ExitUsage, h.run("", "settings", "set", "log_viewer.preview_width", "wide").code)
	assert.Equal(t, ExitUsage, h.run("", "settings", "get", "nope.nope").code)

	h.ok("settings", "set", "ai_settings.api_key", "sk-secret")
	out = h.ok("settings", "show")
	assert.NotContains(t, out, "sk-secret")
}

func TestRemind(t *testing.T) {
	h := newHarness(t)
	h.now = time.Date(2026, 5, 4, 21, 0, 0, 0, time.Local)
	assert.Contains(t, h.ok("remind"), "not written any logs")

	h.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.Local)
	assert.Empty(t, h.ok("remind"))

	h.now = time.Now().Add(24 * time.Hour)
	h.now = time.Date(h.now.Year(), h.now.Month(), h.now.Day(), 23, 0, 0, 0, time.Local)
	h.ok("new", "today")
	assert.Contains(t, h.ok("remind"), "Keep yesterday's entry company")

	assert.Contains(t, h.ok("remind", "--toggle"), "notifications off")
	assert.Empty(t, h.ok("remind"))
}

func TestBrowseIsDefault(t *testing.T) {
	h := newHarness(t)
	h.ok()
	h.ok("browse")
	require.Len(t, h.tuiCalls, 2)
	opts := h.tuiCalls[0]
	assert.Equal(t, "newest", opts.Sort)
	assert.Equal(t, 10*time.Minute, opts.Autosave)
	assert.NotNil(t, opts.Changes)
	assert.NotEmpty(t, opts.Splash)
}

func TestSQLiteDriver(t *testing.T) {
	h := newHarness(t)
	h.ok("settings", "set", "storage.driver", "sqlite")
	h.ok("new", "stored in sqlite", "-b", "rows")
	assert.Contains(t, h.ok("ls"), "stored in sqlite")
	assert.FileExists(t, filepath.Join(h.home, "journal.db"))
	assert.Empty(t, h.logs(), "json store untouched")

	h.ok("browse")
	require.Len(t, h.tuiCalls, 1)
	assert.Nil(t, h.tuiCalls[0].Changes)
}

func TestApplicationLogWritten(t *testing.T) {
	h := newHarness(t)
	h.ok("new", "x")
	b, err := os.ReadFile(filepath.Join(h.home, "applog", "journal.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "log created")
}
