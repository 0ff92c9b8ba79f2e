package model

import (
	"strings"
	"testing"
	"unicode/utf8"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) *time.Time {
	t.Helper()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = orig })
	return &ts
}

func ptr(s string) *string { return &s }

func TestNewLogStartsAtVersionOne(t *testing.T) {
	fixedClock(t)
	l, err := NewLog("  Monday ", "desc", "body")
	require.NoError(t, err)
	assert.Equal(t, "Monday", l.Name)
	assert.Equal(t, 1, l.Version)
	assert.NotEmpty(t, l.ID)
	require.Len(t, l.Revisions, 1)
	assert.Equal(t, Revision{Version: 1, Timestamp: l.CreatedAt, Name: "Monday", Description: "desc", Body: "body"}, l.Revisions[0])
}

func TestNewLogRejectsBlankName(t *testing.T) {
	_, err := NewLog("   ", "", "")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestUpdateBumpsVersionOnlyOnContentChange(t *testing.T) {
	fixedClock(t)
	l, err := NewLog("a", "d", "b")
	require.NoError(t, err)

	changed, err := l.Update(Changes{Name: ptr("a"), Body: ptr("b")})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, l.Version)

	changed, err = l.Update(Changes{Thumbnail: ptr("pic.png")})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, l.Version)
	assert.Equal(t, "pic.png", l.Thumbnail)

	changed, err = l.Update(Changes{Body: ptr("new body")})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, l.Version)
	require.Len(t, l.Revisions, 2)
	assert.Equal(t, "new body", l.Revisions[1].Body)
}

func TestUpdateWithoutBumpKeepsHistory(t *testing.T) {
	l, err := NewLog("a", "", "")
	require.NoError(t, err)
	changed, err := l.Update(Changes{Description: ptr("quiet"), NoBump: true})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, l.Version)
	assert.Len(t, l.Revisions, 1)
}

func TestCommitRecordsUnversionedEdits(t *testing.T) {
	fixedClock(t)
	l, err := NewLog("a", "", "draft")
	require.NoError(t, err)
	assert.False(t, l.Commit(), "nothing new since version 1")

	_, err = l.Update(Changes{Body: ptr("draft, autosaved"), NoBump: true})
	require.NoError(t, err)
	_, err = l.Update(Changes{Body: ptr("draft, autosaved twice"), NoBump: true})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Version)

	assert.True(t, l.Commit())
	assert.Equal(t, 2, l.Version)
	rev, ok := l.LatestRevision()
	require.True(t, ok)
	assert.Equal(t, "draft, autosaved twice", rev.Body)
	assert.False(t, l.Commit())
}

func TestRevertAppendsRevisionWithTargetVersion(t *testing.T) {
	fixedClock(t)
	l, err := NewLog("v1", "", "one")
	require.NoError(t, err)
	_, err = l.Update(Changes{Name: ptr("v2"), Body: ptr("two")})
	require.NoError(t, err)
	_, err = l.Update(Changes{Body: ptr("three")})
	require.NoError(t, err)

	require.NoError(t, l.RevertTo(1))
	assert.Equal(t, "v1", l.Name)
	assert.Equal(t, "one", l.Body)
	assert.Equal(t, 1, l.Version)
	require.Len(t, l.Revisions, 4)

	versions := make([]int, 0, len(l.Revisions))
	for _, r := range l.Revisions {
		versions = append(versions, r.Version)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 1}, versions); diff != "" {
		t.Fatalf("revision versions mismatch (-want +got):\n%s", diff)
	}

	assert.ErrorIs(t, l.RevertTo(9), ErrVersionNotFound)
}

func TestLockedLogRefusesEdits(t *testing.T) {
	l, err := NewLog("secret", "", "")
	require.NoError(t, err)
	l.Locked = true
	_, err = l.Update(Changes{Body: ptr("x")})
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, l.RevertTo(1), ErrLocked)
	assert.Equal(t, "locked", l.Summary())
}

func TestTagsAreCaseInsensitiveAndSorted(t *testing.T) {
	l, err := NewLog("a", "", "")
	require.NoError(t, err)
	l.AddTags("Work", "health", "work", " ", "Family")
	assert.Equal(t, []string{"Family", "health", "Work"}, l.Tags)
	assert.True(t, l.HasTag("WORK"))

	assert.True(t, l.RemoveTag("HEALTH"))
	assert.False(t, l.RemoveTag("health"))
	assert.True(t, l.RenameTag("work", "Job"))
	assert.Equal(t, []string{"Family", "Job"}, l.Tags)
}

func TestSummaryFallsBackToBody(t *testing.T) {
	l, err := NewLog("a", "", "# Heading\nrest")
	require.NoError(t, err)
	assert.Equal(t, "Heading", l.Summary())
}

func TestSummaryCutsOnCellBoundaries(t *testing.T) {
	l, err := NewLog("x", strings.Repeat("é", 60), "")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 60), l.Summary())

	l.Description = strings.Repeat("é", 100)
	s := l.Summary()
	assert.True(t, utf8.ValidString(s))
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.Equal(t, 80, utf8.RuneCountInString(s))

	l.Description = strings.Repeat("日", 50)
	s = l.Summary()
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, 40, utf8.RuneCountInString(s), "wide runes take two cells")
}

func TestCloneIsDeep(t *testing.T) {
	l, err := NewLog("a", "", "")
	require.NoError(t, err)
	l.AddTags("x")
	c := l.Clone()
	c.AddTags("y")
	c.Revisions[0].Body = "changed"
	assert.Equal(t, []string{"x"}, l.Tags)
	assert.Equal(t, "", l.Revisions[0].Body)
}
