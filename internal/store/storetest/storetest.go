// Package storetest holds the behavior every store.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
)

// Run exercises a fresh store returned by open for each subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveGetRoundTrip", func(t *testing.T) { testRoundTrip(t, open(t)) })
	t.Run("ListNewestFirst", func(t *testing.T) { testListOrder(t, open(t)) })
	t.Run("DeleteRemovesAnalysis", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("TagsVocabulary", func(t *testing.T) { testTags(t, open(t)) })
	t.Run("TagChangesPropagate", func(t *testing.T) { testTagPropagation(t, open(t)) })
	t.Run("Analysis", func(t *testing.T) { testAnalysis(t, open(t)) })
	t.Run("LockedLogKeepsSealedPayload", func(t *testing.T) { testLocked(t, open(t)) })
}

func newLog(t *testing.T, name string, created time.Time) *model.Log {
	t.Helper()
	l, err := model.NewLog(name, "a description", "# Body\n\n- [ ] item")
	require.NoError(t, err)
	l.CreatedAt = created
	l.UpdatedAt = created
	l.Revisions[0].Timestamp = created
	return l
}

func testRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := newLog(t, "first", time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	l.AddTags("work", "health")
	body := "second body"
	_, err := l.Update(model.Changes{Body: &body})
	require.NoError(t, err)
	l.UpdatedAt = l.UpdatedAt.Truncate(time.Second)
	l.Revisions[1].Timestamp = l.Revisions[1].Timestamp.Truncate(time.Second)

	require.NoError(t, s.SaveLog(ctx, l))
	got, err := s.GetLog(ctx, l.ID)
	require.NoError(t, err)

	assert.Equal(t, l.Name, got.Name)
	assert.Equal(t, l.Description, got.Description)
	assert.Equal(t, l.Body, got.Body)
	assert.Equal(t, l.Version, got.Version)
	assert.Equal(t, []string{"health", "work"}, got.Tags)
	assert.True(t, l.CreatedAt.Equal(got.CreatedAt))
	require.Len(t, got.Revisions, 2)
	assert.Equal(t, 2, got.Revisions[1].Version)
	assert.Equal(t, "second body", got.Revisions[1].Body)

	_, err = s.GetLog(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	older := newLog(t, "older", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newLog(t, "newer", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveLog(ctx, older))
	require.NoError(t, s.SaveLog(ctx, newer))

	logs, err := s.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "newer", logs[0].Name)
	assert.Equal(t, "older", logs[1].Name)

	newer.AddTags("x")
	require.NoError(t, s.SaveLog(ctx, newer))
	logs, err = s.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, []string{"x"}, logs[0].Tags)
}

func testDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := newLog(t, "gone", time.Now().UTC())
	require.NoError(t, s.SaveLog(ctx, l))
	require.NoError(t, s.SaveAnalysis(ctx, model.Sentiment{LogID: l.ID, Version: 1, Emotions: map[string]float64{"joy": 3}}))

	require.NoError(t, s.DeleteLog(ctx, l.ID))
	_, err := s.GetLog(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetAnalysis(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteLog(ctx, l.ID), store.ErrNotFound)
}

func testTags(t *testing.T, s store.Store) {
	ctx := context.Background()
	empty, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	set, err := model.NewTagSet(model.Tag{Name: "work", Description: "job stuff"}, model.Tag{Name: "family"})
	require.NoError(t, err)
	require.NoError(t, s.SaveTags(ctx, set))

	got, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, set.All(), got.All())

	require.NoError(t, set.Remove("work"))
	require.NoError(t, s.SaveTags(ctx, set))
	got, err = s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{{Name: "family"}}, got.All())
}

func testTagPropagation(t *testing.T, s store.Store) {
	ctx := context.Background()
	set, err := model.NewTagSet(model.Tag{Name: "work"}, model.Tag{Name: "sleep"})
	require.NoError(t, err)
	require.NoError(t, s.SaveTags(ctx, set))

	a := newLog(t, "a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	a.AddTags("work", "sleep")
	b := newLog(t, "b", time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	b.AddTags("sleep")
	require.NoError(t, s.SaveLog(ctx, a))
	require.NoError(t, s.SaveLog(ctx, b))

	require.NoError(t, store.UpdateTag(ctx, s, "sleep", model.Tag{Name: "rest", Description: "naps"}))
	require.NoError(t, store.DeleteTag(ctx, s, "work"))

	gotA, err := s.GetLog(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rest"}, gotA.Tags)
	gotB, err := s.GetLog(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rest"}, gotB.Tags)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{{Name: "rest", Description: "naps"}}, tags.All())

	assert.ErrorIs(t, store.DeleteTag(ctx, s, "work"), model.ErrTagNotFound)
}

func testAnalysis(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := newLog(t, "mood", time.Now().UTC())
	require.NoError(t, s.SaveLog(ctx, l))

	_, err := s.GetAnalysis(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	a := model.Sentiment{
		LogID:            l.ID,
		Version:          1,
		AnalyzedAt:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		Emotions:         map[string]float64{"joy": 7.5, "grief": -1},
		RiskSeveritySelf: 1,
	}
	require.NoError(t, s.SaveAnalysis(ctx, a))
	got, err := s.GetAnalysis(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Emotions, got.Emotions)
	assert.Equal(t, a.Version, got.Version)
	assert.True(t, a.AnalyzedAt.Equal(got.AnalyzedAt))
	assert.Equal(t, 1.0, got.RiskSeveritySelf)

	a.Emotions["joy"] = 2
	require.NoError(t, s.SaveAnalysis(ctx, a))
	got, err = s.GetAnalysis(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Emotions["joy"])
}

func testLocked(t *testing.T, s store.Store) {
	ctx := context.Background()
	l := newLog(t, "secret", time.Now().UTC())
	l.Locked = true
	l.Sealed = "c2VhbGVk"
	l.Body, l.Description = "", ""
	l.Revisions = nil
	require.NoError(t, s.SaveLog(ctx, l))

	got, err := s.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Locked)
	assert.Equal(t, "c2VhbGVk", got.Sealed)
	assert.Empty(t, got.Revisions)
}
