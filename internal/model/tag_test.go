package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTagTrimsAndValidates(t *testing.T) {
	tag, err := NewTag("  mood ", "  how I feel ")
	require.NoError(t, err)
	assert.Equal(t, Tag{Name: "mood", Description: "how I feel"}, tag)

	_, err = NewTag("  ", "x")
	assert.ErrorIs(t, err, ErrEmptyTagName)
}

func TestTagSetOperations(t *testing.T) {
	set, err := NewTagSet(Tag{Name: "Work"}, Tag{Name: "health", Description: "body"})
	require.NoError(t, err)

	assert.ErrorIs(t, set.Add(Tag{Name: "WORK"}), ErrTagExists)

	got, ok := set.Get("HEALTH")
	require.True(t, ok)
	assert.Equal(t, "body", got.Description)

	require.NoError(t, set.Update("work", Tag{Name: "Job", Description: "paid"}))
	assert.ErrorIs(t, set.Update("job", Tag{Name: "health"}), ErrTagExists)
	assert.ErrorIs(t, set.Update("missing", Tag{Name: "x"}), ErrTagNotFound)
	require.NoError(t, set.Update("job", Tag{Name: "JOB", Description: "paid"}))

	require.NoError(t, set.Remove("health"))
	assert.ErrorIs(t, set.Remove("health"), ErrTagNotFound)
	assert.Equal(t, []Tag{{Name: "JOB", Description: "paid"}}, set.All())
}
