package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/journal/internal/model"
)

func TestSealAndOpen(t *testing.T) {
	l, err := model.NewLog("private", "desc", "body text")
	require.NoError(t, err)
	l.AddTags("health")
	want := l.Clone()

	require.NoError(t, Seal(l, "pw"))
	assert.True(t, l.Locked)
	assert.NotEmpty(t, l.Sealed)
	assert.Empty(t, l.Body)
	assert.Empty(t, l.Revisions)
	assert.Equal(t, "private", l.Name)
	assert.Equal(t, []string{"health"}, l.Tags)
	assert.ErrorIs(t, Seal(l, "pw"), model.ErrLocked)

	assert.ErrorIs(t, Open(l, "nope"), ErrWrongPassword)
	assert.True(t, l.Locked)

	peek, err := Peek(l, "pw")
	require.NoError(t, err)
	assert.Equal(t, "body text", peek.Body)
	assert.True(t, l.Locked)

	require.NoError(t, Open(l, "pw"))
	assert.False(t, l.Locked)
	assert.Empty(t, l.Sealed)
	assert.Equal(t, want.Body, l.Body)
	assert.Equal(t, want.Description, l.Description)
	assert.Equal(t, len(want.Revisions), len(l.Revisions))
	assert.ErrorIs(t, Open(l, "pw"), ErrNotLocked)
}
