package sqlitestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/journal/internal/model"
	"github.com/idilsaglam/journal/internal/store"
	"github.com/idilsaglam/journal/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(t.TempDir(), nil)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	home := t.TempDir()
	ctx := context.Background()

	s, err := Open(home, nil)
	require.NoError(t, err)
	l, err := model.NewLog("persisted", "", "body")
	require.NoError(t, err)
	require.NoError(t, s.SaveLog(ctx, l))
	require.NoError(t, s.Close())

	s, err = Open(home, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetLog(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "body", got.Body)
	assert.Len(t, got.Revisions, 1)
}
