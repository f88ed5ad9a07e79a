package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/syncroom/syncroom/internal/session"
)

func TestMemoryStore_UpsertListRemoveClear(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, "room-1", session.Participant{ID: "a", DisplayName: "A"}))
	require.NoError(t, s.Upsert(ctx, "room-1", session.Participant{ID: "b"}))
	require.NoError(t, s.Upsert(ctx, "room-2", session.Participant{ID: "c"}))

	list, err := s.List(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// upsert overwrites by id
	require.NoError(t, s.Upsert(ctx, "room-1", session.Participant{ID: "a", DisplayName: "A2"}))
	list, err = s.List(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// remove is idempotent
	require.NoError(t, s.Remove(ctx, "room-1", "a"))
	require.NoError(t, s.Remove(ctx, "room-1", "a"))
	require.NoError(t, s.Remove(ctx, "room-1", "nobody"))

	list, err = s.List(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.Clear(ctx, "room-2"))
	list, err = s.List(ctx, "room-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore_ListUnknownSessionIsEmpty(t *testing.T) {
	s := NewMemoryStore(zap.NewNop())
	list, err := s.List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, list)
}
