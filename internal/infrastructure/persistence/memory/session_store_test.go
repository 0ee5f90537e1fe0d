package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conference-rag/internal/domain/entity"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(time.Hour)
	ctx := context.Background()

	got, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)

	sess := entity.NewSession("sid")
	sess.Readiness = &entity.Readiness{Vector: true}
	require.NoError(t, store.Save(ctx, sess, time.Hour))
	assert.Equal(t, 1, store.Len())

	got, err = store.Get(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Readiness.Vector)

	// 返回的是副本
	got.Readiness.Vector = false
	again, _ := store.Get(ctx, "sid")
	assert.True(t, again.Readiness.Vector)

	require.NoError(t, store.Delete(ctx, "sid"))
	got, err = store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, entity.NewSession("short"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	got, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)
}
