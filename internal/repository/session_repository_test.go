package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pocket-university-api/internal/models"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	repo := NewSessionRepository(kv)

	user, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, repo.Save(ctx, models.User{ID: "T1000", Name: "Dr. Ada", Role: models.RoleTeacher}))
	_, ok := kv.data["pocket_current_user"]
	assert.True(t, ok)

	user, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "T1000", user.ID)

	require.NoError(t, repo.Clear(ctx))
	user, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSessionRepositoryCorruptSlot(t *testing.T) {
	kv := newMemKV()
	kv.data[sessionSlotKey] = []byte("garbage")
	repo := NewSessionRepository(kv)

	_, err := repo.Load(context.Background())
	require.Error(t, err)
}
