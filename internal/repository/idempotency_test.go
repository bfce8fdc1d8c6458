package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/repository"
	"github.com/josh-kwaku/instructor-payouts/internal/testutil"
)

func TestIdempotencyRepository_ReserveOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewIdempotencyRepository(db)
	user := testutil.SeedUser(t, db, domain.RoleInstructor)

	now := time.Now().UTC()
	entry := func() *repository.IdempotencyCacheEntry {
		return &repository.IdempotencyCacheEntry{
			Key:         "k1",
			UserID:      user.ID,
			RequestHash: "hash-a",
			CreatedAt:   now,
			ExpiresAt:   now.Add(time.Minute),
		}
	}

	const workers = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Reserve(ctx, entry())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, won)

	pending, err := repo.Get(ctx, "k1", user.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, pending.Pending())

	done := entry()
	done.StatusCode = 201
	done.ResponseBody = []byte(`{"success":true}`)
	done.ExpiresAt = now.Add(24 * time.Hour)
	require.NoError(t, repo.Complete(ctx, done))

	stored, err := repo.Get(ctx, "k1", user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Pending())
	assert.Equal(t, 201, stored.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(stored.ResponseBody))

	// Release only drops pending rows.
	require.NoError(t, repo.Release(ctx, "k1", user.ID))
	stored, err = repo.Get(ctx, "k1", user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestIdempotencyRepository_ReleaseFreesKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := repository.NewIdempotencyRepository(db)
	user := testutil.SeedUser(t, db, domain.RoleInstructor)

	now := time.Now().UTC()
	e := &repository.IdempotencyCacheEntry{Key: "k2", UserID: user.ID, RequestHash: "h", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}

	ok, err := repo.Reserve(ctx, e)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Release(ctx, "k2", user.ID))

	ok, err = repo.Reserve(ctx, e)
	require.NoError(t, err)
	assert.True(t, ok)

	err = repo.Complete(ctx, &repository.IdempotencyCacheEntry{Key: "missing", UserID: user.ID, StatusCode: 200, ResponseBody: []byte(`{}`), ExpiresAt: now})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
