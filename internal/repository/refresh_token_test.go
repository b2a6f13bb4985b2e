package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"thoughtforum/internal/models"
	"thoughtforum/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenRepository_ReplaceKeepsSingleRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ada")
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.Replace(ctx, user.ID, "first", exp))
	require.NoError(t, repo.Replace(ctx, user.ID, "second", exp))

	var count int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	row, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", row.Token)
}

func TestRefreshTokenRepository_RotateIsCompareAndSwap(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ada")
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.Replace(ctx, user.ID, "t0", exp))

	ok, err := repo.Rotate(ctx, user.ID, "t0", "t1", exp)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Rotate(ctx, user.ID, "t0", "t2", exp)
	require.NoError(t, err)
	assert.False(t, ok, "stale token must not rotate")

	ok, err = repo.Rotate(ctx, 9999, "t1", "t2", exp)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err := repo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "t1", row.Token)
}

func TestRefreshTokenRepository_ConcurrentRotateHasOneWinner(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ada")
	exp := time.Now().Add(time.Hour)
	require.NoError(t, repo.Replace(ctx, user.ID, "shared", exp))

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Rotate(ctx, user.ID, "shared", fmt.Sprintf("next-%d", i), exp)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestRefreshTokenRepository_DeleteRequiresMatchingToken(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "ada")
	require.NoError(t, repo.Replace(ctx, user.ID, "live", time.Now().Add(time.Hour)))

	ok, err := repo.Delete(ctx, user.ID, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, user.ID, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByUserID(ctx, user.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRefreshTokenRepository_RotateSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "refresh_tokens" SET .+ WHERE user_id = \$\d AND token = \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.Rotate(context.Background(), 1, "old", "new", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
