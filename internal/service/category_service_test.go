package service

import (
	"context"
	"testing"

	"thoughtforum/internal/models"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewCategoryService(repository.NewCategoryRepository(db))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateCategoryInput{Title: "   "})
	assertValidationError(t, err)

	created, err := svc.Create(ctx, CreateCategoryInput{Title: "Databases"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = svc.Create(ctx, CreateCategoryInput{Title: "Databases"})
	assertAppErrorCode(t, err, models.CodeConflict)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Databases", got.Title)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
