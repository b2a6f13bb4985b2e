package repository

import (
	"context"
	"testing"

	"thoughtforum/internal/models"
	"thoughtforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAnswerRepository(db)
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	cat := testutil.CreateCategory(t, db, "Go")
	q := testutil.CreateQuestion(t, db, ada.ID, cat.ID, "q")

	first := &models.Answer{Text: "first", QuestionID: q.ID, UserID: bob.ID}
	second := &models.Answer{Text: "second", QuestionID: q.ID, UserID: ada.ID}

	t.Run("Create", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))
		assert.Equal(t, models.UserRef{ID: bob.ID, Name: "bob"}, first.User)
		assert.NotNil(t, first.Likes)
	})

	t.Run("ListByQuestion oldest first", func(t *testing.T) {
		answers, err := repo.ListByQuestion(ctx, q.ID)
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, first.ID, answers[0].ID)
		assert.Equal(t, "ada", answers[1].User.Name)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("ToggleLike", func(t *testing.T) {
		liked, err := repo.ToggleLike(ctx, ada.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{ada.ID}, got.Likes)

		likers, err := repo.Likers(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{ada.ID}, likers)
	})

	t.Run("Update", func(t *testing.T) {
		first.Text = "edited"
		require.NoError(t, repo.Update(ctx, first))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)

		assert.True(t, models.HasCode(repo.Update(ctx, &models.Answer{ID: 9999, Text: "x"}), models.CodeNotFound))
	})

	t.Run("Delete removes likes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, first.ID))

		var n int64
		db.Model(&models.AnswerLike{}).Where("answer_id = ?", first.ID).Count(&n)
		assert.Zero(t, n)

		_, err := repo.GetByID(ctx, first.ID)
		assert.True(t, models.HasCode(err, models.CodeNotFound))
		assert.True(t, models.HasCode(repo.Delete(ctx, first.ID), models.CodeNotFound))
	})
}
