package repository

import (
	"context"
	"testing"

	"thoughtforum/internal/models"
	"thoughtforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type questionFixture struct {
	db       *gorm.DB
	repo     QuestionRepository
	ada, bob *models.User
	cat      *models.Category
}

func newQuestionFixture(t *testing.T) *questionFixture {
	db := testutil.NewTestDB(t)
	return &questionFixture{
		db:   db,
		repo: NewQuestionRepository(db),
		ada:  testutil.CreateUser(t, db, "ada"),
		bob:  testutil.CreateUser(t, db, "bob"),
		cat:  testutil.CreateCategory(t, db, "Go"),
	}
}

func ids(questions []*models.Question) []uint {
	out := make([]uint, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ID)
	}
	return out
}

func TestQuestionRepository_CreateHydrates(t *testing.T) {
	f := newQuestionFixture(t)

	q := &models.Question{Title: "Generics?", Body: "When to use them", UserID: f.ada.ID, CategoryID: f.cat.ID}
	require.NoError(t, f.repo.Create(context.Background(), q))

	assert.NotZero(t, q.ID)
	assert.Equal(t, models.UserRef{ID: f.ada.ID, Name: "ada"}, q.User)
	assert.Equal(t, models.CategoryRef{ID: f.cat.ID, Title: "Go"}, q.Category)
	assert.NotNil(t, q.Answers)
	assert.NotNil(t, q.Likes)
}

func TestQuestionRepository_Listings(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	other := testutil.CreateCategory(t, f.db, "Rust")

	q1 := testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "one")
	q2 := testutil.CreateQuestion(t, f.db, f.bob.ID, f.cat.ID, "two")
	q3 := testutil.CreateQuestion(t, f.db, f.ada.ID, other.ID, "three")
	q4 := testutil.CreateQuestion(t, f.db, f.bob.ID, f.cat.ID, "four")

	testutil.CreateAnswer(t, f.db, f.ada.ID, q2.ID, "a")
	testutil.CreateAnswer(t, f.db, f.bob.ID, q2.ID, "b")
	testutil.CreateAnswer(t, f.db, f.ada.ID, q3.ID, "c")

	all, err := f.repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{q4.ID, q3.ID, q2.ID, q1.ID}, ids(all))

	byCategory, err := f.repo.ListByCategory(ctx, f.cat.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{q4.ID, q2.ID, q1.ID}, ids(byCategory))

	related, err := f.repo.ListByCategory(ctx, f.cat.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{q4.ID, q2.ID}, ids(related))

	hot, err := f.repo.ListByAnswerCount(ctx, 3)
	require.NoError(t, err)
	require.Len(t, hot, 3)
	assert.Equal(t, q2.ID, hot[0].ID)
	assert.Len(t, hot[0].Answers, 2)
	assert.Equal(t, q3.ID, hot[1].ID)

	top, err := f.repo.ListByAnswerCount(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, top, 4)
}

func TestQuestionRepository_ListFollowedBy(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	carol := testutil.CreateUser(t, f.db, "carol")

	testutil.CreateQuestion(t, f.db, f.bob.ID, f.cat.ID, "not followed")
	a1 := testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "by ada")
	c1 := testutil.CreateQuestion(t, f.db, carol.ID, f.cat.ID, "by carol")
	require.NoError(t, f.db.Create(&models.Follow{FollowerID: f.bob.ID, FolloweeID: f.ada.ID}).Error)
	require.NoError(t, f.db.Create(&models.Follow{FollowerID: f.bob.ID, FolloweeID: carol.ID}).Error)

	got, err := f.repo.ListFollowedBy(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c1.ID, a1.ID}, ids(got))

	none, err := f.repo.ListFollowedBy(ctx, f.ada.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestQuestionRepository_UpdateMovesCategory(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	other := testutil.CreateCategory(t, f.db, "Rust")

	q, err := f.repo.GetByID(ctx, testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "old").ID)
	require.NoError(t, err)

	q.Title, q.Body, q.CategoryID = "new", "new body", other.ID
	require.NoError(t, f.repo.Update(ctx, q))
	assert.Equal(t, "Rust", q.Category.Title)

	reloaded, err := f.repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", reloaded.Title)
	assert.Equal(t, other.ID, reloaded.CategoryID)

	err = f.repo.Update(ctx, &models.Question{ID: 9999})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestQuestionRepository_DeleteCascades(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()

	q := testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "doomed")
	keep := testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "kept")
	a := testutil.CreateAnswer(t, f.db, f.bob.ID, q.ID, "reply")
	kept := testutil.CreateAnswer(t, f.db, f.bob.ID, keep.ID, "kept reply")
	require.NoError(t, f.db.Create(&models.AnswerLike{UserID: f.ada.ID, AnswerID: a.ID}).Error)
	require.NoError(t, f.db.Create(&models.AnswerLike{UserID: f.ada.ID, AnswerID: kept.ID}).Error)
	require.NoError(t, f.db.Create(&models.QuestionLike{UserID: f.bob.ID, QuestionID: q.ID}).Error)

	require.NoError(t, f.repo.Delete(ctx, q.ID))

	var n int64
	f.db.Model(&models.Answer{}).Where("question_id = ?", q.ID).Count(&n)
	assert.Zero(t, n)
	f.db.Model(&models.AnswerLike{}).Count(&n)
	assert.Equal(t, int64(1), n)
	f.db.Model(&models.QuestionLike{}).Count(&n)
	assert.Zero(t, n)

	_, err := f.repo.GetByID(ctx, q.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.True(t, models.HasCode(f.repo.Delete(ctx, q.ID), models.CodeNotFound))
}

func TestQuestionRepository_ToggleLike(t *testing.T) {
	f := newQuestionFixture(t)
	ctx := context.Background()
	q := testutil.CreateQuestion(t, f.db, f.ada.ID, f.cat.ID, "like me")

	liked, err := f.repo.ToggleLike(ctx, f.bob.ID, q.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	likers, err := f.repo.Likers(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.bob.ID}, likers)

	liked, err = f.repo.ToggleLike(ctx, f.bob.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	likers, err = f.repo.Likers(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, likers)
}
