package service

import (
	"context"
	"testing"

	"thoughtforum/internal/models"
	"thoughtforum/internal/notifications"
	"thoughtforum/internal/repository"
	"thoughtforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuestionService(t *testing.T) (*QuestionService, *recordingNotifier, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	n := &recordingNotifier{}
	svc := NewQuestionService(
		repository.NewQuestionRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewUserRepository(db),
		n,
	)
	return svc, n, db
}

func TestQuestionService_CreateBroadcasts(t *testing.T) {
	svc, n, db := newQuestionService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	cat := testutil.CreateCategory(t, db, "Go")

	q, err := svc.Create(ctx, CreateQuestionInput{UserID: owner.ID, Title: " Channels? ", Body: "How?", CategoryID: cat.ID})
	require.NoError(t, err)
	assert.Equal(t, "Channels?", q.Title)
	assert.Equal(t, owner.Name, q.User.Name)
	assert.Equal(t, "Go", q.Category.Title)

	b := n.Broadcasts()
	require.Len(t, b, 1)
	assert.Equal(t, notifications.EventQuestionCreated, b[0].Kind)
	assert.Empty(t, n.Routes())
}

func TestQuestionService_CreateValidation(t *testing.T) {
	svc, n, db := newQuestionService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	cat := testutil.CreateCategory(t, db, "Go")

	_, err := svc.Create(ctx, CreateQuestionInput{UserID: owner.ID, Body: "b", CategoryID: cat.ID})
	assertValidationError(t, err)
	_, err = svc.Create(ctx, CreateQuestionInput{UserID: owner.ID, Title: "t", Body: "b"})
	assertValidationError(t, err)
	_, err = svc.Create(ctx, CreateQuestionInput{UserID: owner.ID, Title: "t", Body: "b", CategoryID: 999})
	assertAppErrorCode(t, err, models.CodeNotFound)

	assert.Empty(t, n.Broadcasts())
}

func TestQuestionService_OnlyOwnerMayEditOrDelete(t *testing.T) {
	svc, _, db := newQuestionService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	other := testutil.CreateUser(t, db, "other")
	cat := testutil.CreateCategory(t, db, "Go")
	cat2 := testutil.CreateCategory(t, db, "Rust")
	q := testutil.CreateQuestion(t, db, owner.ID, cat.ID, "Original")

	_, err := svc.Update(ctx, UpdateQuestionInput{UserID: other.ID, QuestionID: q.ID, Title: "x", Body: "y", CategoryID: cat.ID})
	assertAppErrorCode(t, err, models.CodeForbidden)
	assertAppErrorCode(t, svc.Delete(ctx, other.ID, q.ID), models.CodeForbidden)

	updated, err := svc.Update(ctx, UpdateQuestionInput{UserID: owner.ID, QuestionID: q.ID, Title: "Edited", Body: "New body", CategoryID: cat2.ID})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, "Rust", updated.Category.Title)

	require.NoError(t, svc.Delete(ctx, owner.ID, q.ID))
	_, err = svc.Get(ctx, q.ID)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestQuestionService_ToggleLikeNotifiesOwner(t *testing.T) {
	svc, n, db := newQuestionService(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner")
	fan := testutil.CreateUser(t, db, "fan")
	cat := testutil.CreateCategory(t, db, "Go")
	q := testutil.CreateQuestion(t, db, owner.ID, cat.ID, "Likeable")

	liked, err := svc.ToggleLike(ctx, fan.ID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{fan.ID}, liked.Likes)

	routes := n.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, owner.ID, routes[0].UserID)
	assert.Equal(t, notifications.EventLike, routes[0].Kind)
	assert.Equal(t, notifications.LikePayload{Name: "fan", UserID: fan.ID, QuestionID: q.ID}, routes[0].Payload)

	likers, err := svc.Likers(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UserRef{{ID: fan.ID, Name: "fan"}}, likers)

	// Unlike does not notify.
	unliked, err := svc.ToggleLike(ctx, fan.ID, q.ID)
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
	assert.Len(t, n.Routes(), 1)

	// Liking your own question does not notify either.
	_, err = svc.ToggleLike(ctx, owner.ID, q.ID)
	require.NoError(t, err)
	assert.Len(t, n.Routes(), 1)
}

func TestQuestionService_Listings(t *testing.T) {
	svc, _, db := newQuestionService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	cat := testutil.CreateCategory(t, db, "Go")
	other := testutil.CreateCategory(t, db, "Misc")

	var inGo []*models.Question
	for _, title := range []string{"q1", "q2", "q3", "q4"} {
		inGo = append(inGo, testutil.CreateQuestion(t, db, alice.ID, cat.ID, title))
	}
	bobs := testutil.CreateQuestion(t, db, bob.ID, other.ID, "bob's")
	testutil.CreateAnswer(t, db, bob.ID, inGo[0].ID, "a")
	testutil.CreateAnswer(t, db, bob.ID, inGo[0].ID, "b")
	testutil.CreateAnswer(t, db, bob.ID, inGo[2].ID, "c")

	related, err := svc.Related(ctx, cat.ID)
	require.NoError(t, err)
	assert.Len(t, related, 3)

	byCat, err := svc.ByCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.Len(t, byCat, 4)
	_, err = svc.ByCategory(ctx, 999)
	assertAppErrorCode(t, err, models.CodeNotFound)

	hot, err := svc.Hot(ctx)
	require.NoError(t, err)
	require.Len(t, hot, 3)
	assert.Equal(t, inGo[0].ID, hot[0].ID)
	assert.Equal(t, inGo[2].ID, hot[1].ID)

	top, err := svc.Top(ctx)
	require.NoError(t, err)
	assert.Len(t, top, 5)

	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID}).Error)
	following, err := svc.Following(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bobs.ID, following[0].ID)
}
