package server

import (
	"fmt"
	"net/http"
	"testing"

	"thoughtforum/internal/models"
	"thoughtforum/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) askQuestion(t *testing.T, token string, categoryID uint, title string) models.Question {
	t.Helper()
	var q models.Question
	ts.doInto(t, http.MethodPost, "/api/questions", map[string]any{
		"title":    title,
		"body":     title + " body",
		"category": categoryID,
	}, token, http.StatusCreated, &q)
	return q
}

func TestCreateQuestion(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	cat := testutil.CreateCategory(t, ts.db, "Go")

	q := ts.askQuestion(t, ada.AccessToken, cat.ID, "How do channels work?")
	assert.NotZero(t, q.ID)
	assert.Equal(t, "How do channels work?", q.Title)
	assert.Equal(t, ada.UserID, q.User.ID)
	assert.Equal(t, "Ada", q.User.Name)
	assert.Equal(t, cat.ID, q.Category.ID)
	assert.Empty(t, q.Likes)
}

func TestCreateQuestion_Validation(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	cat := testutil.CreateCategory(t, ts.db, "Go")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"missing title", map[string]any{"body": "b", "category": cat.ID}, http.StatusBadRequest},
		{"blank body", map[string]any{"title": "t", "body": "   ", "category": cat.ID}, http.StatusBadRequest},
		{"missing category", map[string]any{"title": "t", "body": "b"}, http.StatusBadRequest},
		{"unknown category", map[string]any{"title": "t", "body": "b", "category": cat.ID + 100}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := ts.do(t, http.MethodPost, "/api/questions", tt.body, ada.AccessToken)
			assert.Equal(t, tt.status, status, "body: %s", raw)
		})
	}

	var n int64
	require.NoError(t, ts.db.Model(&models.Question{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestQuestionListings(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	goCat := testutil.CreateCategory(t, ts.db, "Go")
	dbCat := testutil.CreateCategory(t, ts.db, "Databases")

	first := ts.askQuestion(t, ada.AccessToken, goCat.ID, "first")
	second := ts.askQuestion(t, ada.AccessToken, goCat.ID, "second")
	third := ts.askQuestion(t, bob.AccessToken, dbCat.ID, "third")

	// Two answers on first, one on third.
	testutil.CreateAnswer(t, ts.db, bob.UserID, first.ID, "a1")
	testutil.CreateAnswer(t, ts.db, bob.UserID, first.ID, "a2")
	testutil.CreateAnswer(t, ts.db, ada.UserID, third.ID, "a3")

	ids := func(qs []models.Question) []uint {
		out := make([]uint, 0, len(qs))
		for _, q := range qs {
			out = append(out, q.ID)
		}
		return out
	}

	t.Run("all newest first", func(t *testing.T) {
		var qs []models.Question
		ts.doInto(t, http.MethodGet, "/api/questions", nil, "", http.StatusOK, &qs)
		assert.Equal(t, []uint{third.ID, second.ID, first.ID}, ids(qs))
	})

	t.Run("hot and top by answer count", func(t *testing.T) {
		var hot []models.Question
		ts.doInto(t, http.MethodGet, "/api/questions/hot-questions", nil, "", http.StatusOK, &hot)
		require.Len(t, hot, 3)
		assert.Equal(t, []uint{first.ID, third.ID}, ids(hot)[:2])
		assert.Len(t, hot[0].Answers, 2)

		var top []models.Question
		ts.doInto(t, http.MethodGet, "/api/questions/top-questions", nil, "", http.StatusOK, &top)
		require.Len(t, top, 3)
		assert.Equal(t, first.ID, top[0].ID)
	})

	t.Run("category", func(t *testing.T) {
		var qs []models.Question
		ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/questions/category/%d", goCat.ID), nil, "", http.StatusOK, &qs)
		assert.Equal(t, []uint{second.ID, first.ID}, ids(qs))

		status, _ := ts.do(t, http.MethodGet, "/api/questions/category/999", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("related", func(t *testing.T) {
		var qs []models.Question
		ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/questions/related-questions/%d", dbCat.ID), nil, "", http.StatusOK, &qs)
		assert.Equal(t, []uint{third.ID}, ids(qs))
	})

	t.Run("following", func(t *testing.T) {
		ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/users/%d", bob.UserID), nil, ada.AccessToken, http.StatusCreated, nil)

		var qs []models.Question
		ts.doInto(t, http.MethodGet, "/api/questions/following-questions", nil, ada.AccessToken, http.StatusOK, &qs)
		assert.Equal(t, []uint{third.ID}, ids(qs))
	})

	t.Run("single", func(t *testing.T) {
		var q models.Question
		ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/questions/%d", first.ID), nil, "", http.StatusOK, &q)
		assert.Equal(t, "first", q.Title)

		status, raw := ts.do(t, http.MethodGet, "/api/questions/999", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.NotEmpty(t, errorMessage(t, raw))

		status, raw = ts.do(t, http.MethodGet, "/api/questions/abc", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid question ID", errorMessage(t, raw))
	})
}

func TestUpdateQuestion_OwnerOnly(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	cat := testutil.CreateCategory(t, ts.db, "Go")
	q := ts.askQuestion(t, ada.AccessToken, cat.ID, "original")

	path := fmt.Sprintf("/api/questions/%d", q.ID)
	edit := map[string]any{"title": "edited", "body": "new body", "category": cat.ID}

	status, _ := ts.do(t, http.MethodPut, path, edit, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, status)

	var updated models.Question
	ts.doInto(t, http.MethodPut, path, edit, ada.AccessToken, http.StatusOK, &updated)
	assert.Equal(t, "edited", updated.Title)
	assert.Equal(t, "new body", updated.Body)
}

func TestDeleteQuestion_RemovesAnswersAndLikes(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	cat := testutil.CreateCategory(t, ts.db, "Go")
	q := ts.askQuestion(t, ada.AccessToken, cat.ID, "doomed")
	a := testutil.CreateAnswer(t, ts.db, bob.UserID, q.ID, "answer")
	ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/questions/like/%d", q.ID), nil, bob.AccessToken, http.StatusOK, nil)
	ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/answers/%d", a.ID), nil, ada.AccessToken, http.StatusOK, nil)

	path := fmt.Sprintf("/api/questions/%d", q.ID)
	status, _ := ts.do(t, http.MethodDelete, path, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, status)

	var body map[string]string
	ts.doInto(t, http.MethodDelete, path, nil, ada.AccessToken, http.StatusOK, &body)
	assert.Equal(t, "Question deleted", body["message"])

	var answers, qLikes, aLikes int64
	require.NoError(t, ts.db.Model(&models.Answer{}).Count(&answers).Error)
	require.NoError(t, ts.db.Model(&models.QuestionLike{}).Count(&qLikes).Error)
	require.NoError(t, ts.db.Model(&models.AnswerLike{}).Count(&aLikes).Error)
	assert.Zero(t, answers)
	assert.Zero(t, qLikes)
	assert.Zero(t, aLikes)

	status, _ = ts.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLikeQuestion_Toggles(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	cat := testutil.CreateCategory(t, ts.db, "Go")
	q := ts.askQuestion(t, ada.AccessToken, cat.ID, "likeable")
	likePath := fmt.Sprintf("/api/questions/like/%d", q.ID)
	likersPath := fmt.Sprintf("/api/questions/likes/%d", q.ID)

	var liked models.Question
	ts.doInto(t, http.MethodPost, likePath, nil, bob.AccessToken, http.StatusOK, &liked)
	assert.Equal(t, []uint{bob.UserID}, liked.Likes)

	var likers []models.UserRef
	ts.doInto(t, http.MethodGet, likersPath, nil, "", http.StatusOK, &likers)
	assert.Equal(t, []models.UserRef{{ID: bob.UserID, Name: "Bob"}}, likers)

	var unliked models.Question
	ts.doInto(t, http.MethodPost, likePath, nil, bob.AccessToken, http.StatusOK, &unliked)
	assert.Empty(t, unliked.Likes)

	status, _ := ts.do(t, http.MethodPost, "/api/questions/like/999", nil, bob.AccessToken)
	assert.Equal(t, http.StatusNotFound, status)
}
