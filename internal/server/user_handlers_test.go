package server

import (
	"fmt"
	"net/http"
	"testing"

	"thoughtforum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyProfile(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "Ada@Example.com")

	var me map[string]any
	ts.doInto(t, http.MethodGet, "/api/users", nil, ada.AccessToken, http.StatusOK, &me)
	assert.Equal(t, "Ada", me["name"])
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, models.DefaultBio, me["bio"])
	assert.NotContains(t, me, "password")
}

func TestUpdateMyProfile(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")

	var updated models.User
	ts.doInto(t, http.MethodPut, "/api/users", map[string]string{
		"name": "Ada L.", "gender": "female", "bio": "Analyst",
	}, ada.AccessToken, http.StatusOK, &updated)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, "Analyst", updated.Bio)

	status, _ := ts.do(t, http.MethodPut, "/api/users", map[string]string{
		"name": "Ada", "gender": "female",
	}, ada.AccessToken)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetUserProfile(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")

	var user models.User
	ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/users/%d", ada.UserID), nil, "", http.StatusOK, &user)
	assert.Equal(t, ada.UserID, user.ID)

	status, _ := ts.do(t, http.MethodGet, "/api/users/999", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, raw := ts.do(t, http.MethodGet, "/api/users/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID", errorMessage(t, raw))
}

func TestToggleFollow(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	followPath := fmt.Sprintf("/api/users/%d", bob.UserID)

	var res struct {
		Message   string `json:"message"`
		Following bool   `json:"following"`
	}
	ts.doInto(t, http.MethodPost, followPath, nil, ada.AccessToken, http.StatusCreated, &res)
	assert.Equal(t, "success", res.Message)
	assert.True(t, res.Following)

	var followers []models.User
	ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/users/followers/%d", bob.UserID), nil, "", http.StatusOK, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, ada.UserID, followers[0].ID)

	var following []models.User
	ts.doInto(t, http.MethodGet, fmt.Sprintf("/api/users/following/%d", ada.UserID), nil, "", http.StatusOK, &following)
	require.Len(t, following, 1)
	assert.Equal(t, bob.UserID, following[0].ID)

	var mine []models.User
	ts.doInto(t, http.MethodGet, "/api/users/followers", nil, bob.AccessToken, http.StatusOK, &mine)
	require.Len(t, mine, 1)

	ts.doInto(t, http.MethodPost, followPath, nil, ada.AccessToken, http.StatusCreated, &res)
	assert.False(t, res.Following)

	ts.doInto(t, http.MethodGet, "/api/users/followers", nil, bob.AccessToken, http.StatusOK, &mine)
	assert.Empty(t, mine)
}

func TestToggleFollow_Errors(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")

	status, raw := ts.do(t, http.MethodPost, fmt.Sprintf("/api/users/%d", ada.UserID), nil, ada.AccessToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You cannot follow yourself", errorMessage(t, raw))

	status, _ = ts.do(t, http.MethodPost, "/api/users/999", nil, ada.AccessToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetTopMembers(t *testing.T) {
	ts := newTestServer(t)
	ada := ts.signup(t, "Ada", "ada@example.com")
	bob := ts.signup(t, "Bob", "bob@example.com")
	cy := ts.signup(t, "Cy", "cy@example.com")

	ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/users/%d", cy.UserID), nil, ada.AccessToken, http.StatusCreated, nil)
	ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/users/%d", cy.UserID), nil, bob.AccessToken, http.StatusCreated, nil)
	ts.doInto(t, http.MethodPost, fmt.Sprintf("/api/users/%d", bob.UserID), nil, ada.AccessToken, http.StatusCreated, nil)

	var top []models.User
	ts.doInto(t, http.MethodGet, "/api/users/top-members", nil, "", http.StatusOK, &top)
	require.Len(t, top, 3)
	assert.Equal(t, cy.UserID, top[0].ID)
	assert.Equal(t, bob.UserID, top[1].ID)
	assert.Len(t, top[0].Followers, 2)
}
