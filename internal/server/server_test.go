package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thoughtforum/internal/config"
	"thoughtforum/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "test",
		JWTSecret:          "server-test-secret-0123456789abcdef0123",
		JWTIssuer:          "thoughtforum-api",
		JWTAudience:        "thoughtforum-client",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    168 * time.Hour,
		AllowedOrigins:     "http://localhost:3000",
		RateLimitPerMinute: 1000,
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, rdb *redis.Client) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	return &testServer{srv: srv, app: srv.App(), db: db}
}

// do sends a JSON request and returns the status and raw body.
func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

// doInto sends a JSON request, asserts the status and decodes the body into dest.
func (ts *testServer) doInto(t *testing.T, method, path string, body any, token string, wantStatus int, dest any) {
	t.Helper()
	status, raw := ts.do(t, method, path, body, token)
	require.Equal(t, wantStatus, status, "body: %s", raw)
	if dest != nil {
		require.NoError(t, json.Unmarshal(raw, dest))
	}
}

type session struct {
	UserID       uint   `json:"_id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// signup registers a user through the API.
func (ts *testServer) signup(t *testing.T, name, email string) session {
	t.Helper()
	var s session
	ts.doInto(t, http.MethodPost, "/api/auth", map[string]string{
		"name":     name,
		"email":    email,
		"password": "Str0ng!pass",
		"gender":   "other",
	}, "", http.StatusCreated, &s)
	require.NotZero(t, s.UserID)
	return s
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return body.Message
}

func TestNewServerWithDeps_RequiresDatabase(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestUnmatchedRouteReturnsNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/nope", "/api/nope", "/api/questions/1/extra"} {
		status, raw := ts.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.Equal(t, "Not found", errorMessage(t, raw), path)
	}
}

func TestLivenessCheck(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]any
	ts.doInto(t, http.MethodGet, "/health/live", nil, "", http.StatusOK, &body)
	assert.Equal(t, "up", body["status"])
}

func TestReadinessCheck_RedisDisabled(t *testing.T) {
	ts := newTestServer(t)

	var body struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	ts.doInto(t, http.MethodGet, "/health/ready", nil, "", http.StatusOK, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users"},
		{http.MethodPut, "/api/users"},
		{http.MethodGet, "/api/users/followers"},
		{http.MethodPost, "/api/users/1"},
		{http.MethodGet, "/api/questions/following-questions"},
		{http.MethodPost, "/api/questions"},
		{http.MethodPost, "/api/questions/like/1"},
		{http.MethodPut, "/api/questions/1"},
		{http.MethodDelete, "/api/questions/1"},
		{http.MethodPost, "/api/answers"},
		{http.MethodPost, "/api/answers/1"},
		{http.MethodPut, "/api/answers/1"},
		{http.MethodDelete, "/api/answers/1"},
		{http.MethodPost, "/api/categories"},
		{http.MethodPost, "/api/auth/logout"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			status, raw := ts.do(t, tc.method, tc.path, map[string]string{}, "")
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Authorization required", errorMessage(t, raw))
		})
	}
}

func TestProtectedRoutesRejectRefreshToken(t *testing.T) {
	ts := newTestServer(t)
	s := ts.signup(t, "Ada", "ada@example.com")

	status, _ := ts.do(t, http.MethodGet, "/api/users", nil, s.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, status)
}
