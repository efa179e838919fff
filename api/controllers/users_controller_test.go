package controllers_test

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"microblog/api/models"
	"microblog/api/utils/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRegister(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
		"username":  "susan",
		"email":     "Susan@Example.com",
		"password":  "password123",
		"password2": "password123",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	user := decode(t, w)["response"].(map[string]interface{})
	assert.Equal(t, "susan", user["username"])
	assert.Equal(t, "Susan@Example.com", user["email"])
	assert.NotEmpty(t, user["id"])
	_, hasHash := user["password_hash"]
	assert.False(t, hasHash, "password hash must not be exposed")

	stored, err := models.FindUserByUsername(server.DB, "susan")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	server := newTestServer(t)
	testdb.CreateUser(t, server.DB, "susan")

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
		"username": "susan", "email": "other@example.com", "password": "password123",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Username already taken", decode(t, w)["error"])

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
		"username": "other", "email": "susan@example.com", "password": "password123",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["error"])

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
		"username": "other", "email": "not-an-email", "password": "pw", "password2": "different",
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := decode(t, w)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "Invalid_email")
	assert.Contains(t, errs, "Invalid_password")
	assert.Contains(t, errs, "Mismatch_password")
}

func TestGetUserByAnyIdentifier(t *testing.T) {
	server := newTestServer(t)
	john := testdb.CreateUser(t, server.DB, "john")
	susan := testdb.CreateUser(t, server.DB, "susan")

	for _, ident := range []string{strconv.Itoa(int(john.ID)), john.PublicID, "john"} {
		w := do(t, server, request{method: http.MethodGet, path: "/api/v1/users/" + ident})
		require.Equal(t, http.StatusOK, w.Code, ident)
		user := decode(t, w)["response"].(map[string]interface{})
		assert.Equal(t, "john", user["username"])
		assert.True(t, strings.HasPrefix(user["avatar"].(string), "https://www.gravatar.com/avatar/"))
		_, hasEmail := user["email"]
		assert.False(t, hasEmail, "anonymous viewers do not see email")
	}

	w := do(t, server, request{method: http.MethodGet, path: "/api/v1/users/john", token: tokenFor(t, server, susan)})
	_, hasEmail := decode(t, w)["response"].(map[string]interface{})["email"]
	assert.False(t, hasEmail)

	w = do(t, server, request{method: http.MethodGet, path: "/api/v1/users/john", token: tokenFor(t, server, john)})
	assert.Equal(t, "john@example.com", decode(t, w)["response"].(map[string]interface{})["email"])

	w = do(t, server, request{method: http.MethodGet, path: "/api/v1/users/nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	server := newTestServer(t)
	long := strings.Repeat("p", 80)

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
		"username": "susan", "email": "susan@example.com", "password": long, "password2": long,
	}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["errors"], "Invalid_password")

	_, err := models.FindUserByUsername(server.DB, "susan")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestRegisterRejectsIdentifierShapedUsernames(t *testing.T) {
	server := newTestServer(t)

	for _, name := range []string{"1", "0042", "3f2504e0-4f89-11d3-9a0c-0305e82c3301"} {
		w := do(t, server, request{method: http.MethodPost, path: "/api/v1/register", body: map[string]string{
			"username": name, "email": "x@example.com", "password": "password123", "password2": "password123",
		}})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, name)
		assert.Contains(t, decode(t, w)["errors"], "Invalid_username", name)
	}
}

func TestGetUserPrefersUsernameOverNumericID(t *testing.T) {
	server := newTestServer(t)
	john := testdb.CreateUser(t, server.DB, "john")
	// Rows written before usernames were restricted can still be all digits.
	legacy := testdb.CreateUser(t, server.DB, strconv.Itoa(int(john.ID)))

	w := do(t, server, request{method: http.MethodGet, path: "/api/v1/users/" + legacy.Username})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, legacy.Username, decode(t, w)["response"].(map[string]interface{})["username"])

	w = do(t, server, request{method: http.MethodGet, path: "/api/v1/users/" + strconv.Itoa(int(legacy.ID))})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, legacy.Username, decode(t, w)["response"].(map[string]interface{})["username"])
}

func TestUpdateProfile(t *testing.T) {
	server := newTestServer(t)
	john := testdb.CreateUser(t, server.DB, "john")
	testdb.CreateUser(t, server.DB, "susan")
	token := tokenFor(t, server, john)

	w := do(t, server, request{method: http.MethodPut, path: "/api/v1/profile", token: token, body: map[string]string{
		"username": "johnny", "about_me": "hello there",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode(t, w)["response"].(map[string]interface{})
	assert.Equal(t, "johnny", user["username"])
	assert.Equal(t, "hello there", user["about_me"])

	w = do(t, server, request{method: http.MethodPut, path: "/api/v1/profile", token: token, body: map[string]string{
		"username": "susan",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, server, request{method: http.MethodPut, path: "/api/v1/profile", body: map[string]string{"username": "x"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	server := newTestServer(t)
	testdb.CreateUser(t, server.DB, "john")

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]interface{}{
		"username": "john", "password": "password123",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)["response"].(map[string]interface{})
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "john", resp["user"].(map[string]interface{})["username"])
	assert.NotEmpty(t, w.Result().Cookies())

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]string{
		"username": "john", "password": "wrong-password",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]string{
		"username": "nobody", "password": "password123",
	}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]string{"username": "john"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSessionLoginAndLogout(t *testing.T) {
	server := newTestServer(t)
	testdb.CreateUser(t, server.DB, "john")

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]interface{}{
		"username": "john", "password": "password123", "remember_me": true,
	}})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Greater(t, cookies[0].MaxAge, 0)

	w = do(t, server, request{method: http.MethodGet, path: "/api/v1/feed", cookies: cookies})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, server, request{method: http.MethodPost, path: "/api/v1/logout", cookies: cookies})
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()
	require.NotEmpty(t, cleared)

	w = do(t, server, request{method: http.MethodGet, path: "/api/v1/feed", cookies: cleared})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginWithCorruptHashIsServerErrorAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	server := newTestServerWithLogger(t, zap.New(core))
	john := testdb.CreateUser(t, server.DB, "john")
	require.NoError(t, server.DB.Model(&models.User{}).
		Where("id = ?", john.ID).
		UpdateColumn("password_hash", "not-a-bcrypt-hash").Error)

	w := do(t, server, request{method: http.MethodPost, path: "/api/v1/login", body: map[string]string{
		"username": "john", "password": "password123",
	}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("credential failure").Len())
}

func TestLastSeenRefreshedOnAuthenticatedRequest(t *testing.T) {
	server := newTestServer(t)
	john := testdb.CreateUser(t, server.DB, "john")
	before := john.LastSeen

	w := do(t, server, request{method: http.MethodGet, path: "/api/v1/feed", token: tokenFor(t, server, john)})
	require.Equal(t, http.StatusOK, w.Code)

	reloaded, err := models.FindUserByID(server.DB, john.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.LastSeen.Before(before))
}

func TestHealthAndMetrics(t *testing.T) {
	server := newTestServer(t)

	w := do(t, server, request{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = do(t, server, request{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_request_duration_seconds")
}
