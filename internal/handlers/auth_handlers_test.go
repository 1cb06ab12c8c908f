package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svm-engineering/storefront/internal/models"
)

func registerPayload() map[string]string {
	return map[string]string{
		"username": "test_user",
		"email":    "test@example.com",
		"password": "password",
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", registerPayload())
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "test_user", user.Username)
	require.Equal(t, "user", user.Role)
	require.NotZero(t, user.ID)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	require.NotEqual(t, "password", stored.PasswordHash)
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", registerPayload())
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/register", registerPayload())
	require.NoError(t, env.Auth.Register(c2))
	require.Equal(t, http.StatusBadRequest, rec2.Code)
}

func loginTokens(t *testing.T, env *testEnv) (string, string) {
	t.Helper()

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", registerPayload())
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "test_user",
		"password": "password",
	})
	require.NoError(t, env.Auth.Login(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		IsAdmin      bool   `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.False(t, resp.IsAdmin)
	return resp.AccessToken, resp.RefreshToken
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	loginTokens(t, env)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", registerPayload())
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"username": "test_user",
		"password": "wrong",
	})
	require.NoError(t, env.Auth.Login(c2))
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := loginTokens(t, env)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, refresh, pair.RefreshToken)

	// The rotated-out token is revoked and cannot be replayed.
	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Auth.Refresh(c2))
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := loginTokens(t, env)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/logout", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	rec2, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	require.NoError(t, env.Auth.Refresh(c2))
	require.Equal(t, http.StatusUnauthorized, rec2.Code)
}
