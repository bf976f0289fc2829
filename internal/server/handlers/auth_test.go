package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordbase/wordbase/pkg/api"
)

func testJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          []byte("test-secret"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthHandler() (*AuthHandler, *fakeUserStore, *fakeTokenStore) {
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	h := NewAuthHandler(testLogger(), users, tokens, testJWTConfig())
	return h, users, tokens
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestRegister(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := ValidateAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "another1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterInvalidInput(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "not-an-email",
		Password: "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	h, _, _ := newAuthHandler()

	w := postJSON(t, h.Login, "/api/v1/auth/login", api.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	h, _, tokens := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var first api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&first))

	w = postJSON(t, h.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: first.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var second api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&second))
	assert.Equal(t, first.UserID, second.UserID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The old token is gone after rotation.
	_, err := tokens.GetToken(t.Context(), first.RefreshToken)
	assert.Error(t, err)

	w = postJSON(t, h.Refresh, "/api/v1/auth/refresh", api.RefreshRequest{
		RefreshToken: first.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	h, _, tokens := newAuthHandler()

	w := postJSON(t, h.Register, "/api/v1/auth/register", api.RegisterRequest{
		Email:    "alice@example.com",
		Password: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp api.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req = req.WithContext(WithUserID(req.Context(), resp.UserID))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := tokens.GetToken(t.Context(), resp.RefreshToken)
	assert.Error(t, err)
}

func TestLogoutUnauthorized(t *testing.T) {
	h, _, _ := newAuthHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
