package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/collegedash/college_dashboard/internal/apperr"
	"github.com/collegedash/college_dashboard/internal/models"
	"github.com/collegedash/college_dashboard/internal/service/token"
)

func requireAppErr(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	require.Equal(t, message, appErr.Message)
}

func cookieByName(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.NoError(t, env.Auth.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	require.Equal(t, "alice", data["username"])
	require.Equal(t, "a@x.com", data["email"])
	require.NotContains(t, data, "password")
	require.NotContains(t, data, "PasswordHash")

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "a@x.com").First(&user).Error)
	require.NotEqual(t, "secret1", user.PasswordHash)

	// registration must not auto-issue tokens
	require.Empty(t, rec.Result().Cookies())
	var tokenCount int64
	env.DB.Model(&models.RefreshToken{}).Count(&tokenCount)
	require.Zero(t, tokenCount)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")

	c, _ := env.request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice2",
		"email":    "a@x.com",
		"password": "secret2",
	})
	err := env.Auth.Register(c)
	requireAppErr(t, err, apperr.Database, "user already exists!!")
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
	})
	err := env.Auth.Register(c)
	requireAppErr(t, err, apperr.Validation, "username, email and password are required")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")

	c, rec := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	access := cookieByName(t, cookies, "accessToken")
	refresh := cookieByName(t, cookies, "refreshToken")
	require.True(t, access.HttpOnly)
	require.True(t, refresh.HttpOnly)
	require.False(t, access.Secure)
	require.Equal(t, http.SameSiteLaxMode, access.SameSite)
	require.Equal(t, "/", access.Path)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	require.NotEmpty(t, data["refreshToken"])
	userData := data["user"].(map[string]any)
	require.Equal(t, "alice", userData["username"])
	require.NotContains(t, userData, "password")

	var record models.RefreshToken
	require.NoError(t, env.DB.Where("user_id = ?", user.ID).First(&record).Error)
	require.False(t, record.Revoked)
	require.Equal(t, refresh.Value, record.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")

	c, rec := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})
	err := env.Auth.Login(c)
	requireAppErr(t, err, apperr.Validation, "incorrect password!!")

	require.Empty(t, rec.Result().Cookies())
	var tokenCount int64
	env.DB.Model(&models.RefreshToken{}).Count(&tokenCount)
	require.Zero(t, tokenCount)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "secret1",
	})
	err := env.Auth.Login(c)
	requireAppErr(t, err, apperr.NotFound, "Incorrect email, user not found!!")
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")

	c, rec := env.request(http.MethodGet, "/api/auth/me", nil, cookies...)
	require.NoError(t, env.Tokens.Verify(env.Auth.Me)(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	require.Equal(t, float64(user.ID), data["userId"])
	require.Equal(t, "alice", data["username"])
	require.Equal(t, "a@x.com", data["email"])
}

func TestVerifyMissingToken(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodGet, "/api/auth/me", nil)
	err := env.Tokens.Verify(env.Auth.Me)(c)
	requireAppErr(t, err, apperr.Unauthorized, "Please login to continue")
}

func TestVerifyExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")

	claims := token.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test_access_secret"))
	require.NoError(t, err)

	c, _ := env.request(http.MethodGet, "/api/auth/me", nil,
		&http.Cookie{Name: "accessToken", Value: expired})
	err = env.Tokens.Verify(env.Auth.Me)(c)
	// expired must be distinguishable from absent so the client refreshes
	// instead of re-authenticating
	requireAppErr(t, err, apperr.Unauthorized, "Session expired, please refresh")
}

func TestVerifyDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")

	require.NoError(t, env.DB.Delete(&models.User{}, user.ID).Error)

	c, _ := env.request(http.MethodGet, "/api/auth/me", nil, cookies...)
	err := env.Tokens.Verify(env.Auth.Me)(c)
	requireAppErr(t, err, apperr.Unauthorized, "User not found")
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")
	oldRefresh := cookieByName(t, cookies, "refreshToken")

	c, rec := env.request(http.MethodGet, "/api/auth/refresh", nil, oldRefresh)
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Token refreshed successfully", body["message"])
	userData := body["user"].(map[string]any)
	require.Equal(t, "alice", userData["username"])

	newCookies := rec.Result().Cookies()
	newRefresh := cookieByName(t, newCookies, "refreshToken")
	require.NotEqual(t, oldRefresh.Value, newRefresh.Value)
	cookieByName(t, newCookies, "accessToken")

	// the redeemed token is revoked, the replacement is live
	var oldRecord, newRecord models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", oldRefresh.Value).First(&oldRecord).Error)
	require.True(t, oldRecord.Revoked)
	require.NoError(t, env.DB.Where("token = ?", newRefresh.Value).First(&newRecord).Error)
	require.False(t, newRecord.Revoked)
}

func TestRefreshSecondRedemptionFails(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")
	oldRefresh := cookieByName(t, cookies, "refreshToken")

	c, _ := env.request(http.MethodGet, "/api/auth/refresh", nil, oldRefresh)
	require.NoError(t, env.Auth.Refresh(c))

	c2, _ := env.request(http.MethodGet, "/api/auth/refresh", nil, oldRefresh)
	err := env.Auth.Refresh(c2)
	requireAppErr(t, err, apperr.Unauthorized, "Invalid or expired refresh token")
}

func TestRefreshMissingCookie(t *testing.T) {
	env := newTestEnv(t)

	c, _ := env.request(http.MethodGet, "/api/auth/refresh", nil)
	err := env.Auth.Refresh(c)
	requireAppErr(t, err, apperr.Unauthorized, "No refresh token found")
}

func TestRefreshExpiredSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")

	claims := token.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-24 * time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test_refresh_secret"))
	require.NoError(t, err)

	c, _ := env.request(http.MethodGet, "/api/auth/refresh", nil,
		&http.Cookie{Name: "refreshToken", Value: expired})
	err = env.Auth.Refresh(c)
	// terminal: the client has to fully re-authenticate
	requireAppErr(t, err, apperr.Unauthorized, "Please login again")
}

func TestRefreshRevokedRecord(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")
	refresh := cookieByName(t, cookies, "refreshToken")

	require.NoError(t, env.DB.Model(&models.RefreshToken{}).
		Where("token = ?", refresh.Value).
		Update("revoked", true).Error)

	c, _ := env.request(http.MethodGet, "/api/auth/refresh", nil, refresh)
	err := env.Auth.Refresh(c)
	requireAppErr(t, err, apperr.Unauthorized, "Invalid or expired refresh token")
}

func TestExpiredAccessThenRefreshThenRetry(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")
	refresh := cookieByName(t, cookies, "refreshToken")

	claims := token.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
		},
	}
	expiredAccess, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte("test_access_secret"))
	require.NoError(t, err)

	c, _ := env.request(http.MethodGet, "/api/auth/me", nil,
		&http.Cookie{Name: "accessToken", Value: expiredAccess})
	err = env.Tokens.Verify(env.Auth.Me)(c)
	requireAppErr(t, err, apperr.Unauthorized, "Session expired, please refresh")

	c2, rec2 := env.request(http.MethodGet, "/api/auth/refresh", nil, refresh)
	require.NoError(t, env.Auth.Refresh(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	freshCookies := rec2.Result().Cookies()

	c3, rec3 := env.request(http.MethodGet, "/api/auth/me", nil, freshCookies...)
	require.NoError(t, env.Tokens.Verify(env.Auth.Me)(c3))
	require.Equal(t, http.StatusOK, rec3.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", "a@x.com", "secret1")
	cookies := env.login("a@x.com", "secret1")
	refresh := cookieByName(t, cookies, "refreshToken")

	c, rec := env.request(http.MethodPost, "/api/auth/logout", nil, refresh)
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Logged out successfully", body["message"])

	var record models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", refresh.Value).First(&record).Error)
	require.True(t, record.Revoked)

	for _, ck := range rec.Result().Cookies() {
		require.Empty(t, ck.Value)
		require.Negative(t, ck.MaxAge)
	}

	// the revoked token cannot come back through refresh
	c2, _ := env.request(http.MethodGet, "/api/auth/refresh", nil, refresh)
	err := env.Auth.Refresh(c2)
	requireAppErr(t, err, apperr.Unauthorized, "Invalid or expired refresh token")
}

func TestLogoutWithoutCookie(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, rec.Result().Cookies(), 2)
}
