package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusfund/nexusfund/internal/stools"
)

func signedToken(t *testing.T, status UserStatus) string {
	t.Helper()
	t.Setenv(EnvServerSecretKey, "test-secret")
	token, err := generateAccessToken(authJWTClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
		Email:  "ops@example.com",
		Status: int(status),
	})
	require.NoError(t, err)
	return token
}

func TestAPIModeSetsContentType(t *testing.T) {
	handler := stools.AdaptHandler(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w)
	}, apiMode(slog.Default(), maxRequestBody))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestAPIModeRecoversPanics(t *testing.T) {
	handler := stools.AdaptHandler(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, apiMode(slog.Default(), maxRequestBody))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp DefaultJSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "internal error", resp.Error)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 2)
	handler := stools.AdaptHandler(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w)
	}, rateLimitMiddleware(rl))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRequireStatus(t *testing.T) {
	handler := stools.AdaptHandler(func(w http.ResponseWriter, r *http.Request) {
		writeOK(w)
	},
		atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
		requireStatus(UserStatusSudo),
	)

	t.Run("sudo token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/campaigns", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, UserStatusSudo))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("default token is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/campaigns", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, UserStatusDefault))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		t.Setenv(EnvServerSecretKey, "test-secret")
		req := httptest.NewRequest(http.MethodPost, "/campaigns", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
