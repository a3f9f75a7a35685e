package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/nexusfund/nexusfund/http/api"
)

func generateAccessToken(claims authJWTClaims) (string, error) {
	t := jwt.New(jwt.SigningMethodHS256)
	t.Claims = claims
	return t.SignedString([]byte(getSecretKey()))
}

func handleIssueSudoToken(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := r.Context().Value(ctxKeyEmail).(string)
		if !ok {
			writeInternalError(l, w, fmt.Errorf("missing context key for form auth email"))
			return
		}
		sc := jwt.StandardClaims{
			ExpiresAt: time.Now().Add(2 * 7 * 24 * time.Hour).Unix(), // 2 weeks
		}
		c := authJWTClaims{
			StandardClaims: sc,
			Email:          email,
			Status:         int(UserStatusSudo),
		}
		token, err := generateAccessToken(c)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to sign token: %w", err))
			return
		}
		writeJSONResponse(w, api.TokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
	}
}

// issueSessionToken mints a short-lived token bound to a wallet session
// subject. Used by the session connect endpoint.
func issueSessionToken(subject string, ttl time.Duration) (string, error) {
	c := authJWTClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
		Email:  subject,
		Status: int(UserStatusDefault),
	}
	return generateAccessToken(c)
}
