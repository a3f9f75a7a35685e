package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nexusfund/nexusfund/internal/stools"
	"github.com/nexusfund/nexusfund/wallet"
)

const sessionTokenTTL = 24 * time.Hour

type sessionResponse struct {
	Session     *wallet.Session `json:"session"`
	AccessToken string          `json:"access_token,omitempty"`
}

func sessionSubject(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims)
	if !ok || claims == nil || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

func handleConnectSession(l *slog.Logger, mgr *wallet.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := sessionSubject(r)
		if !ok {
			writeUnauthorized(w)
			return
		}

		sess, err := mgr.Connect(r.Context(), subject)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to connect wallet session: %w", err))
			return
		}
		token, err := issueSessionToken(subject, sessionTokenTTL)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to issue session token: %w", err))
			return
		}
		writeJSONResponse(w, sessionResponse{Session: sess, AccessToken: token}, http.StatusOK)
	}
}

func handleDisconnectSession(l *slog.Logger, mgr *wallet.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := sessionSubject(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		if err := mgr.Disconnect(r.Context(), subject); err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to disconnect wallet session: %w", err))
			return
		}
		writeOK(w)
	}
}

func handleGetSession(l *slog.Logger, mgr *wallet.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := sessionSubject(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		sess, err := mgr.Session(r.Context(), subject)
		if err != nil {
			writeNotFoundError(w)
			return
		}
		writeJSONResponse(w, sessionResponse{Session: sess}, http.StatusOK)
	}
}

// LinkWalletRequest attaches a wallet address to the session.
type LinkWalletRequest struct {
	Address string `json:"address"`
}

func handleLinkWallet(l *slog.Logger, mgr *wallet.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := sessionSubject(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		var req LinkWalletRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}
		if req.Address == "" {
			writeBadRequestError(w, fmt.Errorf("address is required"))
			return
		}
		sess, err := mgr.LinkWallet(r.Context(), subject, req.Address)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to link wallet: %w", err))
			return
		}
		writeJSONResponse(w, sessionResponse{Session: sess}, http.StatusOK)
	}
}

// SwitchChainRequest moves the session to another supported chain.
type SwitchChainRequest struct {
	ChainID int64 `json:"chain_id"`
}

func handleSwitchChain(l *slog.Logger, mgr *wallet.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject, ok := sessionSubject(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		var req SwitchChainRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request: %w", err))
			return
		}
		sess, err := mgr.SwitchChain(r.Context(), subject, req.ChainID)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		writeJSONResponse(w, sessionResponse{Session: sess}, http.StatusOK)
	}
}
