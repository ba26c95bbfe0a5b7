package httpapi

import (
	"crypto/rand"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/voxcal/voxcal/internal/repository"
	"github.com/voxcal/voxcal/internal/secrets"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
	sessionTTL      = 7 * 24 * time.Hour
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := newToken()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.authenticator.AuthorizationURL(state), http.StatusTemporaryRedirect)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "oauth state mismatch")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	identity, err := s.authenticator.ExchangeCode(r.Context(), code)
	if err != nil {
		s.logger.Error("oauth code exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	user, err := s.repo.UpsertUserByEmail(r.Context(), identity.Email)
	if err != nil {
		s.logger.Error("user upsert failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store user")
		return
	}

	sealed, err := secrets.Seal(s.cfg.SecretKey, identity.TokenJSON)
	if err != nil {
		s.logger.Error("token seal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}
	if err := s.repo.SaveUserToken(r.Context(), user.ID, sealed); err != nil {
		s.logger.Error("token save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	token := newToken()
	err = s.repo.CreateAuthSession(r.Context(), repository.AuthSession{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(sessionTTL),
	})
	if err != nil {
		s.logger.Error("auth session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Info("user logged in", "email", identity.Email)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.repo.DeleteAuthSession(r.Context(), cookie.Value); err != nil {
			s.logger.Warn("auth session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		// Logged in and calendar-connected are the same thing here: the
		// only way to log in is the Google consent flow that grants it.
		"authenticated": user.TokenSealed != "",
		"email":         user.Email,
	})
}

func newToken() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
