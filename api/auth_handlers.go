package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hivecraft/portal/auth"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
)

type sessionResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.cfg.AuthConfig.SessionTTL()),
	})
}

func (s *Server) issueSession(w http.ResponseWriter, user *types.User) {
	token, err := auth.IssueSessionToken(s.cfg, user.Id, user.Role, user.Name)
	if err != nil {
		globals.AppLogger.Error("could not issue session token", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: *user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	in := struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || len(in.Password) < 8 {
		writeError(w, http.StatusBadRequest, "email and a password of at least 8 characters are required")
		return
	}
	if _, err := s.persister.GetUserByEmail(in.Email); err == nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}
	user := types.User{
		Id:           uuid.NewString(),
		Email:        in.Email,
		Name:         in.Name,
		Role:         types.RoleClient,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if user.Id == s.cfg.AdminUser || user.Email == s.cfg.AdminUser {
		user.Role = types.RoleAdmin
	}
	if err := s.persister.StoreUser(user); err != nil {
		writeStoreError(w, err)
		return
	}
	s.mailer.SendWelcome(&user)
	s.issueSession(w, &user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	user, err := s.persister.GetUserByEmail(strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil || !auth.CheckPassword(user.PasswordHash, in.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.issueSession(w, user)
}

// handleOIDCLogin exchanges a verified OIDC ID token for a portal session.
// The account must already exist, OIDC is a login method, not a signup path.
func (s *Server) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	in := struct {
		IdToken  string `json:"id_token"`
		Provider string `json:"provider"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	email, err := auth.Authenticate(r.Context(), in.IdToken, in.Provider, s.cfg)
	if err != nil || email == "" {
		writeError(w, http.StatusUnauthorized, "token verification failed")
		return
	}
	user, err := s.persister.GetUserByEmail(strings.ToLower(email))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no account for this identity")
		return
	}
	s.issueSession(w, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	user := types.User{Id: identity.Id}
	if err := s.persister.GetUser(&user); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
