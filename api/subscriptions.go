package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hivecraft/portal/types"
)

// handleCreateSubscription is the one unauthenticated write: the interest
// form on the marketing site.
func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	in := types.Subscription{}
	if !decodeBody(w, r, &in) {
		return
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	in.Id = uuid.NewString()
	in.CreatedAt = time.Now()
	if err := s.persister.StoreSubscription(in); err != nil {
		writeStoreError(w, err)
		return
	}
	s.mailer.SendSubscriptionConfirmation(&in)
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.persister.GetUsers()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleSetRole changes a member's role and invalidates the role cache, so
// the change applies to requests still carrying an older session token.
func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	in := struct {
		Role string `json:"role"`
	}{}
	if !decodeBody(w, r, &in) {
		return
	}
	if !types.ValidRole(in.Role) {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	user := types.User{Id: mux.Vars(r)["id"]}
	if err := s.persister.GetUser(&user); err != nil {
		writeStoreError(w, err)
		return
	}
	user.Role = in.Role
	user.UpdatedAt = time.Now()
	if err := s.persister.StoreUser(user); err != nil {
		writeStoreError(w, err)
		return
	}
	s.roles.Invalidate(user.Id)
	writeJSON(w, http.StatusOK, user)
}
