package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/hivecraft/portal/auth"
	"github.com/hivecraft/portal/globals"
	"github.com/hivecraft/portal/types"
)

const sessionCookieName = "portal_session"

type contextKey int

const identityKey contextKey = iota

// Identity is the authenticated caller of a request.
type Identity struct {
	Id   string
	Name string
	Role string
}

func (id *Identity) IsStaff() bool {
	return types.IsStaffRole(id.Role)
}

func identityFrom(r *http.Request) *Identity {
	id, _ := r.Context().Value(identityKey).(*Identity)
	return id
}

func (s *Server) sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth resolves the session token into an Identity. The role is read
// through the role cache so a role change takes effect before the session
// token expires.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		claims, err := auth.VerifySessionToken(s.cfg, token)
		if err != nil {
			globals.AppLogger.Debug("rejected session token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid session")
			return
		}
		identity := &Identity{Id: claims.Subject, Name: claims.Name, Role: claims.Role}
		if role, err := s.roles.Role(claims.Subject); err == nil {
			identity.Role = role
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next(w, r.WithContext(ctx))
	}
}

// requireStaff admits any staff role.
func (s *Server) requireStaff(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !identityFrom(r).IsStaff() {
			writeError(w, http.StatusForbidden, "staff only")
			return
		}
		next(w, r)
	})
}

// requireRole admits only the listed roles.
func (s *Server) requireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		identity := identityFrom(r)
		for _, role := range roles {
			if identity.Role == role {
				next(w, r)
				return
			}
		}
		writeError(w, http.StatusForbidden, "insufficient role")
	})
}
