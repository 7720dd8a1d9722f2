package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/identity"
	applog "fintrack/internal/log"
)

type ownerKey struct{}

// ownerID returns the owner resolved by requireOwner.
func ownerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}

// requireOwner resolves the bearer token to an owner or answers 401.
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.deps.Identity.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, r, applog.OpRead, err)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldOwnerID, owner))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	u, err := s.deps.Identity.SignUp(r.Context(), sanitizeInput(in.Email), in.Password)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	sess, err := s.deps.Identity.Login(r.Context(), sanitizeInput(in.Email), in.Password)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: sess.Token, OwnerID: sess.OwnerID, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, r, applog.OpDelete, identity.ErrUnauthenticated)
		return
	}
	if err := s.deps.Identity.Logout(r.Context(), token); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
