package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/jwt"
	"github.com/civiport-dev/civiport/internal/utils"
)

type key int

const identityKey key = 0

// Auth holds dependencies for the authentication middleware.
type Auth struct {
	tokens jwt.TokenService
}

func NewAuth(tokens jwt.TokenService) *Auth {
	return &Auth{tokens: tokens}
}

// NeedAuth requires a valid bearer token.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return a.auth(false)
}

// AdminOnly requires a valid bearer token carrying the admin role.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return a.auth(true)
}

// OptionalAuth populates the identity when a valid token is present but
// lets anonymous requests through.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := a.extractIdentity(r); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) auth(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := a.extractIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if adminOnly && identity.Role != domain.RoleAdmin {
				utils.WriteErrorAndStatusCode(w, errors.New("Admin access required", http.StatusForbidden))
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Auth) extractIdentity(r *http.Request) (*jwt.Identity, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return nil, errors.Unauthorized()
	}
	identity, err := a.tokens.DecodeToken(token)
	if err != nil {
		return nil, errors.Unauthorized()
	}
	return identity, nil
}

// IdentityFromContext retrieves the authenticated identity, nil when absent.
func IdentityFromContext(r *http.Request) *jwt.Identity {
	identity, ok := r.Context().Value(identityKey).(*jwt.Identity)
	if !ok {
		return nil
	}
	return identity
}
