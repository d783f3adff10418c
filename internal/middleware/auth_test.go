package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/jwt"
)

const testSecret = "test-secret"

func newToken(t *testing.T, role domain.Role, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.New(testSecret, ttl).NewToken(&domain.User{Id: 1, Email: "u@example.com", Role: role})
	require.NoError(t, err)
	return token
}

func protected(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r)
		require.NotNil(t, identity)
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestNeedAuth(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.NeedAuth()(protected(t))

	rr := doRequest(handler, newToken(t, domain.RoleCitizen, time.Hour))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNeedAuthMissingToken(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.NeedAuth()(protected(t))

	rr := doRequest(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid credentials")
}

func TestNeedAuthExpiredToken(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.NeedAuth()(protected(t))

	rr := doRequest(handler, newToken(t, domain.RoleCitizen, -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNeedAuthWrongSecret(t *testing.T) {
	otherToken, err := jwt.New("other-secret", time.Hour).NewToken(&domain.User{Id: 1, Email: "u@example.com", Role: domain.RoleCitizen})
	require.NoError(t, err)

	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.NeedAuth()(protected(t))

	rr := doRequest(handler, otherToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminOnly(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.AdminOnly()(protected(t))

	rr := doRequest(handler, newToken(t, domain.RoleAdmin, time.Hour))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminOnlyRejectsCitizen(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))
	handler := mw.AdminOnly()(protected(t))

	rr := doRequest(handler, newToken(t, domain.RoleCitizen, time.Hour))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestOptionalAuth(t *testing.T) {
	mw := NewAuth(jwt.New(testSecret, time.Hour))

	var identity *jwt.Identity
	handler := mw.OptionalAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = IdentityFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	rr := doRequest(handler, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, identity)

	rr = doRequest(handler, newToken(t, domain.RoleCitizen, time.Hour))
	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, identity)
	assert.Equal(t, int64(1), identity.Id)
}
