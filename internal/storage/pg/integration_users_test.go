package pg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

func TestSaveUser(t *testing.T) {
	id, err := storage.SaveUser(domain.User{
		Email: "save@example.com", Name: "Save", PassHash: "hash", Role: domain.RoleCitizen,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	_, err = storage.SaveUser(domain.User{
		Email: "save@example.com", Name: "Dup", PassHash: "hash", Role: domain.RoleCitizen,
	})
	require.Error(t, err, "duplicate email must be rejected")
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, e.StatusCode)
}

func TestUserByEmail(t *testing.T) {
	created := mustCreateUser(t, domain.RoleCitizen)

	user, err := storage.UserByEmail(created.Email)
	require.NoError(t, err)
	assert.Equal(t, created.Id, user.Id)
	assert.Equal(t, created.Email, user.Email)
	assert.Equal(t, created.PassHash, user.PassHash)
	assert.Equal(t, domain.RoleCitizen, user.Role)

	_, err = storage.UserByEmail("nonexistent@example.com")
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}

func TestUserById(t *testing.T) {
	created := mustCreateUser(t, domain.RoleAdmin)

	user, err := storage.UserById(created.Id)
	require.NoError(t, err)
	assert.Equal(t, created.Email, user.Email)
	assert.Equal(t, domain.RoleAdmin, user.Role)
}

func TestLinkGoogle(t *testing.T) {
	created := mustCreateUser(t, domain.RoleCitizen)

	err := storage.LinkGoogle(created.Id, "google-123", "https://avatar.example.com/a.png")
	require.NoError(t, err)

	user, err := storage.UserById(created.Id)
	require.NoError(t, err)
	assert.Equal(t, "google-123", user.GoogleId)
	assert.Equal(t, "https://avatar.example.com/a.png", user.AvatarURL)

	err = storage.LinkGoogle(999999, "google-456", "")
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}
