package service

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/logger"
)

type AuthService interface {
	Register(email, password, name string, role domain.Role) (domain.User, error)
	Login(email, password string) (string, domain.User, error)
}

type AuthStorage interface {
	SaveUser(user domain.User) (domain.UserId, error)
	UserByEmail(email domain.Email) (domain.User, error)
}

type Tokens interface {
	NewToken(user *domain.User) (string, error)
}

// Notifier dispatches the post-registration welcome message. Implementations
// must never block or fail the caller.
type Notifier interface {
	Welcome(email, name string)
}

type Auth struct {
	storage  AuthStorage
	tokens   Tokens
	notifier Notifier

	// allowPlaintext enables the legacy dev-mode password fallback for
	// unmigrated seed accounts. Must be false in production.
	allowPlaintext bool
}

func NewAuth(storage AuthStorage, tokens Tokens, notifier Notifier, allowPlaintext bool) *Auth {
	return &Auth{storage: storage, tokens: tokens, notifier: notifier, allowPlaintext: allowPlaintext}
}

// Register creates a new account and fires the welcome notification.
// Emails are lowercased before hitting storage so the uniqueness constraint
// sees one canonical form.
func (a *Auth) Register(email, password, name string, role domain.Role) (domain.User, error) {
	email = strings.ToLower(email)
	if role == "" {
		role = domain.RoleCitizen
	}
	if !domain.ValidRole(role) {
		return domain.User{}, errors.BadRequest("role must be one of: citizen admin")
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("failed to hash password", "error", err)
		return domain.User{}, err
	}

	user := domain.User{Email: email, Name: name, PassHash: string(passHash), Role: role}
	id, err := a.storage.SaveUser(user)
	if err != nil {
		if errors.IsConflict(err) {
			// Duplicate email. Kept generic so registration can't be used to
			// probe which addresses have accounts.
			return domain.User{}, &errors.ErrorWithStatusCode{Message: "Could not create account", StatusCode: http.StatusInternalServerError}
		}
		return domain.User{}, err
	}
	user.Id = id

	// Fire-and-forget; delivery problems never surface here.
	a.notifier.Welcome(user.Email, user.Name)

	return user, nil
}

// Login verifies credentials and returns a fresh token alongside the account.
// Every failure mode maps to the same 401 response.
func (a *Auth) Login(email, password string) (string, domain.User, error) {
	email = strings.ToLower(email)

	user, err := a.storage.UserByEmail(email)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", domain.User{}, errors.Unauthorized()
		}
		return "", domain.User{}, err
	}

	if err := a.verifyPassword(user, password); err != nil {
		return "", domain.User{}, err
	}

	token, err := a.tokens.NewToken(&user)
	if err != nil {
		logger.Log.Error("failed to create token", "user_id", user.Id, "error", err)
		return "", domain.User{}, err
	}

	return token, user, nil
}

// verifyPassword checks the submitted secret against the stored hash.
// OAuth-only accounts (empty hash) reject just like a wrong password.
func (a *Auth) verifyPassword(user domain.User, password string) error {
	if user.PassHash == "" {
		return errors.Unauthorized()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err == nil {
		return nil
	}

	// Legacy fallback for unmigrated seed accounts, development only.
	if a.allowPlaintext && subtle.ConstantTimeCompare([]byte(user.PassHash), []byte(password)) == 1 {
		logger.Log.Warn("plaintext password fallback exercised", "user_id", user.Id)
		return nil
	}

	return errors.Unauthorized()
}
