package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

const uniqueViolation = pq.ErrorCode("23505")

// SaveUser inserts a new user record. A duplicate email surfaces as a
// conflict so the caller can decide between failing and re-fetching.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

// UserByEmail fetches a user by their (lowercased) email.
func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.userBy(s.db, "email = $1", email)
}

// UserById fetches a user by primary key.
func (s *Storage) UserById(id domain.UserId) (domain.User, error) {
	return s.userBy(s.db, "id = $1", id)
}

// LinkGoogle attaches a Google identity and avatar to an existing account.
func (s *Storage) LinkGoogle(id domain.UserId, googleId, avatarURL string) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE users SET google_id = $1, avatar_url = $2 WHERE id = $3",
			googleId, avatarURL, id)
		if err != nil {
			return fmt.Errorf("failed to link google identity: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for google link: %w", err)
		}
		if rows == 0 {
			return internal_errors.NotFound("User not found")
		}
		return nil
	})
}

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRow(`
        INSERT INTO users(email, name, password_hash, role, google_id, avatar_url)
        VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Email, user.Name, user.PassHash, user.Role, user.GoogleId, user.AvatarURL,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return -1, &internal_errors.ErrorWithStatusCode{Message: "Email already registered", StatusCode: http.StatusConflict}
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) userBy(q Querier, where string, arg interface{}) (domain.User, error) {
	var user domain.User
	err := q.QueryRow(`
        SELECT id, email, name, password_hash, role, google_id, avatar_url, created_at
        FROM users WHERE `+where, arg,
	).Scan(&user.Id, &user.Email, &user.Name, &user.PassHash, &user.Role,
		&user.GoogleId, &user.AvatarURL, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}
