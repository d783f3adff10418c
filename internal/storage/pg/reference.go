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

// Announcements

func (s *Storage) CreateAnnouncement(a domain.Announcement) (domain.AnnouncementId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.AnnouncementId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow(
			"INSERT INTO announcements(title, body) VALUES($1, $2) RETURNING id",
			a.Title, a.Body,
		).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("failed to insert announcement: %w", err)
	}
	return id, nil
}

func (s *Storage) Announcement(id domain.AnnouncementId) (domain.Announcement, error) {
	var a domain.Announcement
	err := s.db.QueryRow(
		"SELECT id, title, body, created_at FROM announcements WHERE id = $1", id,
	).Scan(&a.Id, &a.Title, &a.Body, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Announcement{}, internal_errors.NotFound("Announcement not found")
		}
		return domain.Announcement{}, fmt.Errorf("failed to query announcement: %w", err)
	}
	return a, nil
}

func (s *Storage) Announcements() ([]domain.Announcement, error) {
	rows, err := s.db.Query("SELECT id, title, body, created_at FROM announcements ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var announcements []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.Id, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func (s *Storage) UpdateAnnouncement(a domain.Announcement) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("UPDATE announcements SET title = $1, body = $2 WHERE id = $3", a.Title, a.Body, a.Id)
		if err != nil {
			return fmt.Errorf("failed to update announcement: %w", err)
		}
		return requireRow(result, "Announcement not found")
	})
}

func (s *Storage) DeleteAnnouncement(id domain.AnnouncementId) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM announcements WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete announcement: %w", err)
		}
		return requireRow(result, "Announcement not found")
	})
}

// Departments

func (s *Storage) CreateDepartment(d domain.Department) (domain.DepartmentId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.DepartmentId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(
			"INSERT INTO departments(name, description, contact_email) VALUES($1, $2, $3) RETURNING id",
			d.Name, d.Description, d.ContactEmail,
		).Scan(&id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return &internal_errors.ErrorWithStatusCode{Message: "Department already exists", StatusCode: http.StatusConflict}
			}
			return fmt.Errorf("failed to insert department: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *Storage) Department(id domain.DepartmentId) (domain.Department, error) {
	var d domain.Department
	err := s.db.QueryRow(
		"SELECT id, name, description, contact_email FROM departments WHERE id = $1", id,
	).Scan(&d.Id, &d.Name, &d.Description, &d.ContactEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Department{}, internal_errors.NotFound("Department not found")
		}
		return domain.Department{}, fmt.Errorf("failed to query department: %w", err)
	}
	return d, nil
}

func (s *Storage) Departments() ([]domain.Department, error) {
	rows, err := s.db.Query("SELECT id, name, description, contact_email FROM departments ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.Id, &d.Name, &d.Description, &d.ContactEmail); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *Storage) UpdateDepartment(d domain.Department) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			"UPDATE departments SET name = $1, description = $2, contact_email = $3 WHERE id = $4",
			d.Name, d.Description, d.ContactEmail, d.Id)
		if err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}
		return requireRow(result, "Department not found")
	})
}

// DeleteDepartment removes a department; issues referencing it fall back to
// unassigned via ON DELETE SET NULL.
func (s *Storage) DeleteDepartment(id domain.DepartmentId) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM departments WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return requireRow(result, "Department not found")
	})
}

func requireRow(result sql.Result, notFoundMsg string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return internal_errors.NotFound(notFoundMsg)
	}
	return nil
}
