package pg

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

func (s *Storage) CreateEvent(event domain.Event) (domain.EventId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.EventId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow(`
            INSERT INTO events(title, description, location, starts_at)
            VALUES($1, $2, $3, $4) RETURNING id`,
			event.Title, event.Description, event.Location, event.StartsAt,
		).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (s *Storage) Event(id domain.EventId) (domain.Event, error) {
	var event domain.Event
	err := s.db.QueryRow(`
        SELECT id, title, description, location, starts_at, created_at
        FROM events WHERE id = $1`, id,
	).Scan(&event.Id, &event.Title, &event.Description, &event.Location, &event.StartsAt, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, internal_errors.NotFound("Event not found")
		}
		return domain.Event{}, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

// Events lists events soonest first.
func (s *Storage) Events() ([]domain.Event, error) {
	rows, err := s.db.Query(`
        SELECT id, title, description, location, starts_at, created_at
        FROM events ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.Id, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Storage) UpdateEvent(event domain.Event) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE events SET title = $1, description = $2, location = $3, starts_at = $4
            WHERE id = $5`,
			event.Title, event.Description, event.Location, event.StartsAt, event.Id)
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for event update: %w", err)
		}
		if rows == 0 {
			return internal_errors.NotFound("Event not found")
		}
		return nil
	})
}

func (s *Storage) DeleteEvent(id domain.EventId) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM events WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for event deletion: %w", err)
		}
		if rows == 0 {
			return internal_errors.NotFound("Event not found")
		}
		return nil
	})
}

// RotatePastEvents rewrites every past-dated event to a random timestamp
// between minDays and maxDays in the future, returning how many rows moved.
// Randomness lives in SQL so a single statement covers all rows.
func (s *Storage) RotatePastEvents(minDays, maxDays int) (int64, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var moved int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            UPDATE events
            SET starts_at = now() + ($1 + random() * ($2 - $1)) * interval '1 day'
            WHERE starts_at < now()`, minDays, maxDays)
		if err != nil {
			return fmt.Errorf("failed to rotate past events: %w", err)
		}
		moved, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for event rotation: %w", err)
		}
		return nil
	})
	return moved, err
}
