package service

import (
	"context"
	"time"

	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/logger"
)

// Past events are pushed 1 to 30 days into the future so the public
// calendar never shows stale entries.
const (
	rotateMinDays = 1
	rotateMaxDays = 30
)

type EventService interface {
	Create(event domain.Event) (domain.Event, error)
	Get(id domain.EventId) (domain.Event, error)
	List() ([]domain.Event, error)
	Update(event domain.Event) (domain.Event, error)
	Delete(id domain.EventId) error
}

type EventStorage interface {
	CreateEvent(event domain.Event) (domain.EventId, error)
	Event(id domain.EventId) (domain.Event, error)
	Events() ([]domain.Event, error)
	UpdateEvent(event domain.Event) error
	DeleteEvent(id domain.EventId) error
	RotatePastEvents(minDays, maxDays int) (int64, error)
}

type Events struct {
	storage EventStorage
}

func NewEvents(storage EventStorage) *Events {
	return &Events{storage: storage}
}

func (s *Events) Create(event domain.Event) (domain.Event, error) {
	if event.StartsAt.IsZero() {
		return domain.Event{}, errors.BadRequest("Event start time is required")
	}
	id, err := s.storage.CreateEvent(event)
	if err != nil {
		return domain.Event{}, err
	}
	return s.storage.Event(id)
}

func (s *Events) Get(id domain.EventId) (domain.Event, error) {
	return s.storage.Event(id)
}

func (s *Events) List() ([]domain.Event, error) {
	return s.storage.Events()
}

func (s *Events) Update(event domain.Event) (domain.Event, error) {
	if event.StartsAt.IsZero() {
		return domain.Event{}, errors.BadRequest("Event start time is required")
	}
	if err := s.storage.UpdateEvent(event); err != nil {
		return domain.Event{}, err
	}
	return s.storage.Event(event.Id)
}

func (s *Events) Delete(id domain.EventId) error {
	return s.storage.DeleteEvent(id)
}

// RunRotation moves past events to a random future date on every tick
// until the context is cancelled. One pass runs immediately on start.
func (s *Events) RunRotation(ctx context.Context, interval time.Duration) {
	logger.Log.Info("event rotation started", "interval", interval)
	s.rotateOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("event rotation stopped")
			return
		case <-ticker.C:
			s.rotateOnce()
		}
	}
}

func (s *Events) rotateOnce() {
	moved, err := s.storage.RotatePastEvents(rotateMinDays, rotateMaxDays)
	if err != nil {
		logger.Log.Error("event rotation pass failed", "error", err)
		return
	}
	if moved > 0 {
		logger.Log.Info("rescheduled past events", "count", moved)
	}
}
