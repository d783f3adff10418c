package service

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/civiport-dev/civiport/internal/domain"
)

type AnnouncementService interface {
	Create(a domain.Announcement) (domain.Announcement, error)
	Get(id domain.AnnouncementId) (domain.Announcement, error)
	List() ([]domain.Announcement, error)
	Update(a domain.Announcement) (domain.Announcement, error)
	Delete(id domain.AnnouncementId) error
}

type AnnouncementStorage interface {
	CreateAnnouncement(a domain.Announcement) (domain.AnnouncementId, error)
	Announcement(id domain.AnnouncementId) (domain.Announcement, error)
	Announcements() ([]domain.Announcement, error)
	UpdateAnnouncement(a domain.Announcement) error
	DeleteAnnouncement(id domain.AnnouncementId) error
}

// Announcements stores markdown and renders sanitized HTML on every read,
// so a policy change applies to old posts without a backfill.
type Announcements struct {
	storage   AnnouncementStorage
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

func NewAnnouncements(storage AnnouncementStorage) *Announcements {
	return &Announcements{
		storage:   storage,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

func (s *Announcements) Create(a domain.Announcement) (domain.Announcement, error) {
	id, err := s.storage.CreateAnnouncement(a)
	if err != nil {
		return domain.Announcement{}, err
	}
	return s.Get(id)
}

func (s *Announcements) Get(id domain.AnnouncementId) (domain.Announcement, error) {
	a, err := s.storage.Announcement(id)
	if err != nil {
		return domain.Announcement{}, err
	}
	if err := s.render(&a); err != nil {
		return domain.Announcement{}, err
	}
	return a, nil
}

func (s *Announcements) List() ([]domain.Announcement, error) {
	list, err := s.storage.Announcements()
	if err != nil {
		return nil, err
	}
	for i := range list {
		if err := s.render(&list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Announcements) Update(a domain.Announcement) (domain.Announcement, error) {
	if err := s.storage.UpdateAnnouncement(a); err != nil {
		return domain.Announcement{}, err
	}
	return s.Get(a.Id)
}

func (s *Announcements) Delete(id domain.AnnouncementId) error {
	return s.storage.DeleteAnnouncement(id)
}

func (s *Announcements) render(a *domain.Announcement) error {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(a.Body), &buf); err != nil {
		return fmt.Errorf("failed to render announcement %d: %w", a.Id, err)
	}
	a.BodyHTML = string(s.sanitizer.SanitizeBytes(buf.Bytes()))
	return nil
}
