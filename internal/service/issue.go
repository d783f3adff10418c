package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/civiport-dev/civiport/internal/config"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
	"github.com/civiport-dev/civiport/internal/logger"
)

type IssueService interface {
	Create(ctx context.Context, issue domain.Issue, photos []PhotoUpload) (domain.Issue, error)
	Get(ctx context.Context, id domain.IssueId) (domain.Issue, []domain.Comment, error)
	List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	Triage(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error
	Delete(ctx context.Context, id domain.IssueId) error
	ToggleUpvote(issueId domain.IssueId, userId domain.UserId) (bool, int, error)
	AddComment(comment domain.Comment) (domain.Comment, error)
	PhotoURLs(ctx context.Context, keys domain.PhotoKeys) []string
}

type IssueStorage interface {
	CreateIssue(issue domain.Issue) (domain.IssueId, error)
	Issue(id domain.IssueId) (domain.Issue, error)
	Issues(filter domain.IssueFilter) ([]domain.Issue, error)
	UpdateIssueTriage(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error
	DeleteIssue(id domain.IssueId) error
	ToggleUpvote(issueId domain.IssueId, userId domain.UserId) (bool, int, error)
	CreateComment(comment domain.Comment) (domain.CommentId, error)
	CommentsByIssue(issueId domain.IssueId) ([]domain.Comment, error)
}

type PhotoStorage interface {
	Upload(ctx context.Context, body io.Reader, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// PhotoUpload is a single multipart photo handed over by the handler.
type PhotoUpload struct {
	Body        io.Reader
	ContentType string
	Size        int64
}

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type Issues struct {
	storage   IssueStorage
	photos    PhotoStorage
	sanitizer *bluemonday.Policy
	maxPhotos int
	maxSize   int64
}

func NewIssues(storage IssueStorage, photos PhotoStorage, cfg *config.Config) *Issues {
	return &Issues{
		storage:   storage,
		photos:    photos,
		sanitizer: bluemonday.StrictPolicy(),
		maxPhotos: cfg.Public.MaxPhotosPerIssue,
		maxSize:   cfg.Public.MaxPhotoSizeBytes,
	}
}

func (s *Issues) Create(ctx context.Context, issue domain.Issue, photos []PhotoUpload) (domain.Issue, error) {
	if len(photos) > s.maxPhotos {
		return domain.Issue{}, errors.BadRequest(fmt.Sprintf("At most %d photos per issue", s.maxPhotos))
	}

	issue.Title = s.clean(issue.Title)
	issue.Description = s.clean(issue.Description)
	issue.Address = s.clean(issue.Address)
	issue.Status = domain.StatusReported
	if !domain.ValidCategory(issue.Category) {
		return domain.Issue{}, errors.BadRequest("Unknown category")
	}

	keys, err := s.uploadPhotos(ctx, photos)
	if err != nil {
		s.removePhotos(ctx, keys)
		return domain.Issue{}, err
	}
	issue.PhotoKeys = keys

	id, err := s.storage.CreateIssue(issue)
	if err != nil {
		s.removePhotos(ctx, keys)
		return domain.Issue{}, err
	}
	return s.storage.Issue(id)
}

func (s *Issues) uploadPhotos(ctx context.Context, photos []PhotoUpload) (domain.PhotoKeys, error) {
	keys := make(domain.PhotoKeys, 0, len(photos))
	for _, photo := range photos {
		if !allowedPhotoTypes[photo.ContentType] {
			return keys, errors.BadRequest("Unsupported photo type: " + photo.ContentType)
		}
		if photo.Size > s.maxSize {
			return keys, errors.BadRequest(fmt.Sprintf("Photo exceeds %d bytes", s.maxSize))
		}
		key, err := s.photos.Upload(ctx, io.LimitReader(photo.Body, s.maxSize), photo.ContentType)
		if err != nil {
			return keys, fmt.Errorf("failed to store photo: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Issues) removePhotos(ctx context.Context, keys domain.PhotoKeys) {
	for _, key := range keys {
		if err := s.photos.Delete(ctx, key); err != nil {
			logger.Log.Warn("failed to remove orphaned photo", "key", key, "error", err)
		}
	}
}

func (s *Issues) Get(ctx context.Context, id domain.IssueId) (domain.Issue, []domain.Comment, error) {
	issue, err := s.storage.Issue(id)
	if err != nil {
		return domain.Issue{}, nil, err
	}
	comments, err := s.storage.CommentsByIssue(id)
	if err != nil {
		return domain.Issue{}, nil, err
	}
	return issue, comments, nil
}

func (s *Issues) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, errors.BadRequest("Unknown status")
	}
	if filter.Category != "" && !domain.ValidCategory(filter.Category) {
		return nil, errors.BadRequest("Unknown category")
	}
	return s.storage.Issues(filter)
}

func (s *Issues) Triage(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error {
	if status == nil && departmentId == nil {
		return errors.BadRequest("Nothing to update")
	}
	if status != nil && !domain.ValidStatus(*status) {
		return errors.BadRequest("Unknown status")
	}
	return s.storage.UpdateIssueTriage(id, status, departmentId)
}

func (s *Issues) Delete(ctx context.Context, id domain.IssueId) error {
	issue, err := s.storage.Issue(id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteIssue(id); err != nil {
		return err
	}
	// Photos are removed best-effort: the row is already gone.
	s.removePhotos(ctx, issue.PhotoKeys)
	return nil
}

func (s *Issues) ToggleUpvote(issueId domain.IssueId, userId domain.UserId) (bool, int, error) {
	return s.storage.ToggleUpvote(issueId, userId)
}

func (s *Issues) AddComment(comment domain.Comment) (domain.Comment, error) {
	comment.Body = s.clean(comment.Body)
	if comment.Body == "" {
		return domain.Comment{}, errors.BadRequest("Comment body is empty")
	}
	id, err := s.storage.CreateComment(comment)
	if err != nil {
		return domain.Comment{}, err
	}
	comments, err := s.storage.CommentsByIssue(comment.IssueId)
	if err != nil {
		return domain.Comment{}, err
	}
	for _, c := range comments {
		if c.Id == id {
			return c, nil
		}
	}
	comment.Id = id
	return comment, nil
}

// PhotoURLs presigns every stored key. A key that fails to presign is
// skipped so one bad object does not hide the rest of the issue.
func (s *Issues) PhotoURLs(ctx context.Context, keys domain.PhotoKeys) []string {
	if len(keys) == 0 {
		return nil
	}
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := s.photos.PresignGet(ctx, key)
		if err != nil {
			logger.Log.Warn("failed to presign photo", "key", key, "error", err)
			continue
		}
		urls = append(urls, url)
	}
	return urls
}

func (s *Issues) clean(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}
