package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiport-dev/civiport/internal/config"
	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

// --- Mocks ---

type MockIssueStorage struct {
	CreateIssueFunc       func(issue domain.Issue) (domain.IssueId, error)
	IssueFunc             func(id domain.IssueId) (domain.Issue, error)
	IssuesFunc            func(filter domain.IssueFilter) ([]domain.Issue, error)
	UpdateIssueTriageFunc func(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error
	DeleteIssueFunc       func(id domain.IssueId) error
	ToggleUpvoteFunc      func(issueId domain.IssueId, userId domain.UserId) (bool, int, error)
	CreateCommentFunc     func(comment domain.Comment) (domain.CommentId, error)
	CommentsByIssueFunc   func(issueId domain.IssueId) ([]domain.Comment, error)
}

func (m *MockIssueStorage) CreateIssue(issue domain.Issue) (domain.IssueId, error) {
	if m.CreateIssueFunc != nil {
		return m.CreateIssueFunc(issue)
	}
	return 1, nil
}

func (m *MockIssueStorage) Issue(id domain.IssueId) (domain.Issue, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(id)
	}
	return domain.Issue{Id: id, Status: domain.StatusReported}, nil
}

func (m *MockIssueStorage) Issues(filter domain.IssueFilter) ([]domain.Issue, error) {
	if m.IssuesFunc != nil {
		return m.IssuesFunc(filter)
	}
	return nil, nil
}

func (m *MockIssueStorage) UpdateIssueTriage(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error {
	if m.UpdateIssueTriageFunc != nil {
		return m.UpdateIssueTriageFunc(id, status, departmentId)
	}
	return nil
}

func (m *MockIssueStorage) DeleteIssue(id domain.IssueId) error {
	if m.DeleteIssueFunc != nil {
		return m.DeleteIssueFunc(id)
	}
	return nil
}

func (m *MockIssueStorage) ToggleUpvote(issueId domain.IssueId, userId domain.UserId) (bool, int, error) {
	if m.ToggleUpvoteFunc != nil {
		return m.ToggleUpvoteFunc(issueId, userId)
	}
	return true, 1, nil
}

func (m *MockIssueStorage) CreateComment(comment domain.Comment) (domain.CommentId, error) {
	if m.CreateCommentFunc != nil {
		return m.CreateCommentFunc(comment)
	}
	return 1, nil
}

func (m *MockIssueStorage) CommentsByIssue(issueId domain.IssueId) ([]domain.Comment, error) {
	if m.CommentsByIssueFunc != nil {
		return m.CommentsByIssueFunc(issueId)
	}
	return nil, nil
}

type MockPhotoStorage struct {
	uploads int
	deleted []string
}

func (m *MockPhotoStorage) Upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	m.uploads++
	return fmt.Sprintf("issues/2026/08/30/key-%d", m.uploads), nil
}

func (m *MockPhotoStorage) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func (m *MockPhotoStorage) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func testIssues(storage IssueStorage, photos PhotoStorage) *Issues {
	cfg := &config.Config{}
	cfg.Public.MaxPhotosPerIssue = 2
	cfg.Public.MaxPhotoSizeBytes = 1 << 20
	return NewIssues(storage, photos, cfg)
}

// --- Tests ---

func TestCreateIssueSanitizesText(t *testing.T) {
	var created domain.Issue
	storage := &MockIssueStorage{
		CreateIssueFunc: func(issue domain.Issue) (domain.IssueId, error) {
			created = issue
			return 1, nil
		},
	}
	svc := testIssues(storage, &MockPhotoStorage{})

	_, err := svc.Create(context.Background(), domain.Issue{
		Title:       `Pothole <script>alert("x")</script> on Main St`,
		Description: "Deep pothole near the crosswalk",
		Category:    domain.CategoryRoads,
	}, nil)
	require.NoError(t, err)

	assert.NotContains(t, created.Title, "<script>")
	assert.Contains(t, created.Title, "Pothole")
	assert.Equal(t, domain.StatusReported, created.Status, "new issues always start as reported")
}

func TestCreateIssueUnknownCategory(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	_, err := svc.Create(context.Background(), domain.Issue{Title: "t", Description: "d", Category: "potholes"}, nil)
	var statusErr *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestCreateIssueUploadsPhotos(t *testing.T) {
	var created domain.Issue
	storage := &MockIssueStorage{
		CreateIssueFunc: func(issue domain.Issue) (domain.IssueId, error) {
			created = issue
			return 1, nil
		},
	}
	photos := &MockPhotoStorage{}
	svc := testIssues(storage, photos)

	uploads := []PhotoUpload{
		{Body: strings.NewReader("jpeg-bytes"), ContentType: "image/jpeg", Size: 9},
		{Body: strings.NewReader("png-bytes"), ContentType: "image/png", Size: 9},
	}
	_, err := svc.Create(context.Background(), domain.Issue{
		Title: "Broken lamp", Description: "Street lamp is out", Category: domain.CategoryLighting,
	}, uploads)
	require.NoError(t, err)

	assert.Len(t, created.PhotoKeys, 2)
	assert.Equal(t, 2, photos.uploads)
}

func TestCreateIssueTooManyPhotos(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	uploads := make([]PhotoUpload, 3)
	for i := range uploads {
		uploads[i] = PhotoUpload{Body: strings.NewReader("x"), ContentType: "image/jpeg", Size: 1}
	}
	_, err := svc.Create(context.Background(), domain.Issue{
		Title: "t", Description: "d", Category: domain.CategoryOther,
	}, uploads)
	var statusErr *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestCreateIssueRejectsNonImage(t *testing.T) {
	photos := &MockPhotoStorage{}
	svc := testIssues(&MockIssueStorage{}, photos)

	uploads := []PhotoUpload{
		{Body: strings.NewReader("jpeg"), ContentType: "image/jpeg", Size: 4},
		{Body: strings.NewReader("exe"), ContentType: "application/octet-stream", Size: 3},
	}
	_, err := svc.Create(context.Background(), domain.Issue{
		Title: "t", Description: "d", Category: domain.CategoryOther,
	}, uploads)
	require.Error(t, err)
	assert.Equal(t, photos.deleted, []string{"issues/2026/08/30/key-1"}, "already uploaded photo is cleaned up")
}

func TestCreateIssueStorageFailureCleansUpPhotos(t *testing.T) {
	storage := &MockIssueStorage{
		CreateIssueFunc: func(issue domain.Issue) (domain.IssueId, error) {
			return 0, fmt.Errorf("db down")
		},
	}
	photos := &MockPhotoStorage{}
	svc := testIssues(storage, photos)

	uploads := []PhotoUpload{{Body: strings.NewReader("x"), ContentType: "image/jpeg", Size: 1}}
	_, err := svc.Create(context.Background(), domain.Issue{
		Title: "t", Description: "d", Category: domain.CategoryOther,
	}, uploads)
	require.Error(t, err)
	assert.Len(t, photos.deleted, 1)
}

func TestListIssuesValidatesFilter(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	_, err := svc.List(context.Background(), domain.IssueFilter{Status: "done"})
	require.Error(t, err)

	_, err = svc.List(context.Background(), domain.IssueFilter{Category: "sidewalks"})
	require.Error(t, err)

	_, err = svc.List(context.Background(), domain.IssueFilter{Status: domain.StatusResolved, Category: domain.CategoryParks})
	require.NoError(t, err)
}

func TestTriageRequiresSomeChange(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	err := svc.Triage(1, nil, nil)
	var statusErr *internal_errors.ErrorWithStatusCode
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestTriageUnknownStatus(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	bad := domain.IssueStatus("done")
	err := svc.Triage(1, &bad, nil)
	require.Error(t, err)
}

func TestDeleteIssueRemovesPhotos(t *testing.T) {
	storage := &MockIssueStorage{
		IssueFunc: func(id domain.IssueId) (domain.Issue, error) {
			return domain.Issue{Id: id, PhotoKeys: domain.PhotoKeys{"k1", "k2"}}, nil
		},
	}
	photos := &MockPhotoStorage{}
	svc := testIssues(storage, photos)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, []string{"k1", "k2"}, photos.deleted)
}

func TestAddCommentSanitizesBody(t *testing.T) {
	var created domain.Comment
	storage := &MockIssueStorage{
		CreateCommentFunc: func(comment domain.Comment) (domain.CommentId, error) {
			created = comment
			return 3, nil
		},
		CommentsByIssueFunc: func(issueId domain.IssueId) ([]domain.Comment, error) {
			return []domain.Comment{{Id: 3, IssueId: issueId, Body: created.Body, AuthorName: "Jordan"}}, nil
		},
	}
	svc := testIssues(storage, &MockPhotoStorage{})

	comment, err := svc.AddComment(domain.Comment{IssueId: 1, AuthorId: 2, Body: "<b>agree</b> please fix"})
	require.NoError(t, err)
	assert.NotContains(t, created.Body, "<b>")
	assert.Equal(t, "Jordan", comment.AuthorName)
}

func TestAddCommentEmptyAfterSanitizing(t *testing.T) {
	svc := testIssues(&MockIssueStorage{}, &MockPhotoStorage{})

	_, err := svc.AddComment(domain.Comment{IssueId: 1, Body: "<script>alert(1)</script>"})
	require.Error(t, err)
}
