package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/civiport-dev/civiport/internal/api"
	"github.com/civiport-dev/civiport/internal/domain"
	"github.com/civiport-dev/civiport/internal/errors"
)

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("Invalid " + name)
	}
	return id, nil
}

func userResponse(user domain.User) api.UserResponse {
	return api.UserResponse{
		Id:        user.Id,
		Email:     string(user.Email),
		Name:      user.Name,
		Role:      string(user.Role),
		AvatarURL: user.AvatarURL,
	}
}

func issueResponse(issue domain.Issue, photoURLs []string) api.IssueResponse {
	return api.IssueResponse{
		Id:           issue.Id,
		Title:        issue.Title,
		Description:  issue.Description,
		Category:     string(issue.Category),
		Status:       string(issue.Status),
		Latitude:     issue.Latitude,
		Longitude:    issue.Longitude,
		Address:      issue.Address,
		PhotoURLs:    photoURLs,
		AuthorId:     issue.AuthorId,
		AuthorName:   issue.AuthorName,
		DepartmentId: issue.DepartmentId,
		Upvotes:      issue.Upvotes,
		CreatedAt:    issue.CreatedAt,
		UpdatedAt:    issue.UpdatedAt,
	}
}

func commentResponse(c domain.Comment) api.CommentResponse {
	return api.CommentResponse{
		Id:         c.Id,
		IssueId:    c.IssueId,
		AuthorId:   c.AuthorId,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		CreatedAt:  c.CreatedAt,
	}
}

func eventResponse(e domain.Event) api.EventResponse {
	return api.EventResponse{
		Id:          e.Id,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
	}
}

func announcementResponse(a domain.Announcement) api.AnnouncementResponse {
	return api.AnnouncementResponse{
		Id:        a.Id,
		Title:     a.Title,
		BodyHTML:  a.BodyHTML,
		CreatedAt: a.CreatedAt,
	}
}

func departmentResponse(d domain.Department) api.DepartmentResponse {
	return api.DepartmentResponse{
		Id:           d.Id,
		Name:         d.Name,
		Description:  d.Description,
		ContactEmail: string(d.ContactEmail),
	}
}
