package api

import "time"

// Request DTOs shared by handlers

type CreateIssueRequest struct {
	Title       string  `json:"title" validate:"required,min=3,max=200"`
	Description string  `json:"description" validate:"required,min=10,max=5000"`
	Category    string  `json:"category" validate:"required,oneof=roads lighting waste water parks safety other"`
	Latitude    float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" validate:"min=-180,max=180"`
	Address     string  `json:"address,omitempty" validate:"max=300"`
}

type TriageIssueRequest struct {
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=reported in_review in_progress resolved rejected"`
	DepartmentId *int64 `json:"department_id,omitempty"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	Location    string    `json:"location" validate:"max=300"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
}

type CreateAnnouncementRequest struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body" validate:"required,max=20000"`
}

type CreateDepartmentRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Description  string `json:"description" validate:"max=1000"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

// Response DTOs

type IssueResponse struct {
	Id           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Address      string     `json:"address,omitempty"`
	PhotoURLs    []string   `json:"photo_urls,omitempty"`
	AuthorId     int64      `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	DepartmentId *int64     `json:"department_id,omitempty"`
	Upvotes      int        `json:"upvotes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type IssueListResponse struct {
	Issues  []IssueResponse `json:"issues"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

type CommentResponse struct {
	Id         int64     `json:"id"`
	IssueId    int64     `json:"issue_id"`
	AuthorId   int64     `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type IssueDetailResponse struct {
	Issue    IssueResponse     `json:"issue"`
	Comments []CommentResponse `json:"comments"`
}

type UpvoteResponse struct {
	Upvoted bool `json:"upvoted"`
	Count   int  `json:"count"`
}

type EventResponse struct {
	Id          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
}

type AnnouncementResponse struct {
	Id        int64     `json:"id"`
	Title     string    `json:"title"`
	BodyHTML  string    `json:"body_html"`
	CreatedAt time.Time `json:"created_at"`
}

type DepartmentResponse struct {
	Id           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}
