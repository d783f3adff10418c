package domain

import "time"

// IssueCategory classifies what kind of municipal problem is reported.
type IssueCategory string

const (
	CategoryRoads    IssueCategory = "roads"
	CategoryLighting IssueCategory = "lighting"
	CategoryWaste    IssueCategory = "waste"
	CategoryWater    IssueCategory = "water"
	CategoryParks    IssueCategory = "parks"
	CategorySafety   IssueCategory = "safety"
	CategoryOther    IssueCategory = "other"
)

func ValidCategory(c IssueCategory) bool {
	switch c {
	case CategoryRoads, CategoryLighting, CategoryWaste, CategoryWater,
		CategoryParks, CategorySafety, CategoryOther:
		return true
	}
	return false
}

// IssueStatus is the triage state of a reported issue.
type IssueStatus string

const (
	StatusReported   IssueStatus = "reported"
	StatusInReview   IssueStatus = "in_review"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusRejected   IssueStatus = "rejected"
)

func ValidStatus(s IssueStatus) bool {
	switch s {
	case StatusReported, StatusInReview, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type Issue struct {
	Id           IssueId
	Title        string
	Description  string
	Category     IssueCategory
	Status       IssueStatus
	Latitude     float64
	Longitude    float64
	Address      string
	PhotoKeys    PhotoKeys
	AuthorId     UserId
	AuthorName   string // denormalized for list/detail views
	DepartmentId *DepartmentId
	Upvotes      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IssueFilter narrows issue listings. Zero values mean "no filter".
type IssueFilter struct {
	Status     IssueStatus
	Category   IssueCategory
	Department DepartmentId
	Page       int
	PerPage    int
}

type Comment struct {
	Id         CommentId
	IssueId    IssueId
	AuthorId   UserId
	AuthorName string
	Body       string
	CreatedAt  time.Time
}
