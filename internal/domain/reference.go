package domain

import "time"

// Reference data managed by admins and served read-only to citizens.

type Department struct {
	Id           DepartmentId
	Name         string
	Description  string
	ContactEmail Email
}

type Event struct {
	Id          EventId
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	CreatedAt   time.Time
}

type Announcement struct {
	Id        AnnouncementId
	Title     string
	Body      string // markdown source
	BodyHTML  string // rendered and sanitized, populated at read time
	CreatedAt time.Time
}
