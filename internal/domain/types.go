package domain

import "github.com/lib/pq"

type (
	Email  = string
	UserId = int64

	IssueId        = int64
	CommentId      = int64
	EventId        = int64
	AnnouncementId = int64
	DepartmentId   = int64

	PhotoKeys = pq.StringArray // S3 object keys, stored as text[]
)
