package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

const issueColumns = `
    i.id, i.title, i.description, i.category, i.status,
    i.latitude, i.longitude, i.address, i.photo_keys,
    i.author_id, u.name, i.department_id,
    (SELECT count(*) FROM issue_upvotes v WHERE v.issue_id = i.id),
    i.created_at, i.updated_at`

// CreateIssue inserts a new issue and returns its id.
func (s *Storage) CreateIssue(issue domain.Issue) (domain.IssueId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.IssueId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRow(`
            INSERT INTO issues(title, description, category, latitude, longitude, address, photo_keys, author_id)
            VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			issue.Title, issue.Description, issue.Category,
			issue.Latitude, issue.Longitude, issue.Address,
			pq.StringArray(issue.PhotoKeys), issue.AuthorId,
		).Scan(&id)
	})
	if err != nil {
		return -1, fmt.Errorf("failed to insert issue: %w", err)
	}
	return id, nil
}

// Issue fetches a single issue with author name and upvote count.
func (s *Storage) Issue(id domain.IssueId) (domain.Issue, error) {
	return s.issue(s.db, id)
}

// Issues lists issues newest first, narrowed by the filter.
func (s *Storage) Issues(filter domain.IssueFilter) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues i JOIN users u ON u.id = i.author_id`

	var conds []string
	var args []interface{}
	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		addCond("i.status = $%d", filter.Status)
	}
	if filter.Category != "" {
		addCond("i.category = $%d", filter.Category)
	}
	if filter.Department != 0 {
		addCond("i.department_id = $%d", filter.Department)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query += fmt.Sprintf(" ORDER BY i.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// UpdateIssueTriage applies an admin triage decision. Nil fields are left
// unchanged.
func (s *Storage) UpdateIssueTriage(id domain.IssueId, status *domain.IssueStatus, departmentId *domain.DepartmentId) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = now()"}
		var args []interface{}
		if status != nil {
			args = append(args, *status)
			sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
		}
		if departmentId != nil {
			args = append(args, *departmentId)
			sets = append(sets, fmt.Sprintf("department_id = $%d", len(args)))
		}
		args = append(args, id)
		query := fmt.Sprintf("UPDATE issues SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

		result, err := tx.Exec(query, args...)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
				return internal_errors.NotFound("Department not found")
			}
			return fmt.Errorf("failed to update issue: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for issue update: %w", err)
		}
		if rows == 0 {
			return internal_errors.NotFound("Issue not found")
		}
		return nil
	})
}

// DeleteIssue removes an issue; comments and upvotes cascade.
func (s *Storage) DeleteIssue(id domain.IssueId) error {
	ctx, cancel := opCtx()
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec("DELETE FROM issues WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete issue: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for issue deletion: %w", err)
		}
		if rows == 0 {
			return internal_errors.NotFound("Issue not found")
		}
		return nil
	})
}

// ToggleUpvote records or withdraws an upvote and returns the new state and
// total count. The primary key on (issue_id, user_id) makes the toggle safe
// under concurrent requests.
func (s *Storage) ToggleUpvote(issueId domain.IssueId, userId domain.UserId) (bool, int, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var upvoted bool
	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
            INSERT INTO issue_upvotes(issue_id, user_id) VALUES($1, $2)
            ON CONFLICT DO NOTHING`, issueId, userId)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
				return internal_errors.NotFound("Issue not found")
			}
			return fmt.Errorf("failed to insert upvote: %w", err)
		}
		inserted, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check affected rows for upvote: %w", err)
		}
		if inserted == 0 {
			// Already upvoted: toggle off.
			if _, err := tx.Exec("DELETE FROM issue_upvotes WHERE issue_id = $1 AND user_id = $2", issueId, userId); err != nil {
				return fmt.Errorf("failed to delete upvote: %w", err)
			}
			upvoted = false
		} else {
			upvoted = true
		}
		return tx.QueryRow("SELECT count(*) FROM issue_upvotes WHERE issue_id = $1", issueId).Scan(&count)
	})
	return upvoted, count, err
}

// CreateComment inserts a comment on an issue.
func (s *Storage) CreateComment(comment domain.Comment) (domain.CommentId, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var id domain.CommentId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRow(`
            INSERT INTO comments(issue_id, author_id, body) VALUES($1, $2, $3) RETURNING id`,
			comment.IssueId, comment.AuthorId, comment.Body,
		).Scan(&id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
				return internal_errors.NotFound("Issue not found")
			}
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		return nil
	})
	return id, err
}

// CommentsByIssue lists an issue's comments oldest first.
func (s *Storage) CommentsByIssue(issueId domain.IssueId) ([]domain.Comment, error) {
	rows, err := s.db.Query(`
        SELECT c.id, c.issue_id, c.author_id, u.name, c.body, c.created_at
        FROM comments c JOIN users u ON u.id = c.author_id
        WHERE c.issue_id = $1 ORDER BY c.created_at ASC`, issueId)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.Id, &c.IssueId, &c.AuthorId, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Storage) issue(q Querier, id domain.IssueId) (domain.Issue, error) {
	row := q.QueryRow(`SELECT `+issueColumns+` FROM issues i JOIN users u ON u.id = i.author_id WHERE i.id = $1`, id)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Issue{}, internal_errors.NotFound("Issue not found")
		}
		return domain.Issue{}, err
	}
	return issue, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanIssue(row scannable) (domain.Issue, error) {
	var issue domain.Issue
	var departmentId sql.NullInt64
	err := row.Scan(
		&issue.Id, &issue.Title, &issue.Description, &issue.Category, &issue.Status,
		&issue.Latitude, &issue.Longitude, &issue.Address, &issue.PhotoKeys,
		&issue.AuthorId, &issue.AuthorName, &departmentId, &issue.Upvotes,
		&issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Issue{}, err
		}
		return domain.Issue{}, fmt.Errorf("failed to scan issue: %w", err)
	}
	if departmentId.Valid {
		issue.DepartmentId = &departmentId.Int64
	}
	return issue, nil
}
