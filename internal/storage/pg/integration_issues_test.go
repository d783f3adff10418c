package pg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

func TestCreateAndGetIssue(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)

	id, err := storage.CreateIssue(domain.Issue{
		Title:       "Flickering street light",
		Description: "Light on the corner flickers all night",
		Category:    domain.CategoryLighting,
		Latitude:    40.7,
		Longitude:   -74.0,
		PhotoKeys:   domain.PhotoKeys{"issues/2026/08/30/abc"},
		AuthorId:    author.Id,
	})
	require.NoError(t, err)

	issue, err := storage.Issue(id)
	require.NoError(t, err)
	assert.Equal(t, "Flickering street light", issue.Title)
	assert.Equal(t, domain.StatusReported, issue.Status, "status defaults to reported")
	assert.Equal(t, author.Name, issue.AuthorName, "author name is joined in")
	assert.Equal(t, domain.PhotoKeys{"issues/2026/08/30/abc"}, issue.PhotoKeys)
	assert.Nil(t, issue.DepartmentId)
	assert.Zero(t, issue.Upvotes)
	assert.False(t, issue.CreatedAt.IsZero())

	_, err = storage.Issue(999999)
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}

func TestIssuesFilter(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)

	waterId, err := storage.CreateIssue(domain.Issue{
		Title: "Burst pipe", Description: "Water everywhere", Category: domain.CategoryWater, AuthorId: author.Id,
	})
	require.NoError(t, err)
	_, err = storage.CreateIssue(domain.Issue{
		Title: "Overflowing bin", Description: "Bin not collected", Category: domain.CategoryWaste, AuthorId: author.Id,
	})
	require.NoError(t, err)

	resolved := domain.StatusResolved
	require.NoError(t, storage.UpdateIssueTriage(waterId, &resolved, nil))

	issues, err := storage.Issues(domain.IssueFilter{Category: domain.CategoryWater})
	require.NoError(t, err)
	for _, issue := range issues {
		assert.Equal(t, domain.CategoryWater, issue.Category)
	}

	issues, err = storage.Issues(domain.IssueFilter{Status: domain.StatusResolved, Category: domain.CategoryWater})
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, waterId, issues[0].Id)
}

func TestIssuesPagination(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)
	for i := 0; i < 3; i++ {
		_, err := storage.CreateIssue(domain.Issue{
			Title: "Paging issue", Description: "One of several", Category: domain.CategoryParks, AuthorId: author.Id,
		})
		require.NoError(t, err)
	}

	page1, err := storage.Issues(domain.IssueFilter{Category: domain.CategoryParks, Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := storage.Issues(domain.IssueFilter{Category: domain.CategoryParks, Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.NotEmpty(t, page2)
	assert.NotEqual(t, page1[0].Id, page2[0].Id)
}

func TestUpdateIssueTriage(t *testing.T) {
	admin := mustCreateUser(t, domain.RoleAdmin)
	issue := mustCreateIssue(t, admin)

	depId, err := storage.CreateDepartment(domain.Department{Name: "Roads Dept " + string(admin.Email)})
	require.NoError(t, err)

	status := domain.StatusInProgress
	require.NoError(t, storage.UpdateIssueTriage(issue.Id, &status, &depId))

	updated, err := storage.Issue(issue.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	require.NotNil(t, updated.DepartmentId)
	assert.Equal(t, depId, *updated.DepartmentId)
	assert.True(t, updated.UpdatedAt.After(issue.UpdatedAt) || updated.UpdatedAt.Equal(issue.UpdatedAt))

	// Unknown department
	badDep := int64(999999)
	err = storage.UpdateIssueTriage(issue.Id, nil, &badDep)
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)

	// Unknown issue
	err = storage.UpdateIssueTriage(999999, &status, nil)
	require.Error(t, err)
}

func TestDeleteIssueCascades(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)
	issue := mustCreateIssue(t, author)

	_, err := storage.CreateComment(domain.Comment{IssueId: issue.Id, AuthorId: author.Id, Body: "me too"})
	require.NoError(t, err)
	_, _, err = storage.ToggleUpvote(issue.Id, author.Id)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteIssue(issue.Id))

	_, err = storage.Issue(issue.Id)
	require.Error(t, err)

	comments, err := storage.CommentsByIssue(issue.Id)
	require.NoError(t, err)
	assert.Empty(t, comments)

	err = storage.DeleteIssue(issue.Id)
	require.Error(t, err, "second delete finds nothing")
}

func TestToggleUpvote(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)
	voter := mustCreateUser(t, domain.RoleCitizen)
	issue := mustCreateIssue(t, author)

	upvoted, count, err := storage.ToggleUpvote(issue.Id, voter.Id)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, 1, count)

	upvoted, count, err = storage.ToggleUpvote(issue.Id, voter.Id)
	require.NoError(t, err)
	assert.False(t, upvoted, "second toggle withdraws the vote")
	assert.Equal(t, 0, count)

	upvoted, count, err = storage.ToggleUpvote(issue.Id, voter.Id)
	require.NoError(t, err)
	assert.True(t, upvoted)
	assert.Equal(t, 1, count)

	fetched, err := storage.Issue(issue.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, fetched.Upvotes)
}

func TestComments(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)
	issue := mustCreateIssue(t, author)

	first, err := storage.CreateComment(domain.Comment{IssueId: issue.Id, AuthorId: author.Id, Body: "first"})
	require.NoError(t, err)
	second, err := storage.CreateComment(domain.Comment{IssueId: issue.Id, AuthorId: author.Id, Body: "second"})
	require.NoError(t, err)

	comments, err := storage.CommentsByIssue(issue.Id)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first, comments[0].Id, "comments come back oldest first")
	assert.Equal(t, second, comments[1].Id)
	assert.Equal(t, author.Name, comments[0].AuthorName)

	_, err = storage.CreateComment(domain.Comment{IssueId: 999999, AuthorId: author.Id, Body: "orphan"})
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}
