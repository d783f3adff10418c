package pg

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiport-dev/civiport/internal/domain"
	internal_errors "github.com/civiport-dev/civiport/internal/errors"
)

func TestAnnouncementCRUD(t *testing.T) {
	id, err := storage.CreateAnnouncement(domain.Announcement{
		Title: "Water outage",
		Body:  "Water will be shut off **tomorrow** from 9 to 12.",
	})
	require.NoError(t, err)

	a, err := storage.Announcement(id)
	require.NoError(t, err)
	assert.Equal(t, "Water outage", a.Title)
	assert.Contains(t, a.Body, "**tomorrow**", "markdown source stored verbatim")
	assert.Empty(t, a.BodyHTML, "rendering happens outside storage")

	a.Body = "Outage cancelled."
	require.NoError(t, storage.UpdateAnnouncement(a))
	updated, err := storage.Announcement(id)
	require.NoError(t, err)
	assert.Equal(t, "Outage cancelled.", updated.Body)

	list, err := storage.Announcements()
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, storage.DeleteAnnouncement(id))
	_, err = storage.Announcement(id)
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.StatusCode)
}

func TestDepartmentCRUD(t *testing.T) {
	id, err := storage.CreateDepartment(domain.Department{
		Name:         "Parks and Recreation",
		Description:  "Maintains parks and public green spaces",
		ContactEmail: "parks@city.gov",
	})
	require.NoError(t, err)

	d, err := storage.Department(id)
	require.NoError(t, err)
	assert.Equal(t, "Parks and Recreation", d.Name)
	assert.Equal(t, domain.Email("parks@city.gov"), d.ContactEmail)

	d.Description = "Parks, playgrounds and green spaces"
	require.NoError(t, storage.UpdateDepartment(d))

	list, err := storage.Departments()
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, storage.DeleteDepartment(id))
	_, err = storage.Department(id)
	require.Error(t, err)
}

func TestDepartmentUniqueName(t *testing.T) {
	_, err := storage.CreateDepartment(domain.Department{Name: "Sanitation"})
	require.NoError(t, err)

	_, err = storage.CreateDepartment(domain.Department{Name: "Sanitation"})
	require.Error(t, err)
	e, ok := err.(*internal_errors.ErrorWithStatusCode)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, e.StatusCode)
}

func TestDeleteDepartmentUnassignsIssues(t *testing.T) {
	author := mustCreateUser(t, domain.RoleCitizen)
	issue := mustCreateIssue(t, author)

	depId, err := storage.CreateDepartment(domain.Department{Name: "Short-lived Dept"})
	require.NoError(t, err)
	require.NoError(t, storage.UpdateIssueTriage(issue.Id, nil, &depId))

	require.NoError(t, storage.DeleteDepartment(depId))

	updated, err := storage.Issue(issue.Id)
	require.NoError(t, err)
	assert.Nil(t, updated.DepartmentId, "department FK is set null on delete")
}
