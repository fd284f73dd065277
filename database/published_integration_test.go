package database

import (
	"context"
	"sitecraft/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPublishedProject(t *testing.T, db *DB, userID uuid.UUID, name, prompt string) *models.Project {
	t.Helper()
	ctx := context.Background()

	project, err := db.CreateProject(ctx, userID, name, prompt)
	require.NoError(t, err)
	_, err = db.CommitVersion(ctx, project.ID, "<h1>"+name+"</h1>", "changes made")
	require.NoError(t, err)
	published, err := db.TogglePublish(ctx, project.ID)
	require.NoError(t, err)
	return published
}

func TestListPublishedProjects_OnlyPublished(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, 20)
	published := createPublishedProject(t, db, user.ID, "Bakery", "landing page for a bakery")
	_, err := db.CreateProject(ctx, user.ID, "Private", "a private draft")
	require.NoError(t, err)

	projects, total, err := db.ListPublishedProjects(ctx, models.PublishedQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, projects, 1)
	assert.Equal(t, published.ID, projects[0].ID)
}

func TestListPublishedProjects_Search(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, 20)
	createPublishedProject(t, db, user.ID, "Bakery", "landing page for a bakery")
	createPublishedProject(t, db, user.ID, "Portfolio", "photography portfolio with gallery")
	createPublishedProject(t, db, user.ID, "Gym", "fitness studio schedule")

	projects, total, err := db.ListPublishedProjects(ctx, models.PublishedQuery{Search: "photography gallery"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, projects, 1)
	assert.Equal(t, "Portfolio", projects[0].Name)
}

func TestListPublishedProjects_InvalidSearch(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)

	_, _, err := db.ListPublishedProjects(context.Background(), models.PublishedQuery{Search: "ab"})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)

	_, _, err = db.ListPublishedProjects(context.Background(), models.PublishedQuery{StartTime: "yesterday"})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func TestListPublishedProjects_TimeRangeAndPagination(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, 20)
	for _, name := range []string{"One", "Two", "Three"} {
		createPublishedProject(t, db, user.ID, name, "a site named "+name)
	}

	projects, total, err := db.ListPublishedProjects(ctx, models.PublishedQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, projects, 2)

	projects, total, err = db.ListPublishedProjects(ctx, models.PublishedQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, int64(3), total)

	projects, total, err = db.ListPublishedProjects(ctx, models.PublishedQuery{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Equal(t, int64(3), total, "total is reported even past the last page")

	projects, total, err = db.ListPublishedProjects(ctx, models.PublishedQuery{Search: "Three", Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Equal(t, int64(1), total)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	projects, total, err = db.ListPublishedProjects(ctx, models.PublishedQuery{StartTime: future})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, projects)
}

func TestGetPublishedSite(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	user := createTestUser(t, db, 20)
	published := createPublishedProject(t, db, user.ID, "Bakery", "landing page for a bakery")

	site, err := db.GetPublishedSite(ctx, published.ID)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Bakery</h1>", site.Code)

	_, err = db.TogglePublish(ctx, published.ID)
	require.NoError(t, err)
	_, err = db.GetPublishedSite(ctx, published.ID)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)

	empty, err := db.CreateProject(ctx, user.ID, "Empty", "nothing generated yet")
	require.NoError(t, err)
	_, err = db.TogglePublish(ctx, empty.ID)
	require.NoError(t, err)
	_, err = db.GetPublishedSite(ctx, empty.ID)
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}
