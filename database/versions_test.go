package database

import (
	"context"
	"sitecraft/models"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProject(t *testing.T, db *DB) *models.Project {
	t.Helper()

	user := createTestUser(t, db, 20)
	project, err := db.CreateProject(context.Background(), user.ID, "Site", "a site for testing")
	require.NoError(t, err)
	return project
}

func TestCommitVersion(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	project := createTestProject(t, db)

	version, err := db.CommitVersion(ctx, project.ID, "<h1>Hello</h1>", "changes made")
	require.NoError(t, err)
	assert.Equal(t, project.ID, version.ProjectID)
	assert.Equal(t, "changes made", version.Description)

	got, err := db.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CurrentVersionID)
	assert.Equal(t, version.ID, *got.CurrentVersionID)
	assert.Equal(t, "<h1>Hello</h1>", got.CurrentCode)
}

func TestCommitVersion_UnknownProject(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)

	_, err := db.CommitVersion(context.Background(), uuid.New(), "<p></p>", "changes made")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestAppendVersion_LeavesPointer(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	project := createTestProject(t, db)

	_, err := db.AppendVersion(ctx, project.ID, "<p>draft</p>", "draft")
	require.NoError(t, err)

	got, err := db.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentVersionID)
	assert.Equal(t, "", got.CurrentCode)
}

func TestSetCurrentVersion_Rollback(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	project := createTestProject(t, db)

	first, err := db.CommitVersion(ctx, project.ID, "<p>one</p>", "changes made")
	require.NoError(t, err)
	_, err = db.CommitVersion(ctx, project.ID, "<p>two</p>", "changes made")
	require.NoError(t, err)
	_, err = db.CommitVersion(ctx, project.ID, "<p>three</p>", "changes made")
	require.NoError(t, err)

	updated, err := db.SetCurrentVersion(ctx, project.ID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.CurrentVersionID)
	assert.Equal(t, first.ID, *updated.CurrentVersionID)
	assert.Equal(t, "<p>one</p>", updated.CurrentCode)

	versions, err := db.ListVersions(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 3, "rollback must not add or remove versions")
}

func TestSetCurrentVersion_OtherProject(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	mine := createTestProject(t, db)
	theirs := createTestProject(t, db)

	foreign, err := db.CommitVersion(ctx, theirs.ID, "<p>theirs</p>", "changes made")
	require.NoError(t, err)

	_, err = db.SetCurrentVersion(ctx, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, models.ErrVersionNotFound)

	_, err = db.GetVersion(ctx, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, models.ErrVersionNotFound)

	got, err := db.GetProject(ctx, mine.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentVersionID)
}

func TestVersionsByTime_OrderedAndRestartable(t *testing.T) {
	db := RequireTestDB(t)
	CleanupTestDB(t, db)
	ctx := context.Background()

	project := createTestProject(t, db)

	var want []uuid.UUID
	for _, code := range []string{"<p>a</p>", "<p>b</p>", "<p>c</p>"} {
		v, err := db.CommitVersion(ctx, project.ID, code, "changes made")
		require.NoError(t, err)
		want = append(want, v.ID)
	}

	collect := func() []uuid.UUID {
		var ids []uuid.UUID
		for v, err := range db.VersionsByTime(ctx, project.ID) {
			require.NoError(t, err)
			ids = append(ids, v.ID)
		}
		return ids
	}

	assert.Equal(t, want, collect())
	assert.Equal(t, want, collect())

	// Early exit must release the rows.
	for v, err := range db.VersionsByTime(ctx, project.ID) {
		require.NoError(t, err)
		assert.Equal(t, want[0], v.ID)
		break
	}
	assert.Equal(t, want, collect())
}
