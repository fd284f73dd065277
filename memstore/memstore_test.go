package memstore

import (
	"context"
	"sitecraft/models"
	"sitecraft/workflow"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ workflow.Store = (*Store)(nil)

func newProject(t *testing.T, s *Store, credits int) (*models.User, *models.Project) {
	t.Helper()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "tester", credits)
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, user.ID, "Site", "a site for tests")
	require.NoError(t, err)
	return user, project
}

func TestDebitCredits(t *testing.T) {
	tests := []struct {
		name    string
		balance int
		amount  int
		wantErr error
		want    int
	}{
		{name: "exact balance", balance: 5, amount: 5, want: 0},
		{name: "enough balance", balance: 10, amount: 5, want: 5},
		{name: "short balance", balance: 3, amount: 5, wantErr: models.ErrInsufficientBalance, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			ctx := context.Background()
			user, err := s.CreateUser(ctx, "tester", tt.balance)
			require.NoError(t, err)

			err = s.DebitCredits(ctx, user.ID, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			got, err := s.GetUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Credits)
		})
	}
}

func TestDebitCredits_Concurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "tester", 12)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.DebitCredits(ctx, user.ID, 5) == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, succeeded)
	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Credits)
}

func TestUnknownUser(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.ErrorIs(t, s.DebitCredits(ctx, uuid.New(), 5), models.ErrUserNotFound)
	assert.ErrorIs(t, s.RefundCredits(ctx, uuid.New(), 5), models.ErrUserNotFound)
	_, err := s.GetUserByAPIKey(ctx, "sc_nope")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	_, err = s.CreateProject(ctx, uuid.New(), "x", "a prompt")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestGetUserByAPIKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "tester", 1)
	require.NoError(t, err)

	got, err := s.GetUserByAPIKey(ctx, user.APIKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestCommitAndRollback(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	first, err := s.CommitVersion(ctx, project.ID, "<p>1</p>", "changes made")
	require.NoError(t, err)
	second, err := s.CommitVersion(ctx, project.ID, "<p>2</p>", "changes made")
	require.NoError(t, err)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, *got.CurrentVersionID)
	assert.Equal(t, "<p>2</p>", got.CurrentCode)

	rolled, err := s.SetCurrentVersion(ctx, project.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, *rolled.CurrentVersionID)
	assert.Equal(t, "<p>1</p>", rolled.CurrentCode)

	versions, err := s.ListVersions(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestSetCurrentVersion_ForeignVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, mine := newProject(t, s, 0)
	_, theirs := newProject(t, s, 0)

	foreign, err := s.CommitVersion(ctx, theirs.ID, "<p>theirs</p>", "changes made")
	require.NoError(t, err)

	_, err = s.SetCurrentVersion(ctx, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, models.ErrVersionNotFound)
	_, err = s.GetVersion(ctx, mine.ID, foreign.ID)
	assert.ErrorIs(t, err, models.ErrVersionNotFound)

	got, err := s.GetProject(ctx, mine.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentVersionID)
}

func TestAppendVersion_LeavesPointer(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	_, err := s.AppendVersion(ctx, project.ID, "<p>draft</p>", "draft")
	require.NoError(t, err)

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CurrentVersionID)
	assert.Empty(t, got.CurrentCode)
}

func TestVersionsByTime_Restartable(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	for _, code := range []string{"a", "b", "c"} {
		_, err := s.CommitVersion(ctx, project.ID, code, "changes made")
		require.NoError(t, err)
	}

	codes := func() []string {
		var out []string
		for v, err := range s.VersionsByTime(ctx, project.ID) {
			require.NoError(t, err)
			out = append(out, v.Code)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, codes())
	assert.Equal(t, []string{"a", "b", "c"}, codes())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	for _, err := range s.VersionsByTime(cancelled, project.ID) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	v, err := s.CommitVersion(ctx, project.ID, "<p>1</p>", "changes made")
	require.NoError(t, err)

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	*got.CurrentVersionID = uuid.New()
	got.CurrentCode = "mutated"

	again, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, *again.CurrentVersionID)
	assert.Equal(t, "<p>1</p>", again.CurrentCode)
}

func TestSaveProjectCode(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	_, err := s.CommitVersion(ctx, project.ID, "<p>1</p>", "changes made")
	require.NoError(t, err)

	saved, err := s.SaveProjectCode(ctx, project.ID, "<p>manual</p>")
	require.NoError(t, err)
	assert.Nil(t, saved.CurrentVersionID)
	assert.Equal(t, "<p>manual</p>", saved.CurrentCode)

	_, err = s.SaveProjectCode(ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestTurns(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	_, err := s.AppendTurn(ctx, project.ID, models.RoleUser, "same")
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, project.ID, models.RoleUser, "same")
	require.NoError(t, err)
	require.NoError(t, s.AppendTurns(ctx, project.ID, models.RoleAssistant, "one", "two"))

	turns, err := s.ListTurns(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "two", turns[3].Content)

	_, err = s.AppendTurn(ctx, project.ID, models.Role("system"), "x")
	assert.Error(t, err)
	_, err = s.AppendTurn(ctx, uuid.New(), models.RoleUser, "x")
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
	assert.ErrorIs(t, s.AppendTurns(ctx, uuid.New(), models.RoleUser, "x"), models.ErrProjectNotFound)
}

func TestDeleteProject_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	_, err := s.CommitVersion(ctx, project.ID, "<p>1</p>", "changes made")
	require.NoError(t, err)
	_, err = s.AppendTurn(ctx, project.ID, models.RoleUser, "hi")
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, project.ID))

	versions, err := s.ListVersions(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
	turns, err := s.ListTurns(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.ErrorIs(t, s.DeleteProject(ctx, project.ID), models.ErrProjectNotFound)
}

func TestListPublishedProjects(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "tester", 0)
	require.NoError(t, err)

	publish := func(name, prompt string) *models.Project {
		p, err := s.CreateProject(ctx, user.ID, name, prompt)
		require.NoError(t, err)
		_, err = s.CommitVersion(ctx, p.ID, "<h1>"+name+"</h1>", "changes made")
		require.NoError(t, err)
		p, err = s.TogglePublish(ctx, p.ID)
		require.NoError(t, err)
		return p
	}

	bakery := publish("Bakery", "landing page for a bakery")
	publish("Portfolio", "photography portfolio")
	_, err = s.CreateProject(ctx, user.ID, "Draft", "a bakery draft")
	require.NoError(t, err)

	all, total, err := s.ListPublishedProjects(ctx, models.PublishedQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
	assert.Equal(t, "Portfolio", all[0].Name, "newest activity first")

	found, total, err := s.ListPublishedProjects(ctx, models.PublishedQuery{Search: "Bakery landing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, bakery.ID, found[0].ID)

	page, total, err := s.ListPublishedProjects(ctx, models.PublishedQuery{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, page)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	none, _, err := s.ListPublishedProjects(ctx, models.PublishedQuery{StartTime: future})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, _, err = s.ListPublishedProjects(ctx, models.PublishedQuery{Search: "ab"})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
	_, _, err = s.ListPublishedProjects(ctx, models.PublishedQuery{EndTime: "soon"})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
}

func TestGetPublishedSite(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, project := newProject(t, s, 0)

	_, err := s.TogglePublish(ctx, project.ID)
	require.NoError(t, err)
	_, err = s.GetPublishedSite(ctx, project.ID)
	assert.ErrorIs(t, err, models.ErrProjectNotFound, "published but empty")

	_, err = s.CommitVersion(ctx, project.ID, "<p>live</p>", "changes made")
	require.NoError(t, err)
	site, err := s.GetPublishedSite(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>live</p>", site.Code)
}
