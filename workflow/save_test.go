package workflow

import (
	"context"
	"sitecraft/models"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCode(t *testing.T) {
	f := newFixture(t, 10)

	project, err := f.svc.SaveCode(context.Background(), f.user.ID, f.project.ID, "<html>by hand</html>")
	require.NoError(t, err)
	assert.Equal(t, "<html>by hand</html>", project.CurrentCode)
	assert.Nil(t, project.CurrentVersionID)

	assert.Len(t, f.versions(t), 1, "save does not create a version")
	assert.Empty(t, f.turns(t))
	assert.Equal(t, 10, f.balance(t))
	assert.Equal(t, []string{models.EventProjectSaved}, f.events.types())
}

func TestSaveCode_TrimsWhitespace(t *testing.T) {
	f := newFixture(t, 10)

	project, err := f.svc.SaveCode(context.Background(), f.user.ID, f.project.ID, "\n\t <html>by hand</html>  \n")
	require.NoError(t, err)
	assert.Equal(t, "<html>by hand</html>", project.CurrentCode)
	assert.Equal(t, "<html>by hand</html>", f.current(t).CurrentCode)
}

func TestSaveCode_Errors(t *testing.T) {
	f := newFixture(t, 10)
	stranger, err := f.store.CreateUser(context.Background(), "stranger", 0)
	require.NoError(t, err)

	tests := []struct {
		name      string
		userID    uuid.UUID
		projectID uuid.UUID
		code      string
		wantErr   error
	}{
		{name: "empty code", userID: f.user.ID, projectID: f.project.ID, code: "   ", wantErr: ErrInvalidInput},
		{name: "unknown project", userID: f.user.ID, projectID: uuid.New(), code: "<p></p>", wantErr: ErrNotFound},
		{name: "not owner", userID: stranger.ID, projectID: f.project.ID, code: "<p></p>", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveCode(context.Background(), tt.userID, tt.projectID, tt.code)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, existingCode, f.current(t).CurrentCode)
}

func TestProjectDetail(t *testing.T) {
	f := newFixture(t, 10)
	f.revise(t, "<html>two</html>")

	detail, err := f.svc.Project(context.Background(), f.user.ID, f.project.ID)
	require.NoError(t, err)

	assert.Equal(t, f.project.ID, detail.ID)
	assert.Len(t, detail.Versions, 2)
	assert.Len(t, detail.Conversation, 4)
	require.Len(t, detail.Timeline, 6)
	assert.Equal(t, models.TimelineVersion, detail.Timeline[0].Kind)
	assert.Equal(t, models.TimelineMessage, detail.Timeline[1].Kind)
	assert.Equal(t, models.TimelineVersion, detail.Timeline[4].Kind)
	assert.Equal(t, SuccessTurn, detail.Timeline[5].Message.Content)

	stranger, err := f.store.CreateUser(context.Background(), "stranger", 0)
	require.NoError(t, err)
	_, err = f.svc.Project(context.Background(), stranger.ID, f.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTogglePublishAndDelete(t *testing.T) {
	f := newFixture(t, 10)

	project, err := f.svc.TogglePublish(context.Background(), f.user.ID, f.project.ID)
	require.NoError(t, err)
	assert.True(t, project.IsPublished)

	require.NoError(t, f.svc.Delete(context.Background(), f.user.ID, f.project.ID))
	_, err = f.svc.Project(context.Background(), f.user.ID, f.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), f.user.ID, f.project.ID), ErrNotFound)

	assert.Equal(t, []string{models.EventProjectPublished, models.EventProjectDeleted}, f.events.types())
}

func TestNotifiers_FanOut(t *testing.T) {
	var got []string
	n := Notifiers{
		NotifierFunc(func(e models.ProjectEvent) { got = append(got, "a:"+e.Type) }),
		nil,
		NotifierFunc(func(e models.ProjectEvent) { got = append(got, "b:"+e.Type) }),
	}

	n.Notify(models.ProjectEvent{Type: models.EventProjectSaved})
	assert.Equal(t, []string{"a:project.saved", "b:project.saved"}, got)
}
