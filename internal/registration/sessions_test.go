package registration

import (
	"context"
	"testing"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_Lifecycle(t *testing.T) {
	previews := NewMemoryPreviews("/p/")
	sessions := NewSessions(func() *Form {
		return NewForm(newTestValidator(), catalog.Default(), previews, &recordingSubmitter{})
	})

	id, f := sessions.Open()
	require.NotEmpty(t, id)
	assert.Equal(t, 1, sessions.Len())

	got, err := sessions.Get(id)
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = f.AddAttachments(files("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, previews.Len())

	require.NoError(t, sessions.Discard(id))
	assert.Equal(t, 0, previews.Len())
	assert.Equal(t, StateClosed, f.State())

	_, err = sessions.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, sessions.Discard(id), ErrSessionNotFound)
}

func TestSessions_CloseAll(t *testing.T) {
	previews := NewMemoryPreviews("/p/")
	sessions := NewSessions(func() *Form {
		return NewForm(newTestValidator(), catalog.Default(), previews, &recordingSubmitter{})
	})

	for i := 0; i < 3; i++ {
		_, f := sessions.Open()
		_, err := f.AddAttachments(files("doc"))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, previews.Len())

	sessions.CloseAll()
	assert.Equal(t, 0, sessions.Len())
	assert.Equal(t, 0, previews.Len())
}

func TestSessions_ExpireIdle(t *testing.T) {
	now := fixedNow
	previews := NewMemoryPreviews("/p/")
	sessions := NewSessions(func() *Form {
		return NewForm(newTestValidator(), catalog.Default(), previews, &recordingSubmitter{})
	}, WithSessionClock(func() time.Time { return now }))

	abandoned, f1 := sessions.Open()
	_, err := f1.AddAttachments(files("id.pdf"))
	require.NoError(t, err)

	active, f2 := sessions.Open()
	_, err = f2.AddAttachments(files("photo.png"))
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = sessions.Get(active)
	require.NoError(t, err)

	assert.Empty(t, sessions.Expire(30*time.Minute), "nothing idle long enough yet")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, []string{abandoned}, sessions.Expire(30*time.Minute))

	assert.Equal(t, 1, sessions.Len())
	assert.Equal(t, StateClosed, f1.State())
	assert.Equal(t, 1, previews.Len(), "only the expired session's preview is released")

	_, err = sessions.Get(abandoned)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sessions.Get(active)
	assert.NoError(t, err)
}

func TestSessions_ExpireKeepsSubmittingForm(t *testing.T) {
	now := fixedNow
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := SubmitterFunc(func(context.Context, types.TenantRegistrationInput) (SubmissionResult, error) {
		close(started)
		<-release
		return SubmissionResult{TenantID: 1, Redirect: TenantsPath}, nil
	})

	sessions := NewSessions(func() *Form {
		return NewForm(newTestValidator(), catalog.Default(), NewMemoryPreviews("/p/"), blocking)
	}, WithSessionClock(func() time.Time { return now }))

	_, f := sessions.Open()
	fillValid(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-started

	now = now.Add(time.Hour)
	assert.Empty(t, sessions.Expire(time.Minute))
	assert.Equal(t, 1, sessions.Len())

	close(release)
	require.NoError(t, <-done)
}
