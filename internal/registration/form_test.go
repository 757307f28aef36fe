package registration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewForm_Defaults(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	s := f.Snapshot()
	assert.Equal(t, StateEditing, s.State)
	assert.Equal(t, types.MealVeg, s.Input.MealPreference)
	assert.Equal(t, []string{}, s.Input.MealPlan)
	assert.Equal(t, AttachmentsEmpty, s.AttachmentState)
	assert.False(t, s.Valid)
	assert.NotEmpty(t, s.Errors)
	assert.Nil(t, s.Errors.For("mealPreference"), "veg is preselected")
}

func TestForm_SelectRoomDerivesRentAndDeposit(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	details, err := f.SelectRoom("B-202")
	require.NoError(t, err)
	assert.Equal(t, 6000, details.MonthlyRent)
	assert.Equal(t, 12000, details.SecurityDeposit)
	assert.Equal(t, "Double", details.Room.Type)

	s := f.Snapshot()
	require.NotNil(t, s.Room)
	assert.Equal(t, 6000, s.Room.MonthlyRent)
	assert.Equal(t, 12000, s.Room.SecurityDeposit)
	assert.Equal(t, "B-202", s.Input.RoomNumber)
	assert.Equal(t, 6000, s.Input.MonthlyRent)
	assert.Equal(t, 12000, s.Input.SecurityDeposit)
	assert.Nil(t, s.Errors.For("roomNumber"))
}

func TestForm_RentStaysEditableAfterRoomSelection(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	_, err := f.SelectRoom("A-103")
	require.NoError(t, err)

	require.NoError(t, f.SetField("monthlyRent", 8000))
	err = f.SetField("securityDeposit", 900)
	requireFieldError(t, err, "securityDeposit", "Security deposit must be at least ₹1000")

	s := f.Snapshot()
	assert.Equal(t, 8000, s.Input.MonthlyRent)
	assert.Equal(t, 900, s.Input.SecurityDeposit, "invalid values are kept as typed")
	assert.NotNil(t, s.Errors.For("securityDeposit"))
	assert.Equal(t, 17000, s.Room.SecurityDeposit)
}

func TestForm_SelectUnknownRoom(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	_, err := f.SelectRoom("B-202")
	require.NoError(t, err)

	_, err = f.SelectRoom("Z-999")
	requireFieldError(t, err, "roomNumber", "Please select a room")

	s := f.Snapshot()
	assert.Nil(t, s.Room)
	assert.Equal(t, "Z-999", s.Input.RoomNumber)
	assert.NotNil(t, s.Errors.For("roomNumber"))
}

func TestForm_SetRoomNumberFieldSelectsRoom(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	require.NoError(t, f.SetField("roomNumber", "C-303"))
	s := f.Snapshot()
	require.NotNil(t, s.Room)
	assert.Equal(t, 11000, s.Input.SecurityDeposit)
}

func TestForm_SetFieldRejectsAttachmentsAndWrongTypes(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	assert.ErrorIs(t, f.SetField("attachments", []types.Attachment{}), ErrReadOnlyField)
	assert.ErrorIs(t, f.SetField("age", "24"), ErrFieldType)
	assert.ErrorIs(t, f.SetField("roomNumber", 202), ErrFieldType)
	assert.ErrorIs(t, f.SetField("nickname", "x"), ErrUnknownField)
}

func TestForm_ToggleMeal(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})

	plan, err := f.ToggleMeal("breakfast", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"breakfast"}, plan)

	plan, err = f.ToggleMeal("lunch", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"breakfast", "lunch"}, plan)

	plan, err = f.ToggleMeal("breakfast", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"lunch"}, plan)

	plan, err = f.ToggleMeal("lunch", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"lunch"}, plan, "checking a checked meal adds nothing")

	plan, err = f.ToggleMeal("dinner", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"lunch"}, plan)

	_, err = f.ToggleMeal("brunch", true)
	assert.ErrorIs(t, err, ErrUnknownMeal)

	_, err = f.ToggleMeal("lunch", false)
	require.NoError(t, err)
	assert.NotNil(t, f.Snapshot().Errors.For("mealPlan"))
}

func TestForm_ValidityTracksEveryChange(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})
	assert.False(t, f.Valid())

	fillValid(t, f)
	assert.True(t, f.Valid())

	requireFieldError(t, f.SetField("age", 17), "age", "Age must be at least 18")
	assert.False(t, f.Valid())

	require.NoError(t, f.SetField("age", 30))
	assert.True(t, f.Valid())
}

func TestForm_AttachmentCap(t *testing.T) {
	f, previews := newTestForm(&recordingSubmitter{})

	list, err := f.AddAttachments(files("a.pdf", "b.pdf", "c.pdf"))
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, AttachmentsPartial, f.Snapshot().AttachmentState)

	list, err = f.AddAttachments(files("d.pdf", "e.pdf", "f.pdf"))
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, names(list), "batch rejected whole")
	assert.Equal(t, 3, previews.Len())

	_, err = f.AddAttachments(files("d.pdf", "e.pdf"))
	require.NoError(t, err)
	assert.Equal(t, AttachmentsFull, f.Snapshot().AttachmentState)

	list, err = f.AddAttachments(files("f.pdf"))
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"}, names(list))
	assert.Equal(t, 5, previews.Len())
}

func TestForm_RemoveAttachmentKeepsOrderAndReleasesPreview(t *testing.T) {
	f, previews := newTestForm(&recordingSubmitter{})

	list, err := f.AddAttachments(files("a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"))
	require.NoError(t, err)
	removedURL := list[2].PreviewURL

	list, err = f.RemoveAttachment(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "d.pdf", "e.pdf"}, names(list))
	assert.Equal(t, 4, previews.Len())

	_, ok := previews.Open(removedURL[len(previews.BasePath):])
	assert.False(t, ok, "removed preview is released")

	list, err = f.RemoveAttachment(4)
	require.NoError(t, err)
	assert.Len(t, list, 4, "out of range is a no-op")

	list, err = f.RemoveAttachment(-1)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}

func TestForm_CloseReleasesPreviewsOnce(t *testing.T) {
	f, previews := newTestForm(&recordingSubmitter{})

	_, err := f.AddAttachments(files("a.pdf", "b.pdf"))
	require.NoError(t, err)

	require.NoError(t, f.Close())
	assert.Equal(t, 0, previews.Len())
	assert.Equal(t, StateClosed, f.State())

	require.NoError(t, f.Close(), "second close does not release again")

	_, err = f.AddAttachments(files("c.pdf"))
	assert.ErrorIs(t, err, ErrFormClosed)
	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrFormClosed)
}

func TestForm_SubmitInvalidForm(t *testing.T) {
	sub := &recordingSubmitter{}
	f, _ := newTestForm(sub)

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalidForm)

	var fes FieldErrors
	require.True(t, errors.As(err, &fes))
	assert.NotNil(t, fes.For("fullName"))
	assert.Equal(t, 0, sub.count())
	assert.Equal(t, StateEditing, f.State())
}

func TestForm_SubmitWithoutAttachments(t *testing.T) {
	sub := &recordingSubmitter{}
	f, _ := newTestForm(sub)
	fillValid(t, f)

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TenantsPath, res.Redirect)
	require.Equal(t, 1, sub.count())
	assert.Empty(t, sub.calls[0].Attachments)
}

func TestForm_SubmitGuardsAgainstDoubleSubmit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	blocking := SubmitterFunc(func(ctx context.Context, in types.TenantRegistrationInput) (SubmissionResult, error) {
		close(started)
		<-release
		return SubmissionResult{TenantID: 42, Redirect: TenantsPath}, nil
	})

	f, previews := newTestForm(blocking)
	fillValid(t, f)
	_, err := f.AddAttachments(files("id.pdf", "photo.jpg"))
	require.NoError(t, err)

	type result struct {
		res SubmissionResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.Submit(context.Background())
		done <- result{res, err}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("submitter was not called")
	}

	assert.Equal(t, StateSubmitting, f.State(), "loading state is entered before the submitter returns")

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, f.SetField("occupation", "Designer"), ErrSubmitInFlight)
	_, err = f.RemoveAttachment(0)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)

	var got result
	select {
	case got = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return")
	}
	require.NoError(t, got.err)
	assert.Equal(t, int64(42), got.res.TenantID)
	assert.Equal(t, TenantsPath, got.res.Redirect)

	assert.Equal(t, StateSubmitted, f.State())
	assert.Equal(t, 0, previews.Len(), "previews released after submit")

	_, err = f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestForm_SubmitFailureReturnsToEditing(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("database is locked")}
	f, previews := newTestForm(sub)
	fillValid(t, f)
	_, err := f.AddAttachments(files("id.pdf"))
	require.NoError(t, err)

	_, err = f.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")

	assert.Equal(t, StateEditing, f.State())
	assert.True(t, f.Valid())
	assert.Equal(t, 1, previews.Len(), "attachments survive a failed submit")

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()

	_, err = f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sub.count())
	assert.Equal(t, []string{"id.pdf"}, names(sub.calls[1].Attachments))
}

func TestForm_SnapshotIsACopy(t *testing.T) {
	f, _ := newTestForm(&recordingSubmitter{})
	_, err := f.ToggleMeal("dinner", true)
	require.NoError(t, err)

	s := f.Snapshot()
	s.Input.MealPlan[0] = "breakfast"

	assert.Equal(t, []string{"dinner"}, f.Snapshot().Input.MealPlan)
}

// countingPreviews records every Revoke and the errors it returned.
type countingPreviews struct {
	*MemoryPreviews

	mu      sync.Mutex
	revokes int
	failed  []error
}

func (p *countingPreviews) Revoke(handle string) error {
	err := p.MemoryPreviews.Revoke(handle)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokes++
	if err != nil {
		p.failed = append(p.failed, err)
	}
	return err
}

func TestForm_CloseDuringSubmit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	blocking := SubmitterFunc(func(context.Context, types.TenantRegistrationInput) (SubmissionResult, error) {
		close(started)
		<-release
		return SubmissionResult{TenantID: 9, Redirect: TenantsPath}, nil
	})

	previews := &countingPreviews{MemoryPreviews: NewMemoryPreviews("/p/")}
	f := NewForm(newTestValidator(), catalog.Default(), previews, blocking)
	fillValid(t, f)
	_, err := f.AddAttachments(files("id.pdf", "photo.jpg"))
	require.NoError(t, err)

	type result struct {
		res SubmissionResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := f.Submit(context.Background())
		done <- result{res, err}
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("submitter was not called")
	}

	require.NoError(t, f.Close())
	assert.Equal(t, StateClosed, f.State())
	assert.Equal(t, 0, previews.Len())

	close(release)

	var got result
	select {
	case got = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not return")
	}
	require.NoError(t, got.err)
	assert.Equal(t, int64(9), got.res.TenantID)

	assert.Equal(t, StateClosed, f.State(), "a closed form stays closed")
	assert.Equal(t, 0, previews.Len())

	previews.mu.Lock()
	defer previews.mu.Unlock()
	assert.Equal(t, 2, previews.revokes, "each preview revoked once")
	assert.Empty(t, previews.failed)
}
