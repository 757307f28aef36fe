package registration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/stretchr/testify/require"
)

// fixedNow is "today" for every test in this package.
var fixedNow = time.Date(2026, time.October, 17, 10, 30, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(catalog.Default(), WithClock(func() time.Time { return fixedNow }))
}

func validInput() types.TenantRegistrationInput {
	return types.TenantRegistrationInput{
		FullName:         "Asha Verma",
		Age:              24,
		Email:            "asha.verma@example.com",
		Phone:            "+919876543210",
		EmergencyContact: "9876543211",
		PermanentAddress: "12 MG Road, Bengaluru",
		IDProofType:      types.IDProofAadhar,
		IDProofNumber:    "1234-5678-9012",
		RoomNumber:       "B-202",
		MonthlyRent:      6000,
		SecurityDeposit:  12000,
		JoiningDate:      types.NewDate(2026, time.October, 18),
		MealPreference:   types.MealVeg,
		MealPlan:         []string{"breakfast"},
		Occupation:       "Engineer",
	}
}

// recordingSubmitter records every payload and returns a fixed result.
type recordingSubmitter struct {
	mu    sync.Mutex
	calls []types.TenantRegistrationInput
	err   error
}

func (s *recordingSubmitter) Submit(_ context.Context, in types.TenantRegistrationInput) (SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, in)
	if s.err != nil {
		return SubmissionResult{}, s.err
	}
	return SubmissionResult{TenantID: int64(len(s.calls)), Redirect: TenantsPath, SubmittedAt: fixedNow}, nil
}

func (s *recordingSubmitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestForm(s Submitter) (*Form, *MemoryPreviews) {
	previews := NewMemoryPreviews("/api/previews/")
	return NewForm(newTestValidator(), catalog.Default(), previews, s), previews
}

// fillValid drives a form through the same steps a user would.
func fillValid(t *testing.T, f *Form) {
	t.Helper()
	in := validInput()

	require.NoError(t, f.SetField("fullName", in.FullName))
	require.NoError(t, f.SetField("age", in.Age))
	require.NoError(t, f.SetField("email", in.Email))
	require.NoError(t, f.SetField("phone", in.Phone))
	require.NoError(t, f.SetField("emergencyContact", in.EmergencyContact))
	require.NoError(t, f.SetField("permanentAddress", in.PermanentAddress))
	require.NoError(t, f.SetField("idProofType", in.IDProofType))
	require.NoError(t, f.SetField("idProofNumber", in.IDProofNumber))
	_, err := f.SelectRoom(in.RoomNumber)
	require.NoError(t, err)
	require.NoError(t, f.SetField("joiningDate", in.JoiningDate))
	require.NoError(t, f.SetField("mealPreference", in.MealPreference))
	_, err = f.ToggleMeal("breakfast", true)
	require.NoError(t, err)
	require.NoError(t, f.SetField("occupation", in.Occupation))
}

func files(names ...string) []File {
	out := make([]File, len(names))
	for i, n := range names {
		out[i] = File{Name: n, ContentType: "application/pdf", Data: []byte("%PDF-" + n)}
	}
	return out
}

func names(as []types.Attachment) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}
