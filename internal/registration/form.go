// Package registration implements the tenant registration form: per-field
// validation, room-derived rent and deposit, meal-plan toggling, a bounded
// attachment list with preview handles, and a guarded submit.
//
// A Form is one editing session. It is created fresh, mutated field by
// field, and discarded after a successful submit or an explicit Close.
// Validation re-runs after every change so Valid always reflects the
// current input.
package registration

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// State is the lifecycle position of a Form.
type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateClosed     State = "closed"
)

// RoomDetails is the selected room plus the rent and deposit derived
// from it for display.
type RoomDetails struct {
	Room            types.AvailableRoom `json:"room"`
	MonthlyRent     int                 `json:"monthlyRent"`
	SecurityDeposit int                 `json:"securityDeposit"`
}

func roomDetails(r types.AvailableRoom) RoomDetails {
	return RoomDetails{
		Room:            r,
		MonthlyRent:     r.Rent,
		SecurityDeposit: r.Rent * catalog.DepositMultiplier,
	}
}

// Snapshot is a copy of a Form's observable state.
type Snapshot struct {
	Input           types.TenantRegistrationInput `json:"input"`
	Room            *RoomDetails                  `json:"room,omitempty"`
	Errors          FieldErrors                   `json:"errors"`
	Attachments     []types.Attachment            `json:"attachments"`
	AttachmentState AttachmentState               `json:"attachmentState"`
	Valid           bool                          `json:"valid"`
	State           State                         `json:"state"`
}

// Form is a single tenant registration session. All methods are safe for
// concurrent use.
type Form struct {
	validator *Validator
	catalog   *catalog.Catalog
	submitter Submitter

	mu          sync.Mutex
	input       types.TenantRegistrationInput
	room        *RoomDetails
	attachments AttachmentList
	errs        FieldErrors
	state       State
}

// NewForm opens a session with the portal's defaults: an empty meal plan
// and a vegetarian preference.
func NewForm(v *Validator, c *catalog.Catalog, p Previews, s Submitter) *Form {
	f := &Form{
		validator:   v,
		catalog:     c,
		submitter:   s,
		attachments: newAttachmentList(p),
		state:       StateEditing,
		input: types.TenantRegistrationInput{
			MealPlan:       []string{},
			MealPreference: types.MealVeg,
		},
	}
	f.revalidate()
	return f
}

// revalidate recomputes the error set. Caller holds f.mu.
func (f *Form) revalidate() {
	f.input.Attachments = f.attachments.Items()

	err := f.validator.Validate(f.input)
	if err == nil {
		f.errs = nil
		return
	}
	if errs, ok := err.(FieldErrors); ok {
		f.errs = errs
		return
	}
	f.errs = FieldErrors{{Field: "", Rule: "internal", Message: err.Error()}}
}

func (f *Form) editable() error {
	switch f.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrAlreadySubmitted
	case StateClosed:
		return ErrFormClosed
	}
	return nil
}

// SetField stores value in field and validates it. The value is kept
// even when invalid, as a form keeps what was typed; the returned
// *FieldError says why it is rejected. Setting roomNumber behaves like
// SelectRoom.
func (f *Form) SetField(field string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return err
	}

	switch field {
	case "attachments":
		return fmt.Errorf("%w: %s", ErrReadOnlyField, field)
	case "roomNumber":
		id, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: roomNumber wants string, got %T", ErrFieldType, value)
		}
		_, err := f.selectRoom(id)
		return err
	}

	verr := f.validator.ValidateField(field, value)
	if verr != nil {
		if _, ok := verr.(*FieldError); !ok {
			return verr
		}
	}

	sf := f.validator.fields[field]
	reflect.ValueOf(&f.input).Elem().FieldByIndex(sf.Index).Set(reflect.ValueOf(value))
	f.revalidate()

	return verr
}

// SelectRoom assigns a room from the catalog. A known room resets
// monthlyRent to its rent and securityDeposit to twice that; both stay
// editable afterwards. An unknown id is stored and fails roomNumber.
func (f *Form) SelectRoom(id string) (RoomDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return RoomDetails{}, err
	}
	return f.selectRoom(id)
}

func (f *Form) selectRoom(id string) (RoomDetails, error) {
	f.input.RoomNumber = id

	room, ok := f.catalog.Room(id)
	if !ok {
		f.room = nil
		f.revalidate()
		return RoomDetails{}, &FieldError{
			Field:   "roomNumber",
			Rule:    "room",
			Message: message("roomNumber", "room"),
		}
	}

	details := roomDetails(room)
	f.room = &details
	f.input.MonthlyRent = details.MonthlyRent
	f.input.SecurityDeposit = details.SecurityDeposit
	f.revalidate()

	return details, nil
}

// ToggleMeal adds meal to the plan when checked and removes it when not.
// Adding a meal that is already present changes nothing.
func (f *Form) ToggleMeal(meal string, checked bool) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return nil, err
	}
	if !f.catalog.HasMeal(meal) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMeal, meal)
	}

	idx := -1
	for i, m := range f.input.MealPlan {
		if m == meal {
			idx = i
			break
		}
	}

	plan := make([]string, 0, len(f.input.MealPlan)+1)
	switch {
	case checked && idx < 0:
		plan = append(plan, f.input.MealPlan...)
		plan = append(plan, meal)
	case !checked && idx >= 0:
		plan = append(plan, f.input.MealPlan[:idx]...)
		plan = append(plan, f.input.MealPlan[idx+1:]...)
	default:
		plan = append(plan, f.input.MealPlan...)
	}

	f.input.MealPlan = plan
	f.revalidate()

	return append([]string(nil), plan...), nil
}

// AddAttachments appends a batch of files. A batch that would take the
// list past MaxAttachments is rejected whole with ErrTooManyFiles.
func (f *Form) AddAttachments(files []File) ([]types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return nil, err
	}
	if err := f.attachments.Add(files); err != nil {
		return f.attachments.Items(), err
	}
	f.revalidate()

	return f.attachments.Items(), nil
}

// RemoveAttachment drops the attachment at index and releases its
// preview. An out-of-range index leaves the list as it is.
func (f *Form) RemoveAttachment(index int) ([]types.Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.editable(); err != nil {
		return nil, err
	}

	removed, err := f.attachments.Remove(index)
	if removed {
		f.revalidate()
	}

	return f.attachments.Items(), err
}

// Valid reports whether every field currently passes.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs) == 0
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns a copy of the form's current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		Input:           f.payload(),
		Errors:          append(FieldErrors{}, f.errs...),
		Attachments:     f.attachments.Items(),
		AttachmentState: f.attachments.State(),
		Valid:           len(f.errs) == 0,
		State:           f.state,
	}
	if f.room != nil {
		r := *f.room
		s.Room = &r
	}
	return s
}

// payload deep-copies the input. Caller holds f.mu.
func (f *Form) payload() types.TenantRegistrationInput {
	in := f.input
	in.MealPlan = append([]string{}, f.input.MealPlan...)
	in.Attachments = f.attachments.Items()
	return in
}

// Submit validates the form and hands it to the submitter. The form
// moves to StateSubmitting before the submitter runs, and any further
// Submit or edit fails with ErrSubmitInFlight until it returns. On
// success the form is finished and its previews released; on failure it
// returns to editing with its input intact.
func (f *Form) Submit(ctx context.Context) (SubmissionResult, error) {
	f.mu.Lock()
	if err := f.editable(); err != nil {
		f.mu.Unlock()
		return SubmissionResult{}, err
	}

	f.revalidate()
	if len(f.errs) > 0 {
		errs := append(FieldErrors(nil), f.errs...)
		f.mu.Unlock()
		return SubmissionResult{}, errs
	}

	f.state = StateSubmitting
	payload := f.payload()
	f.mu.Unlock()

	res, err := f.submitter.Submit(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		if err != nil {
			return SubmissionResult{}, fmt.Errorf("submit registration: %w", err)
		}
		return res, nil
	}

	if err != nil {
		f.state = StateEditing
		return SubmissionResult{}, fmt.Errorf("submit registration: %w", err)
	}

	f.state = StateSubmitted
	if rerr := f.attachments.Release(); rerr != nil {
		return res, fmt.Errorf("release previews: %w", rerr)
	}

	return res, nil
}

// Close ends the session and releases every preview still held. Closing
// a submitted or closed form is a no-op. Close waits for nothing: a
// submit in flight keeps running and its previews are released here.
func (f *Form) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateClosed {
		return nil
	}
	f.state = StateClosed

	return f.attachments.Release()
}
