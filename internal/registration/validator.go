package registration

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/catalog"
	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)

// earliestJoiningDate is the lower bound the date picker allows.
var earliestJoiningDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// messages maps field -> failed tag -> user-facing message. A field with
// a single message for every rule uses the "*" key.
var messages = map[string]map[string]string{
	"fullName":         {"*": "Full name must be at least 2 characters"},
	"age":              {"gte": "Age must be at least 18", "lte": "Age must be less than 100"},
	"email":            {"*": "Please enter a valid email address"},
	"phone":            {"*": "Please enter a valid phone number"},
	"emergencyContact": {"*": "Please enter a valid emergency contact"},
	"permanentAddress": {"*": "Address must be at least 10 characters"},
	"idProofType":      {"*": "Please select an ID proof type"},
	"idProofNumber":    {"*": "ID proof number is required"},
	"roomNumber":       {"*": "Please select a room"},
	"monthlyRent":      {"*": "Monthly rent must be at least ₹1000"},
	"securityDeposit":  {"*": "Security deposit must be at least ₹1000"},
	"joiningDate":      {"*": "Please select a joining date"},
	"mealPreference":   {"*": "Please select meal preference"},
	"mealPlan":         {"*": "Please select at least one meal", "meal": "Unknown meal option", "unique": "Meals can only be selected once"},
	"occupation":       {"*": "Occupation is required"},
	"attachments":      {"*": "Maximum 5 files allowed"},
}

func message(field, tag string) string {
	if m, ok := messages[field]; ok {
		if msg, ok := m[tag]; ok {
			return msg
		}
		if msg, ok := m["*"]; ok {
			return msg
		}
	}
	return "Invalid value"
}

// Validator checks TenantRegistrationInput values, either one field at a
// time or as a whole form. Rules come from the validate tags on
// types.TenantRegistrationInput.
type Validator struct {
	validate *validator.Validate
	catalog  *catalog.Catalog
	now      func() time.Time

	fields map[string]reflect.StructField // by json name
	order  []string                       // json names in struct order
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock replaces time.Now as the source of "today" for joiningDate.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// NewValidator returns a Validator that checks room numbers against c.
func NewValidator(c *catalog.Catalog, opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(),
		catalog:  c,
		now:      time.Now,
		fields:   make(map[string]reflect.StructField),
	}
	for _, opt := range opts {
		opt(v)
	}

	// Report json names ("fullName") instead of Go names ("FullName").
	v.validate.RegisterTagNameFunc(jsonName)

	// Dates are checked as plain time.Time values.
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(types.Date); ok {
			return d.Time
		}
		return nil
	}, types.Date{})

	// Registration only fails for an empty tag name, so errors are ignored.
	_ = v.validate.RegisterValidation("phone", validatePhone)
	_ = v.validate.RegisterValidation("room", v.validateRoom)
	_ = v.validate.RegisterValidation("meal", v.validateMeal)
	_ = v.validate.RegisterValidation("notpast", v.validateNotPast)

	t := reflect.TypeOf(types.TenantRegistrationInput{})
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := jsonName(sf)
		if name == "" {
			continue
		}
		v.fields[name] = sf
		v.order = append(v.order, name)
	}

	return v
}

func jsonName(sf reflect.StructField) string {
	name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validatePhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(fl.Field().String())
}

func (v *Validator) validateRoom(fl validator.FieldLevel) bool {
	return v.catalog.Has(fl.Field().String())
}

func (v *Validator) validateMeal(fl validator.FieldLevel) bool {
	return v.catalog.HasMeal(fl.Field().String())
}

// validateNotPast accepts today or any later day, compared by calendar
// date in the clock's location.
func (v *Validator) validateNotPast(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok || t.IsZero() || t.Before(earliestJoiningDate) {
		return false
	}

	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	return !day.Before(today)
}

// Fields returns the json names of every form field in schema order.
func (v *Validator) Fields() []string {
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}

// FieldType returns the Go type a field's value must have.
func (v *Validator) FieldType(field string) (reflect.Type, error) {
	sf, ok := v.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return sf.Type, nil
}

// Decode converts a raw JSON value into the Go type of field, so that it
// can be passed to ValidateField or Form.SetField.
func (v *Validator) Decode(field string, raw json.RawMessage) (any, error) {
	typ, err := v.FieldType(field)
	if err != nil {
		return nil, err
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFieldType, field, err)
	}

	return ptr.Elem().Interface(), nil
}

// ValidateField applies the rules of one field to value. It returns nil
// when the value is valid, a *FieldError when a rule fails, and a plain
// error when the field is unknown or value has the wrong type.
func (v *Validator) ValidateField(field string, value any) error {
	sf, ok := v.fields[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if value == nil || reflect.TypeOf(value) != sf.Type {
		return fmt.Errorf("%w: %s wants %s, got %T", ErrFieldType, field, sf.Type, value)
	}

	tag := sf.Tag.Get("validate")
	if tag == "" {
		return nil
	}

	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("ValidateField %s: %w", field, err)
	}

	return &FieldError{
		Field:   field,
		Rule:    verrs[0].Tag(),
		Message: message(field, verrs[0].Tag()),
	}
}

// Validate checks every field of input. It returns nil when the whole
// form is valid, FieldErrors otherwise.
func (v *Validator) Validate(input types.TenantRegistrationInput) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("Validate: %w", err)
	}

	out := make(FieldErrors, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		// "mealPlan[1]" is reported against mealPlan, once.
		field := strings.SplitN(fe.Field(), "[", 2)[0]
		if seen[field] {
			continue
		}
		seen[field] = true

		out = append(out, FieldError{
			Field:   field,
			Rule:    fe.Tag(),
			Message: message(field, fe.Tag()),
		})
	}

	return out
}
