// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage, and the registration form can all import types
// without depending on each other.
package types

import (
	"fmt"
	"strings"
	"time"
)

// IDProofType is the kind of identity document a tenant registers with.
type IDProofType string

const (
	IDProofAadhar         IDProofType = "aadhar"
	IDProofPAN            IDProofType = "pan"
	IDProofPassport       IDProofType = "passport"
	IDProofDrivingLicense IDProofType = "driving_license"
)

// MealPreference is the tenant's dietary choice.
type MealPreference string

const (
	MealVeg    MealPreference = "veg"
	MealNonVeg MealPreference = "non_veg"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day. It encodes to JSON as "YYYY-MM-DD" rather than
// the RFC 3339 timestamp time.Time would produce.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String returns the date as "YYYY-MM-DD", or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AvailableRoom is one entry of the room catalog a tenant can be assigned to.
type AvailableRoom struct {
	ID    string `json:"id"    yaml:"id"`
	Type  string `json:"type"  yaml:"type"`
	Rent  int    `json:"rent"  yaml:"rent"`
	Floor int    `json:"floor" yaml:"floor"`
}

// MealOption is a meal a tenant can subscribe to.
type MealOption struct {
	ID    string `json:"id"    yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Price int    `json:"price" yaml:"price"`
}

// Attachment describes an uploaded document. The file contents live
// behind PreviewURL for as long as the registration session holds it.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// TenantRegistrationInput is the payload of the tenant registration form.
//
// The validate:"..." tags ARE the field rule table: the registration
// package looks rules up by the json name of a field, so a single tag
// serves both whole-form and single-field validation. Custom tags:
//
//	phone   — ^[+]?[0-9]{10,15}$
//	room    — the id must exist in the room catalog
//	meal    — the id must exist in the catalog's meal options
//	notpast — today or later, and not before 1900-01-01
type TenantRegistrationInput struct {
	FullName         string         `json:"fullName"         validate:"min=2"`
	Age              int            `json:"age"              validate:"gte=18,lte=100"`
	Email            string         `json:"email"            validate:"required,email"`
	Phone            string         `json:"phone"            validate:"phone"`
	EmergencyContact string         `json:"emergencyContact" validate:"phone"`
	PermanentAddress string         `json:"permanentAddress" validate:"min=10"`
	IDProofType      IDProofType    `json:"idProofType"      validate:"oneof=aadhar pan passport driving_license"`
	IDProofNumber    string         `json:"idProofNumber"    validate:"min=5"`
	RoomNumber       string         `json:"roomNumber"       validate:"required,room"`
	MonthlyRent      int            `json:"monthlyRent"      validate:"gte=1000"`
	SecurityDeposit  int            `json:"securityDeposit"  validate:"gte=1000"`
	JoiningDate      Date           `json:"joiningDate"      validate:"notpast"`
	MealPreference   MealPreference `json:"mealPreference"   validate:"oneof=veg non_veg"`
	MealPlan         []string       `json:"mealPlan"         validate:"min=1,unique,dive,meal"`
	Occupation       string         `json:"occupation"       validate:"min=2"`
	Notes            string         `json:"notes,omitempty"`
	Attachments      []Attachment   `json:"attachments"      validate:"max=5"`
}

// Tenant is a registered resident as stored and listed by the service.
type Tenant struct {
	ID               int64          `json:"id"`
	FullName         string         `json:"fullName"`
	Age              int            `json:"age"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	EmergencyContact string         `json:"emergencyContact"`
	PermanentAddress string         `json:"permanentAddress"`
	IDProofType      IDProofType    `json:"idProofType"`
	IDProofNumber    string         `json:"idProofNumber"`
	RoomNumber       string         `json:"roomNumber"`
	MonthlyRent      int            `json:"monthlyRent"`
	SecurityDeposit  int            `json:"securityDeposit"`
	JoiningDate      Date           `json:"joiningDate"`
	MealPreference   MealPreference `json:"mealPreference"`
	MealPlan         []string       `json:"mealPlan"`
	Occupation       string         `json:"occupation"`
	Notes            string         `json:"notes,omitempty"`
	Documents        []Attachment   `json:"documents"`
	Status           string         `json:"status"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// TenantStatusPending is the status of a freshly registered tenant.
const TenantStatusPending = "pending"
