// Package storage defines the Storage interface, the contract any
// database backend must satisfy to hold registered tenants.
//
// Handlers and the registration submitter depend only on this interface,
// so tests can pass a fake and the SQLite backend can be swapped without
// touching them.
package storage

import (
	"errors"

	"github.com/aanand-mishra/hostel-api/internal/types"
)

// ErrTenantNotFound is returned when no tenant has the requested id.
var ErrTenantNotFound = errors.New("tenant not found")

// Storage is the tenant persistence contract.
type Storage interface {
	// CreateTenant stores a validated registration, including the
	// metadata of its attachments, and returns the new tenant's id.
	CreateTenant(input types.TenantRegistrationInput) (int64, error)

	// GetTenantByID returns ErrTenantNotFound (wrapped) for an unknown id.
	GetTenantByID(id int64) (types.Tenant, error)

	// GetTenants returns every tenant, oldest first. Never nil.
	GetTenants() ([]types.Tenant, error)

	// DeleteTenantByID returns ErrTenantNotFound (wrapped) when nothing
	// was deleted.
	DeleteTenantByID(id int64) error
}
