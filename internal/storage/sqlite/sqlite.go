// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// A tenant row holds the registration fields; the documents uploaded with
// it live in tenant_documents, one row per attachment, in upload order.
// Dates are stored as TEXT ("YYYY-MM-DD" and RFC 3339) so rows read back
// the same way whichever driver sits underneath.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/config"
	"github.com/aanand-mishra/hostel-api/internal/storage"
	"github.com/aanand-mishra/hostel-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS tenants (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		full_name         TEXT    NOT NULL,
		age               INTEGER NOT NULL,
		email             TEXT    NOT NULL,
		phone             TEXT    NOT NULL,
		emergency_contact TEXT    NOT NULL,
		permanent_address TEXT    NOT NULL,
		id_proof_type     TEXT    NOT NULL,
		id_proof_number   TEXT    NOT NULL,
		room_number       TEXT    NOT NULL,
		monthly_rent      INTEGER NOT NULL,
		security_deposit  INTEGER NOT NULL,
		joining_date      TEXT    NOT NULL,
		meal_preference   TEXT    NOT NULL,
		meal_plan         TEXT    NOT NULL,
		occupation        TEXT    NOT NULL,
		notes             TEXT    NOT NULL DEFAULT '',
		status            TEXT    NOT NULL,
		created_at        TEXT    NOT NULL
	)`

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS tenant_documents (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		tenant_id    INTEGER NOT NULL REFERENCES tenants(id),
		name         TEXT    NOT NULL,
		content_type TEXT    NOT NULL,
		size         INTEGER NOT NULL
	)`

const tenantColumns = `id, full_name, age, email, phone, emergency_contact,
	permanent_address, id_proof_type, id_proof_number, room_number,
	monthly_rent, security_deposit, joining_date, meal_preference,
	meal_plan, occupation, notes, status, created_at`

// New opens the SQLite database at cfg.StoragePath and creates the
// tables if they do not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	s, err := NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already open database and runs the schema.
func NewWithDB(db *sql.DB) (*SQLite, error) {
	// CREATE TABLE IF NOT EXISTS is idempotent: safe on every startup.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite.New: create tenants table: %w", err)
	}
	if _, err := db.Exec(documentsSchema); err != nil {
		return nil, fmt.Errorf("sqlite.New: create tenant_documents table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateTenant inserts the tenant and its documents in one transaction:
// either the whole registration is stored or none of it is.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateTenant(in types.TenantRegistrationInput) (int64, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return 0, fmt.Errorf("CreateTenant: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO tenants (full_name, age, email, phone, emergency_contact,
			permanent_address, id_proof_type, id_proof_number, room_number,
			monthly_rent, security_deposit, joining_date, meal_preference,
			meal_plan, occupation, notes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.FullName, in.Age, in.Email, in.Phone, in.EmergencyContact,
		in.PermanentAddress, string(in.IDProofType), in.IDProofNumber, in.RoomNumber,
		in.MonthlyRent, in.SecurityDeposit, in.JoiningDate.String(), string(in.MealPreference),
		strings.Join(in.MealPlan, ","), in.Occupation, in.Notes,
		types.TenantStatusPending, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("CreateTenant: insert tenant: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateTenant: last insert id: %w", err)
	}

	for _, a := range in.Attachments {
		_, err := tx.Exec(
			"INSERT INTO tenant_documents (tenant_id, name, content_type, size) VALUES (?, ?, ?, ?)",
			id, a.Name, a.ContentType, a.Size,
		)
		if err != nil {
			return 0, fmt.Errorf("CreateTenant: insert document %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("CreateTenant: commit: %w", err)
	}

	return id, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTenant(row scanner) (types.Tenant, error) {
	var (
		t                            types.Tenant
		idProof, mealPref            string
		joining, mealPlan, createdAt string
	)

	err := row.Scan(
		&t.ID, &t.FullName, &t.Age, &t.Email, &t.Phone, &t.EmergencyContact,
		&t.PermanentAddress, &idProof, &t.IDProofNumber, &t.RoomNumber,
		&t.MonthlyRent, &t.SecurityDeposit, &joining, &mealPref,
		&mealPlan, &t.Occupation, &t.Notes, &t.Status, &createdAt,
	)
	if err != nil {
		return types.Tenant{}, err
	}

	t.IDProofType = types.IDProofType(idProof)
	t.MealPreference = types.MealPreference(mealPref)

	t.MealPlan = []string{}
	if mealPlan != "" {
		t.MealPlan = strings.Split(mealPlan, ",")
	}

	if joining != "" {
		if t.JoiningDate, err = types.ParseDate(joining); err != nil {
			return types.Tenant{}, err
		}
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return types.Tenant{}, fmt.Errorf("parse created_at: %w", err)
	}

	t.Documents = []types.Attachment{}
	return t, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetTenantByID fetches one tenant row and its documents.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetTenantByID(id int64) (types.Tenant, error) {
	stmt, err := s.Db.Prepare("SELECT " + tenantColumns + " FROM tenants WHERE id = ? LIMIT 1")
	if err != nil {
		return types.Tenant{}, fmt.Errorf("GetTenantByID: prepare: %w", err)
	}
	defer stmt.Close()

	tenant, err := scanTenant(stmt.QueryRow(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Tenant{}, fmt.Errorf("no tenant found with id %d: %w", id, storage.ErrTenantNotFound)
		}
		return types.Tenant{}, fmt.Errorf("GetTenantByID: scan: %w", err)
	}

	docs, err := s.documents("WHERE tenant_id = ?", id)
	if err != nil {
		return types.Tenant{}, fmt.Errorf("GetTenantByID: %w", err)
	}
	if d, ok := docs[id]; ok {
		tenant.Documents = d
	}

	return tenant, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetTenants returns every tenant, oldest first. Documents are loaded with
// one extra query and grouped in memory rather than one query per tenant.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetTenants() ([]types.Tenant, error) {
	rows, err := s.Db.Query("SELECT " + tenantColumns + " FROM tenants ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("GetTenants: query: %w", err)
	}
	defer rows.Close()

	tenants := make([]types.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("GetTenants: scan row: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetTenants: rows iteration: %w", err)
	}

	if len(tenants) == 0 {
		return tenants, nil
	}

	docs, err := s.documents("")
	if err != nil {
		return nil, fmt.Errorf("GetTenants: %w", err)
	}
	for i := range tenants {
		if d, ok := docs[tenants[i].ID]; ok {
			tenants[i].Documents = d
		}
	}

	return tenants, nil
}

// documents loads tenant_documents rows, grouped by tenant id.
func (s *SQLite) documents(where string, args ...any) (map[int64][]types.Attachment, error) {
	rows, err := s.Db.Query(
		"SELECT tenant_id, name, content_type, size FROM tenant_documents "+where+" ORDER BY id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]types.Attachment)
	for rows.Next() {
		var (
			tenantID int64
			a        types.Attachment
		)
		if err := rows.Scan(&tenantID, &a.Name, &a.ContentType, &a.Size); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[tenantID] = append(out[tenantID], a)
	}

	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteTenantByID removes a tenant and its documents.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) DeleteTenantByID(id int64) error {
	tx, err := s.Db.Begin()
	if err != nil {
		return fmt.Errorf("DeleteTenantByID: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tenant_documents WHERE tenant_id = ?", id); err != nil {
		return fmt.Errorf("DeleteTenantByID: delete documents: %w", err)
	}

	result, err := tx.Exec("DELETE FROM tenants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteTenantByID: delete tenant: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTenantByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no tenant found with id %d: %w", id, storage.ErrTenantNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteTenantByID: commit: %w", err)
	}
	return nil
}
