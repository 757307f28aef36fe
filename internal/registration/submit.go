package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/notify"
	"github.com/aanand-mishra/hostel-api/internal/storage"
	"github.com/aanand-mishra/hostel-api/internal/types"
)

// TenantsPath is where the client is sent after a successful submit.
const TenantsPath = "/tenants"

// SubmissionResult is what a completed registration resolves to.
type SubmissionResult struct {
	TenantID    int64     `json:"tenantId"`
	Redirect    string    `json:"redirect"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Submitter hands a validated registration to whatever persists it.
type Submitter interface {
	Submit(ctx context.Context, input types.TenantRegistrationInput) (SubmissionResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, input types.TenantRegistrationInput) (SubmissionResult, error)

func (f SubmitterFunc) Submit(ctx context.Context, input types.TenantRegistrationInput) (SubmissionResult, error) {
	return f(ctx, input)
}

// Delayed waits d before calling next, the way the portal holds its
// loading state before moving on. Cancelling ctx ends the wait early.
func Delayed(next Submitter, d time.Duration) Submitter {
	if d <= 0 {
		return next
	}

	return SubmitterFunc(func(ctx context.Context, input types.TenantRegistrationInput) (SubmissionResult, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return SubmissionResult{}, ctx.Err()
		case <-timer.C:
		}

		return next.Submit(ctx, input)
	})
}

// Persist stores the registration as a new tenant and announces it on
// pub. A failed announcement is logged; the tenant stays stored.
func Persist(store storage.Storage, pub notify.Publisher, log *slog.Logger) Submitter {
	return SubmitterFunc(func(ctx context.Context, input types.TenantRegistrationInput) (SubmissionResult, error) {
		if err := ctx.Err(); err != nil {
			return SubmissionResult{}, err
		}

		id, err := store.CreateTenant(input)
		if err != nil {
			return SubmissionResult{}, fmt.Errorf("persist registration: %w", err)
		}

		log.Info("tenant registered",
			slog.Int64("id", id),
			slog.String("room", input.RoomNumber),
			slog.Int("attachments", len(input.Attachments)))

		tenant, err := store.GetTenantByID(id)
		if err != nil {
			log.Warn("registered tenant could not be reloaded",
				slog.Int64("id", id), slog.String("error", err.Error()))
		} else if err := pub.TenantRegistered(ctx, tenant); err != nil {
			log.Warn("tenant registration event not published",
				slog.Int64("id", id), slog.String("error", err.Error()))
		}

		return SubmissionResult{
			TenantID:    id,
			Redirect:    TenantsPath,
			SubmittedAt: time.Now().UTC(),
		}, nil
	})
}
