// Package notify announces registration events to other services.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/types"
	"github.com/nats-io/nats.go"
)

// Publisher announces that a tenant has been registered.
type Publisher interface {
	TenantRegistered(ctx context.Context, tenant types.Tenant) error
	Close()
}

// Event is the message body published for every registration.
type Event struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Tenant     types.Tenant `json:"tenant"`
}

const EventTenantRegistered = "tenant.registered"

const flushTimeout = 5 * time.Second

func encode(tenant types.Tenant, now time.Time) ([]byte, error) {
	return json.Marshal(Event{
		Type:       EventTenantRegistered,
		OccurredAt: now.UTC(),
		Tenant:     tenant,
	})
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATS publishes events to a NATS subject.
type NATS struct {
	conn    conn
	subject string
	now     func() time.Time
}

// NewNATS connects to the server at url.
func NewNATS(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("hostel-api"))
	if err != nil {
		return nil, fmt.Errorf("notify.NewNATS: connect %s: %w", url, err)
	}
	return &NATS{conn: nc, subject: subject, now: time.Now}, nil
}

func (n *NATS) TenantRegistered(ctx context.Context, tenant types.Tenant) error {
	data, err := encode(tenant, n.now())
	if err != nil {
		return fmt.Errorf("TenantRegistered: encode: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("TenantRegistered: publish: %w", err)
	}
	// FlushWithContext refuses a context without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("TenantRegistered: flush: %w", err)
	}
	return nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

// Nop drops every event. Used when no NATS server is configured.
type Nop struct{}

func (Nop) TenantRegistered(context.Context, types.Tenant) error { return nil }
func (Nop) Close()                                                {}
