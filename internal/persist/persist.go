// Package persist writes the in-memory state to durable storage and loads
// it back at boot. Backends sit strictly behind the repository state: they
// are invoked after a mutation is complete, never while a lock is held, so
// a slow or failing backend can delay durability but never corrupt the
// attendance relation.
package persist

import (
	"context"

	"github.com/campushq/campus-events/internal/model"
)

// Snapshot is the full persisted state. Attendee sets and registered-events
// sets are rebuilt from Registrations at load time, since the (event, user)
// pairs are the source of truth.
type Snapshot struct {
	Events        []model.Event
	Users         []model.User
	Registrations []model.Registration
}

// Store is a durable backend. Implementations must be safe for concurrent
// use; callers never invoke them under repository or ledger locks.
type Store interface {
	// Load reads the full persisted state. A fresh backend returns an
	// empty snapshot, not an error.
	Load(ctx context.Context) (*Snapshot, error)

	SaveEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	SaveUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	SaveRegistration(ctx context.Context, reg model.Registration) error
	DeleteRegistration(ctx context.Context, eventID, userID string) error

	// Flush writes a complete snapshot, used at shutdown and by batch
	// flushing. Backends that persist every delta may treat it as a
	// cheap reconciliation.
	Flush(ctx context.Context, snap *Snapshot) error
	Close() error
}

// Noop is the in-memory-only backend: nothing is durable.
type Noop struct{}

// NewNoop returns a backend that persists nothing.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) Load(ctx context.Context) (*Snapshot, error)                        { return &Snapshot{}, nil }
func (*Noop) SaveEvent(ctx context.Context, event *model.Event) error           { return nil }
func (*Noop) DeleteEvent(ctx context.Context, id string) error                  { return nil }
func (*Noop) SaveUser(ctx context.Context, user *model.User) error              { return nil }
func (*Noop) DeleteUser(ctx context.Context, id string) error                   { return nil }
func (*Noop) SaveRegistration(ctx context.Context, reg model.Registration) error { return nil }
func (*Noop) DeleteRegistration(ctx context.Context, eventID, userID string) error {
	return nil
}
func (*Noop) Flush(ctx context.Context, snap *Snapshot) error { return nil }
func (*Noop) Close() error                                    { return nil }
