// Package ledger owns the event attendance relation. Register and
// Unregister are the only ways a registration is ever created or removed,
// which is what keeps capacity accounting correct and the event attendee
// sets symmetric with the user registered-events sets.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campushq/campus-events/internal/model"
	"github.com/google/uuid"
)

// EventSource supplies event state to the admission checks.
type EventSource interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// UserSource supplies user existence checks.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Relation applies and removes registrations, both relation sides together.
type Relation interface {
	Apply(ctx context.Context, reg model.Registration) (*model.Event, error)
	Remove(ctx context.Context, eventID, userID string) (*model.Event, error)
	RemoveAllForEvent(ctx context.Context, eventID string) ([]model.Registration, error)
	RemoveAllForUser(ctx context.Context, userID string) ([]model.Registration, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error)
}

// Journal writes registration changes to durable storage. It is invoked
// only after the in-memory mutation is complete and all locks are
// released; implementations may write through or batch.
type Journal interface {
	SaveRegistration(ctx context.Context, reg model.Registration) error
	DeleteRegistration(ctx context.Context, eventID, userID string) error
}

// Options holds registration policy settings.
type Options struct {
	// AllowUnregisterCompleted permits unregistering from a completed
	// event. Cancelled events always allow it.
	AllowUnregisterCompleted bool
}

// Ledger serialises registration traffic per event. Concurrent calls
// against the same event take turns; calls against different events
// proceed independently. No I/O happens while an event lock is held.
type Ledger struct {
	events   EventSource
	users    UserSource
	relation Relation
	journal  Journal
	opts     Options

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Ledger.
func New(events EventSource, users UserSource, relation Relation, journal Journal, opts Options) *Ledger {
	return &Ledger{
		events:   events,
		users:    users,
		relation: relation,
		journal:  journal,
		opts:     opts,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockEvent returns the mutex serialising one event's registrations.
// Callers resolve the event before asking for its lock, and PurgeEvent
// evicts the entry, so the map only holds live events.
func (l *Ledger) lockEvent(eventID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	return m
}

// Register checks admission and records the registration. The checks run
// in a fixed order, each failing with its own error: event exists, user
// exists, event open, not a duplicate, seats remaining.
//
// When the journal write fails the in-memory registration is kept and the
// error matches model.ErrPersistenceFailed; the returned result is still
// valid, only durability lagged.
func (l *Ledger) Register(ctx context.Context, eventID, userID string) (*model.RegistrationResult, error) {
	reg, event, err := l.register(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	res := resultFor(event, userID, reg.CreatedAt)
	if err := l.journal.SaveRegistration(ctx, reg); err != nil {
		return res, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return res, nil
}

func (l *Ledger) register(ctx context.Context, eventID, userID string) (model.Registration, *model.Event, error) {
	// Resolve the event before taking its lock so lookups of unknown
	// IDs never leave an entry in the lock map.
	if _, err := l.events.GetByID(ctx, eventID); err != nil {
		return model.Registration{}, nil, err
	}

	mu := l.lockEvent(eventID)
	mu.Lock()
	defer mu.Unlock()

	// Re-fetched under the lock; the event may have changed in between.
	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return model.Registration{}, nil, err
	}
	if _, err := l.users.GetByID(ctx, userID); err != nil {
		return model.Registration{}, nil, err
	}
	if event.Status != model.StatusActive {
		return model.Registration{}, nil, model.ErrEventNotOpen
	}
	if event.HasAttendee(userID) {
		return model.Registration{}, nil, model.ErrAlreadyRegistered
	}
	if event.AttendeeCount() >= event.Capacity {
		return model.Registration{}, nil, model.ErrEventFull
	}

	reg := model.Registration{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	updated, err := l.relation.Apply(ctx, reg)
	if err != nil {
		return model.Registration{}, nil, err
	}
	return reg, updated, nil
}

// Unregister removes a registration. Repeating the call is not a no-op:
// the second attempt fails with ErrNotRegistered so clients can detect
// stale state.
func (l *Ledger) Unregister(ctx context.Context, eventID, userID string) (*model.RegistrationResult, error) {
	event, removedAt, err := l.unregister(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}

	res := resultFor(event, userID, removedAt)
	if err := l.journal.DeleteRegistration(ctx, eventID, userID); err != nil {
		return res, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return res, nil
}

func (l *Ledger) unregister(ctx context.Context, eventID, userID string) (*model.Event, time.Time, error) {
	if _, err := l.events.GetByID(ctx, eventID); err != nil {
		return nil, time.Time{}, err
	}

	mu := l.lockEvent(eventID)
	mu.Lock()
	defer mu.Unlock()

	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, time.Time{}, err
	}
	if _, err := l.users.GetByID(ctx, userID); err != nil {
		return nil, time.Time{}, err
	}
	if !event.HasAttendee(userID) {
		return nil, time.Time{}, model.ErrNotRegistered
	}
	if event.Status == model.StatusCompleted && !l.opts.AllowUnregisterCompleted {
		return nil, time.Time{}, model.ErrEventNotOpen
	}

	updated, err := l.relation.Remove(ctx, eventID, userID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return updated, time.Now().UTC(), nil
}

// PurgeEvent removes every registration of an event, for event deletion.
// Returns how many registrations were dropped.
func (l *Ledger) PurgeEvent(ctx context.Context, eventID string) (int, error) {
	mu := l.lockEvent(eventID)
	mu.Lock()
	removed, err := l.relation.RemoveAllForEvent(ctx, eventID)
	mu.Unlock()

	l.mu.Lock()
	delete(l.locks, eventID)
	l.mu.Unlock()

	if err != nil {
		return 0, err
	}

	for _, reg := range removed {
		if err := l.journal.DeleteRegistration(ctx, reg.EventID, reg.UserID); err != nil {
			return len(removed), fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
		}
	}
	return len(removed), nil
}

// PurgeUser removes every registration of a user, for user deletion.
func (l *Ledger) PurgeUser(ctx context.Context, userID string) (int, error) {
	removed, err := l.relation.RemoveAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	for _, reg := range removed {
		if err := l.journal.DeleteRegistration(ctx, reg.EventID, reg.UserID); err != nil {
			return len(removed), fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
		}
	}
	return len(removed), nil
}

// Registrations returns the registrations of an event in creation order.
func (l *Ledger) Registrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	return l.relation.ListByEvent(ctx, eventID)
}

// Snapshot reports an event's current admission state.
func (l *Ledger) Snapshot(ctx context.Context, eventID string) (*model.RegistrationResult, error) {
	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return resultFor(event, "", time.Time{}), nil
}

func resultFor(e *model.Event, userID string, at time.Time) *model.RegistrationResult {
	return &model.RegistrationResult{
		EventID:   e.ID,
		UserID:    userID,
		Attendees: e.AttendeeCount(),
		Capacity:  e.Capacity,
		FillRatio: e.FillRatio(),
		Timestamp: at,
	}
}
