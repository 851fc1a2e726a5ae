package repository

import (
	"context"
	"sort"
	"time"

	"github.com/campushq/campus-events/internal/model"
)

// RegistrationRepository is the privileged view over the registration
// relation. Only the ledger calls its mutators; everything else reads.
//
// Apply and Remove update the event's attendee set and the user's
// registered-events set inside one write-lock section, so no reader can
// ever observe the two sides out of sync.
type RegistrationRepository struct {
	store *Store
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(store *Store) *RegistrationRepository {
	return &RegistrationRepository{store: store}
}

// Apply records a registration. All admission preconditions are verified
// again under the write lock; the ledger's per-event lock serialises
// check-then-act, this recheck guards against interleaved event edits.
func (r *RegistrationRepository) Apply(ctx context.Context, reg model.Registration) (*model.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[reg.EventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	u, ok := s.users[reg.UserID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if e.Status != model.StatusActive {
		return nil, model.ErrEventNotOpen
	}
	if e.HasAttendee(reg.UserID) {
		return nil, model.ErrAlreadyRegistered
	}
	if len(e.Attendees) >= e.Capacity {
		return nil, model.ErrEventFull
	}

	e.Attendees = append(e.Attendees, reg.UserID)
	u.RegisteredEvents = append(u.RegisteredEvents, reg.EventID)
	byUser, ok := s.regs[reg.EventID]
	if !ok {
		byUser = make(map[string]model.Registration)
		s.regs[reg.EventID] = byUser
	}
	byUser[reg.UserID] = reg
	e.UpdatedAt = reg.CreatedAt
	return e.Clone(), nil
}

// Remove deletes a registration, again updating both sides together.
func (r *RegistrationRepository) Remove(ctx context.Context, eventID, userID string) (*model.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	byUser := s.regs[eventID]
	if _, registered := byUser[userID]; !registered {
		return nil, model.ErrNotRegistered
	}

	e.Attendees = removeString(e.Attendees, userID)
	if u, ok := s.users[userID]; ok {
		u.RegisteredEvents = removeString(u.RegisteredEvents, eventID)
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(s.regs, eventID)
	}
	e.UpdatedAt = time.Now().UTC()
	return e.Clone(), nil
}

// RemoveAllForEvent drops every registration of an event, used before the
// event itself is deleted. Returns the removed records.
func (r *RegistrationRepository) RemoveAllForEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]
	if !ok {
		return nil, model.ErrEventNotFound
	}

	removed := make([]model.Registration, 0, len(s.regs[eventID]))
	for userID, reg := range s.regs[eventID] {
		if u, ok := s.users[userID]; ok {
			u.RegisteredEvents = removeString(u.RegisteredEvents, eventID)
		}
		removed = append(removed, reg)
	}
	e.Attendees = nil
	delete(s.regs, eventID)
	sortRegistrations(removed)
	return removed, nil
}

// RemoveAllForUser drops every registration of a user, used before the
// user is deleted. Returns the removed records.
func (r *RegistrationRepository) RemoveAllForUser(ctx context.Context, userID string) ([]model.Registration, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}

	var removed []model.Registration
	for _, eventID := range u.RegisteredEvents {
		if e, ok := s.events[eventID]; ok {
			e.Attendees = removeString(e.Attendees, userID)
		}
		if byUser, ok := s.regs[eventID]; ok {
			if reg, registered := byUser[userID]; registered {
				removed = append(removed, reg)
				delete(byUser, userID)
				if len(byUser) == 0 {
					delete(s.regs, eventID)
				}
			}
		}
	}
	u.RegisteredEvents = nil
	sortRegistrations(removed)
	return removed, nil
}

// ListByEvent returns all registrations for an event in creation order.
func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.events[eventID]; !ok {
		return nil, model.ErrEventNotFound
	}
	regs := make([]model.Registration, 0, len(s.regs[eventID]))
	for _, reg := range s.regs[eventID] {
		regs = append(regs, reg)
	}
	sortRegistrations(regs)
	return regs, nil
}

// ListByUser returns all registrations of a user in creation order.
func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	var regs []model.Registration
	for _, eventID := range u.RegisteredEvents {
		if reg, registered := s.regs[eventID][userID]; registered {
			regs = append(regs, reg)
		}
	}
	sortRegistrations(regs)
	return regs, nil
}

func sortRegistrations(regs []model.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
}
