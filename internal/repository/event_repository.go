package repository

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/campushq/campus-events/internal/model"
	"github.com/google/uuid"
)

// EventRepository is the CRUD view over the store's events.
type EventRepository struct {
	store *Store
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

// Create inserts a new event and returns it with a generated UUID.
// An active event with the same name on the same date is rejected.
func (r *EventRepository) Create(ctx context.Context, req model.CreateEventRequest, organizerID string) (*model.Event, error) {
	now := time.Now().UTC()
	event := &model.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Date:        req.Date,
		StartTime:   req.StartTime,
		Location:    req.Location,
		Capacity:    req.Capacity,
		OrganizerID: organizerID,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duplicateEventLocked(event.Name, event.Date, "") {
		return nil, model.ErrDuplicateEvent
	}
	s.events[event.ID] = event.Clone()
	return event, nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return e.Clone(), nil
}

// List returns all events ordered by creation time descending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, *e.Clone())
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	return events, nil
}

// Update applies the non-nil fields of the request. Renames and date moves
// are checked against the duplicate rule. Capacity may legally drop below
// the current attendee count; nobody is evicted, the event just stops
// admitting until seats free up.
func (r *EventRepository) Update(ctx context.Context, id string, req model.UpdateEventRequest) (*model.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}

	name, date := e.Name, e.Date
	if req.Name != nil {
		name = *req.Name
	}
	if req.Date != nil {
		date = *req.Date
	}
	if (req.Name != nil || req.Date != nil) && s.duplicateEventLocked(name, date, id) {
		return nil, model.ErrDuplicateEvent
	}

	e.Name = name
	e.Date = date
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.StartTime != nil {
		e.StartTime = *req.StartTime
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Capacity != nil {
		e.Capacity = *req.Capacity
	}
	e.UpdatedAt = time.Now().UTC()
	return e.Clone(), nil
}

// Cancel transitions an active event to cancelled.
func (r *EventRepository) Cancel(ctx context.Context, id string) (*model.Event, error) {
	return r.transition(id, model.StatusCancelled)
}

// Complete transitions an active event to completed.
func (r *EventRepository) Complete(ctx context.Context, id string) (*model.Event, error) {
	return r.transition(id, model.StatusCompleted)
}

func (r *EventRepository) transition(id string, to model.EventStatus) (*model.Event, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	if e.Status != model.StatusActive {
		return nil, model.ErrInvalidTransition
	}
	e.Status = to
	e.UpdatedAt = time.Now().UTC()
	return e.Clone(), nil
}

// Delete removes the event. Callers purge its registrations through the
// ledger first; any pair that raced in between is unlinked here so no user
// is left pointing at a deleted event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return model.ErrEventNotFound
	}
	for _, userID := range e.Attendees {
		if u, ok := s.users[userID]; ok {
			u.RegisteredEvents = removeString(u.RegisteredEvents, id)
		}
	}
	delete(s.events, id)
	delete(s.regs, id)
	return nil
}

// duplicateEventLocked reports whether another active event with the same
// name (case-insensitive) exists on the same date. Caller holds the lock.
func (s *Store) duplicateEventLocked(name, date, excludeID string) bool {
	for _, e := range s.events {
		if e.ID == excludeID || e.Status != model.StatusActive {
			continue
		}
		if e.Date == date && strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}
