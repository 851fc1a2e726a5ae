// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/campushq/campus-events/internal/ledger"
	"github.com/campushq/campus-events/internal/logger"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/persist"
	"github.com/campushq/campus-events/internal/publisher"
	"github.com/campushq/campus-events/internal/repository"
	"go.uber.org/zap"
)

// searchFunc reports whether an event matches a query for one field.
type searchFunc func(e *model.Event, query string) bool

// EventService orchestrates event-related business operations.
type EventService struct {
	events *repository.EventRepository
	ledger *ledger.Ledger
	store  persist.Store
	pub    publisher.Publisher
	log    *logger.Logger

	// search maps a field name to its matcher. Built once at startup;
	// an unknown field is a client error, not a switch default.
	search map[string]searchFunc
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events *repository.EventRepository,
	led *ledger.Ledger,
	store persist.Store,
	pub publisher.Publisher,
) *EventService {
	return &EventService{
		events: events,
		ledger: led,
		store:  store,
		pub:    pub,
		log:    logger.Get(),
		search: map[string]searchFunc{
			"name": func(e *model.Event, q string) bool {
				return strings.Contains(strings.ToLower(e.Name), q)
			},
			"location": func(e *model.Event, q string) bool {
				return strings.Contains(strings.ToLower(e.Location), q)
			},
			"date": func(e *model.Event, q string) bool {
				return e.Date == q
			},
		},
	}
}

// CreateEvent validates the request and delegates to the repository.
func (s *EventService) CreateEvent(ctx context.Context, caller model.Identity, req model.CreateEventRequest) (*model.Event, error) {
	if !caller.Role.Can(model.PermCreateEvents) {
		return nil, model.ErrPermissionDenied
	}
	if err := validateEventRequest(&req); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, req, caller.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.pub.EventCreated(ctx, event); err != nil {
		s.log.Warn("publish failed", zap.String("type", publisher.TypeEventCreated), zap.Error(err))
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return event, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return event, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrValidation)
	}
	return s.events.GetByID(ctx, id)
}

// ListEvents returns all events, newest first.
func (s *EventService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.events.List(ctx)
}

// EventsByStatus returns all events with the given status, newest first.
func (s *EventService) EventsByStatus(ctx context.Context, status model.EventStatus) ([]model.Event, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", model.ErrValidation, status)
	}
	all, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]model.Event, 0)
	for _, e := range all {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// UpcomingEvents returns active events that have not started yet,
// soonest first.
func (s *EventService) UpcomingEvents(ctx context.Context) ([]model.Event, error) {
	all, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	upcoming := make([]model.Event, 0)
	for _, e := range all {
		if e.Status == model.StatusActive && e.IsUpcoming(now) {
			upcoming = append(upcoming, e)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].Date == upcoming[j].Date {
			return upcoming[i].StartTime < upcoming[j].StartTime
		}
		return upcoming[i].Date < upcoming[j].Date
	})
	return upcoming, nil
}

// SearchEvents matches active events against one field. Supported
// fields are the keys of the search table.
func (s *EventService) SearchEvents(ctx context.Context, field, query string) ([]model.Event, error) {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", model.ErrValidation)
	}
	match, ok := s.search[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownSearchField, field)
	}

	all, err := s.events.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Event, 0)
	for _, e := range all {
		if e.Status != model.StatusActive {
			continue
		}
		if match(&e, query) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date == matched[j].Date {
			return matched[i].StartTime < matched[j].StartTime
		}
		return matched[i].Date < matched[j].Date
	})
	return matched, nil
}

// UpdateEvent applies a partial update to an event the caller manages.
func (s *EventService) UpdateEvent(ctx context.Context, caller model.Identity, id string, req model.UpdateEventRequest) (*model.Event, error) {
	if err := s.authorizeManage(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := validateEventUpdate(&req); err != nil {
		return nil, err
	}

	event, err := s.events.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return event, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return event, nil
}

// CancelEvent marks an active event cancelled. Attendees stay on the
// books so the cancellation can be audited.
func (s *EventService) CancelEvent(ctx context.Context, caller model.Identity, id string) (*model.Event, error) {
	if err := s.authorizeManage(ctx, caller, id); err != nil {
		return nil, err
	}

	event, err := s.events.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.pub.EventCancelled(ctx, event); err != nil {
		s.log.Warn("publish failed", zap.String("type", publisher.TypeEventCancelled), zap.Error(err))
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return event, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return event, nil
}

// CompleteEvent marks an active event completed.
func (s *EventService) CompleteEvent(ctx context.Context, caller model.Identity, id string) (*model.Event, error) {
	if err := s.authorizeManage(ctx, caller, id); err != nil {
		return nil, err
	}

	event, err := s.events.Complete(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.pub.EventCompleted(ctx, event); err != nil {
		s.log.Warn("publish failed", zap.String("type", publisher.TypeEventCompleted), zap.Error(err))
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return event, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return event, nil
}

// DeleteEvent unregisters every attendee and removes the event.
func (s *EventService) DeleteEvent(ctx context.Context, caller model.Identity, id string) error {
	if err := s.authorizeManage(ctx, caller, id); err != nil {
		return err
	}

	removed, err := s.ledger.PurgeEvent(ctx, id)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("unregistered attendees of deleted event",
			zap.String("event_id", id),
			zap.Int("count", removed),
		)
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return nil
}

// Register books a seat. Callers may register themselves; registering
// someone else requires event management rights.
func (s *EventService) Register(ctx context.Context, caller model.Identity, eventID, userID string) (*model.RegistrationResult, error) {
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.Role.Can(model.PermManageAllEvents) {
		return nil, model.ErrPermissionDenied
	}

	res, err := s.ledger.Register(ctx, eventID, userID)
	if res != nil {
		if pubErr := s.pub.RegistrationCreated(ctx, res); pubErr != nil {
			s.log.Warn("publish failed", zap.String("type", publisher.TypeRegistrationCreated), zap.Error(pubErr))
		}
	}
	return res, err
}

// Unregister releases a seat, with the same authorization rule as Register.
func (s *EventService) Unregister(ctx context.Context, caller model.Identity, eventID, userID string) (*model.RegistrationResult, error) {
	if userID == "" {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.Role.Can(model.PermManageAllEvents) {
		return nil, model.ErrPermissionDenied
	}

	res, err := s.ledger.Unregister(ctx, eventID, userID)
	if res != nil {
		if pubErr := s.pub.RegistrationRemoved(ctx, res); pubErr != nil {
			s.log.Warn("publish failed", zap.String("type", publisher.TypeRegistrationRemoved), zap.Error(pubErr))
		}
	}
	return res, err
}

// Attendees lists an event's registrations in registration order.
// Visible to admins and to the event's own organizer.
func (s *EventService) Attendees(ctx context.Context, caller model.Identity, eventID string) ([]model.Registration, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.Can(model.PermViewAllAttendees) && !s.ownsEvent(caller, event) {
		return nil, model.ErrPermissionDenied
	}
	return s.ledger.Registrations(ctx, eventID)
}

// Availability reports the current seat usage of one event.
func (s *EventService) Availability(ctx context.Context, eventID string) (*model.RegistrationResult, error) {
	return s.ledger.Snapshot(ctx, eventID)
}

// BulkImport creates a batch of events, reporting per-entry outcomes.
// A failed entry never aborts the rest of the batch.
func (s *EventService) BulkImport(ctx context.Context, caller model.Identity, req model.BulkImportRequest) ([]model.BulkImportResult, error) {
	if !caller.Role.Can(model.PermCreateEvents) {
		return nil, model.ErrPermissionDenied
	}
	if len(req.Events) == 0 {
		return nil, fmt.Errorf("%w: events list is empty", model.ErrValidation)
	}

	results := make([]model.BulkImportResult, 0, len(req.Events))
	for i, entry := range req.Events {
		event, err := s.CreateEvent(ctx, caller, entry)
		if err != nil {
			results = append(results, model.BulkImportResult{Index: i, Error: err.Error()})
			continue
		}
		results = append(results, model.BulkImportResult{Index: i, EventID: event.ID})
	}
	return results, nil
}

// CompleteElapsed marks every active event whose start time has passed
// as completed. The scheduler calls this periodically.
func (s *EventService) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	all, err := s.events.List(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, e := range all {
		if e.Status != model.StatusActive {
			continue
		}
		starts, err := e.StartsAt()
		if err != nil || starts.After(now) {
			continue
		}

		event, err := s.events.Complete(ctx, e.ID)
		if err != nil {
			s.log.Warn("auto-complete failed", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		completed++
		if err := s.pub.EventCompleted(ctx, event); err != nil {
			s.log.Warn("publish failed", zap.String("type", publisher.TypeEventCompleted), zap.Error(err))
		}
		if err := s.store.SaveEvent(ctx, event); err != nil {
			s.log.Error("persist failed for auto-completed event", zap.String("event_id", e.ID), zap.Error(err))
		}
	}
	return completed, nil
}

// authorizeManage loads the event and checks the caller may manage it:
// either a blanket manage permission or ownership of this event.
func (s *EventService) authorizeManage(ctx context.Context, caller model.Identity, eventID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if caller.Role.Can(model.PermManageAllEvents) {
		return nil
	}
	if s.ownsEvent(caller, event) {
		return nil
	}
	return model.ErrPermissionDenied
}

func (s *EventService) ownsEvent(caller model.Identity, event *model.Event) bool {
	return caller.Role.Can(model.PermManageOwnEvents) && event.OrganizerID == caller.UserID
}

func validateEventRequest(req *model.CreateEventRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" {
		return fmt.Errorf("%w: event name is required", model.ErrValidation)
	}
	if req.Location == "" {
		return fmt.Errorf("%w: location is required", model.ErrValidation)
	}
	if req.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be a positive integer", model.ErrValidation)
	}
	if req.Capacity > 100_000 {
		return fmt.Errorf("%w: capacity cannot exceed 100,000", model.ErrValidation)
	}
	if _, err := time.Parse(model.DateLayout, req.Date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD format", model.ErrValidation)
	}
	if _, err := time.Parse(model.TimeLayout, req.StartTime); err != nil {
		return fmt.Errorf("%w: start_time must be in HH:MM format", model.ErrValidation)
	}
	return nil
}

func validateEventUpdate(req *model.UpdateEventRequest) error {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return fmt.Errorf("%w: event name cannot be empty", model.ErrValidation)
		}
		*req.Name = trimmed
	}
	if req.Location != nil {
		trimmed := strings.TrimSpace(*req.Location)
		if trimmed == "" {
			return fmt.Errorf("%w: location cannot be empty", model.ErrValidation)
		}
		*req.Location = trimmed
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return fmt.Errorf("%w: capacity must be a positive integer", model.ErrValidation)
		}
		if *req.Capacity > 100_000 {
			return fmt.Errorf("%w: capacity cannot exceed 100,000", model.ErrValidation)
		}
	}
	if req.Date != nil {
		if _, err := time.Parse(model.DateLayout, *req.Date); err != nil {
			return fmt.Errorf("%w: date must be in YYYY-MM-DD format", model.ErrValidation)
		}
	}
	if req.StartTime != nil {
		if _, err := time.Parse(model.TimeLayout, *req.StartTime); err != nil {
			return fmt.Errorf("%w: start_time must be in HH:MM format", model.ErrValidation)
		}
	}
	return nil
}
