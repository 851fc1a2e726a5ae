// Package model defines the core domain types for the campus event system.
package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusActive    EventStatus = "active"
	StatusCancelled EventStatus = "cancelled"
	StatusCompleted EventStatus = "completed"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s EventStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s EventStatus) String() string {
	return string(s)
}

// Date and time layouts used throughout the system.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Event represents a campus event created by an organizer or admin.
// Attendees holds user IDs in registration order; it is mutated only
// through the registration ledger.
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Date        string      `json:"date"`       // DateLayout
	StartTime   string      `json:"start_time"` // TimeLayout
	Location    string      `json:"location"`
	Capacity    int         `json:"capacity"`
	OrganizerID string      `json:"organizer_id"`
	Status      EventStatus `json:"status"`
	Attendees   []string    `json:"attendees"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AttendeeCount returns the number of registered attendees.
func (e *Event) AttendeeCount() int {
	return len(e.Attendees)
}

// Remaining returns the number of available seats. It can be negative
// when capacity was edited below the current attendee count.
func (e *Event) Remaining() int {
	return e.Capacity - len(e.Attendees)
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return len(e.Attendees) >= e.Capacity
}

// FillRatio returns attendees divided by capacity, 0 when capacity is 0.
func (e *Event) FillRatio() float64 {
	if e.Capacity <= 0 {
		return 0
	}
	return float64(len(e.Attendees)) / float64(e.Capacity)
}

// HasAttendee reports whether the user is registered for this event.
func (e *Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// StartsAt parses the event's date and start time into a single instant.
func (e *Event) StartsAt() (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, e.Date+" "+e.StartTime)
}

// IsUpcoming reports whether the event starts after the given instant.
// Events with an unparseable date are never upcoming.
func (e *Event) IsUpcoming(now time.Time) bool {
	starts, err := e.StartsAt()
	if err != nil {
		return false
	}
	return starts.After(now)
}

// Clone returns a deep copy so callers can never alias store state.
func (e *Event) Clone() *Event {
	c := *e
	c.Attendees = append([]string(nil), e.Attendees...)
	return &c
}

// Registration represents a user's registration for an event. Existence
// of the (event, user) pair is the sole source of truth for "is registered".
type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RegistrationResult summarises the outcome of a successful register or
// unregister call: the updated attendee count and fill ratio.
type RegistrationResult struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Attendees int       `json:"attendees"`
	Capacity  int       `json:"capacity"`
	FillRatio float64   `json:"fill_ratio"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
}

// UpdateEventRequest is the payload for partially updating an event.
// Nil fields are left unchanged.
type UpdateEventRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	StartTime   *string `json:"start_time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
}

// RegisterRequest optionally names the user to register. An empty body
// means the authenticated caller registers themselves.
type RegisterRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// BulkImportRequest carries a batch of events to create in one call.
type BulkImportRequest struct {
	Events []CreateEventRequest `json:"events"`
}

// BulkImportResult reports the outcome for one entry of a bulk import.
type BulkImportResult struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
