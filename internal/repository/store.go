// Package repository holds the authoritative in-memory state for events,
// users, and registrations. A single RWMutex guards all of it so that the
// event attendee sets and the user registered-events sets can never be
// observed out of sync. Durable storage is written behind this state by
// the persist package.
package repository

import (
	"sort"
	"strings"
	"sync"

	"github.com/campushq/campus-events/internal/model"
)

// Store is the shared in-memory state. Access goes through the
// EventRepository, UserRepository, and RegistrationRepository views.
type Store struct {
	mu sync.RWMutex

	events map[string]*model.Event
	users  map[string]*model.User

	// Secondary indexes, keyed by lowercased value.
	usersByUsername map[string]string
	usersByEmail    map[string]string

	// regs is the registration relation: eventID -> userID -> record.
	regs map[string]map[string]model.Registration
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		events:          make(map[string]*model.Event),
		users:           make(map[string]*model.User),
		usersByUsername: make(map[string]string),
		usersByEmail:    make(map[string]string),
		regs:            make(map[string]map[string]model.Registration),
	}
}

// Restore replaces all state from a loaded snapshot. Attendee sets and
// registered-events sets are rebuilt from the registration records, since
// the (event, user) pairs are the source of truth. Registrations that
// reference a missing event or user are dropped; the count of dropped
// records is returned so the caller can log it.
func (s *Store) Restore(events []model.Event, users []model.User, regs []model.Registration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string]*model.Event, len(events))
	s.users = make(map[string]*model.User, len(users))
	s.usersByUsername = make(map[string]string, len(users))
	s.usersByEmail = make(map[string]string, len(users))
	s.regs = make(map[string]map[string]model.Registration)

	for i := range events {
		e := events[i].Clone()
		e.Attendees = nil
		s.events[e.ID] = e
	}
	for i := range users {
		u := users[i].Clone()
		u.RegisteredEvents = nil
		s.users[u.ID] = u
		s.usersByUsername[strings.ToLower(u.Username)] = u.ID
		s.usersByEmail[strings.ToLower(u.Email)] = u.ID
	}

	dropped := 0
	for _, reg := range regs {
		e, okE := s.events[reg.EventID]
		u, okU := s.users[reg.UserID]
		if !okE || !okU || e.HasAttendee(reg.UserID) {
			dropped++
			continue
		}
		e.Attendees = append(e.Attendees, reg.UserID)
		u.RegisteredEvents = append(u.RegisteredEvents, reg.EventID)
		byUser, ok := s.regs[reg.EventID]
		if !ok {
			byUser = make(map[string]model.Registration)
			s.regs[reg.EventID] = byUser
		}
		byUser[reg.UserID] = reg
	}
	return dropped
}

// Snapshot returns deep copies of all state, each slice ordered by
// creation time so snapshot files stay diffable.
func (s *Store) Snapshot() ([]model.Event, []model.User, []model.Registration) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, *e.Clone())
	}
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u.Clone())
	}
	var regs []model.Registration
	for _, byUser := range s.regs {
		for _, reg := range byUser {
			regs = append(regs, reg)
		}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID < events[j].ID
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return events, users, regs
}

// Counts returns the number of events, users, and registrations.
func (s *Store) Counts() (events, users, regs int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, byUser := range s.regs {
		regs += len(byUser)
	}
	return len(s.events), len(s.users), regs
}

// removeString removes the first occurrence of v from the slice.
func removeString(ss []string, v string) []string {
	for i, s := range ss {
		if s == v {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}
