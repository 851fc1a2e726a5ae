package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/campushq/campus-events/internal/model"
)

// UserRepository is the CRUD view over the store's users.
type UserRepository struct {
	store *Store
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// UserUpdate is the storage-level mutation for a user. The service layer
// resolves a wire request into this (hashing the password outside the
// store lock).
type UserUpdate struct {
	Email        *string
	PasswordHash *string
	Department   *string
	StudentID    *string
	Organization *string
}

// Create inserts a new user. Username and email must be unique,
// case-insensitively.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	uname := strings.ToLower(user.Username)
	email := strings.ToLower(user.Email)
	if _, taken := s.usersByUsername[uname]; taken {
		return model.ErrUsernameTaken
	}
	if _, taken := s.usersByEmail[email]; taken {
		return model.ErrEmailTaken
	}

	s.users[user.ID] = user.Clone()
	s.usersByUsername[uname] = user.ID
	s.usersByEmail[email] = user.ID
	return nil
}

// GetByID returns a single user or ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByUsername looks a user up case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByUsername[strings.ToLower(username)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.users[id].Clone(), nil
}

// GetByEmail looks a user up case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return s.users[id].Clone(), nil
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u.Clone())
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
	return users, nil
}

// Update applies the non-nil fields. An email change is checked for
// uniqueness and re-indexed.
func (r *UserRepository) Update(ctx context.Context, id string, upd UserUpdate) (*model.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}

	if upd.Email != nil && !strings.EqualFold(*upd.Email, u.Email) {
		newEmail := strings.ToLower(*upd.Email)
		if _, taken := s.usersByEmail[newEmail]; taken {
			return nil, model.ErrEmailTaken
		}
		delete(s.usersByEmail, strings.ToLower(u.Email))
		s.usersByEmail[newEmail] = id
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Department != nil {
		u.Department = *upd.Department
	}
	if upd.StudentID != nil {
		u.StudentID = *upd.StudentID
	}
	if upd.Organization != nil {
		u.Organization = *upd.Organization
	}
	return u.Clone(), nil
}

// Delete removes the user. Callers purge the user's registrations through
// the ledger first; any pair that raced in between is unlinked here so no
// event is left holding a deleted attendee.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	for _, eventID := range u.RegisteredEvents {
		if e, ok := s.events[eventID]; ok {
			e.Attendees = removeString(e.Attendees, id)
		}
		if byUser, ok := s.regs[eventID]; ok {
			delete(byUser, id)
			if len(byUser) == 0 {
				delete(s.regs, eventID)
			}
		}
	}
	delete(s.usersByUsername, strings.ToLower(u.Username))
	delete(s.usersByEmail, strings.ToLower(u.Email))
	delete(s.users, id)
	return nil
}
