package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/campushq/campus-events/internal/auth"
	"github.com/campushq/campus-events/internal/ledger"
	"github.com/campushq/campus-events/internal/logger"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/persist"
	"github.com/campushq/campus-events/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService orchestrates account management.
type UserService struct {
	users  *repository.UserRepository
	events *repository.EventRepository
	ledger *ledger.Ledger
	store  persist.Store
	log    *logger.Logger
}

// NewUserService constructs a UserService with its dependencies.
func NewUserService(
	users *repository.UserRepository,
	events *repository.EventRepository,
	led *ledger.Ledger,
	store persist.Store,
) *UserService {
	return &UserService{
		users:  users,
		events: events,
		ledger: led,
		store:  store,
		log:    logger.Get(),
	}
}

// Signup creates a self-service account. Only the roles a visitor may
// claim for themselves are allowed; staff roles are granted by admins.
func (s *UserService) Signup(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if req.Role != model.RoleStudent && req.Role != model.RoleVisitor {
		return nil, fmt.Errorf("%w: role must be student or visitor", model.ErrValidation)
	}
	return s.createUser(ctx, req)
}

// CreateUser creates an account with any role. Admin only.
func (s *UserService) CreateUser(ctx context.Context, caller model.Identity, req model.CreateUserRequest) (*model.User, error) {
	if !caller.Role.Can(model.PermManageUsers) {
		return nil, model.ErrPermissionDenied
	}
	if req.Role == "" {
		req.Role = model.RoleStudent
	}
	if !req.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, req.Role)
	}
	return s.createUser(ctx, req)
}

// usernamePattern: 3-50 characters, starting with a letter, then
// letters, digits, underscore or hyphen.
var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{2,49}$`)

func (s *UserService) createUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if !usernamePattern.MatchString(req.Username) {
		return nil, fmt.Errorf("%w: username must be 3-50 characters, start with a letter, and contain only letters, digits, underscore or hyphen", model.ErrValidation)
	}
	if !isValidEmail(req.Email) {
		return nil, fmt.Errorf("%w: email is not a valid email address", model.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", model.ErrValidation)
	}

	// Hashing is slow, so it happens before the store lock is taken.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Department:   strings.TrimSpace(req.Department),
		StudentID:    strings.TrimSpace(req.StudentID),
		Organization: strings.TrimSpace(req.Organization),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return user, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return user, nil
}

// GetUser returns one account. Callers see themselves; admins see anyone.
func (s *UserService) GetUser(ctx context.Context, caller model.Identity, id string) (*model.User, error) {
	if id != caller.UserID && !caller.Role.Can(model.PermManageUsers) {
		return nil, model.ErrPermissionDenied
	}
	return s.users.GetByID(ctx, id)
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, caller model.Identity) ([]model.User, error) {
	if !caller.Role.Can(model.PermManageUsers) {
		return nil, model.ErrPermissionDenied
	}
	return s.users.List(ctx)
}

// UpdateUser applies a partial update to an account. Callers edit
// themselves; admins edit anyone.
func (s *UserService) UpdateUser(ctx context.Context, caller model.Identity, id string, req model.UpdateUserRequest) (*model.User, error) {
	if id != caller.UserID && !caller.Role.Can(model.PermManageUsers) {
		return nil, model.ErrPermissionDenied
	}

	upd := repository.UserUpdate{
		Department:   req.Department,
		StudentID:    req.StudentID,
		Organization: req.Organization,
	}
	if req.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*req.Email))
		if !isValidEmail(email) {
			return nil, fmt.Errorf("%w: email is not a valid email address", model.ErrValidation)
		}
		upd.Email = &email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", model.ErrValidation)
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		upd.PasswordHash = &hash
	}

	user, err := s.users.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return user, fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return user, nil
}

// DeleteUser unregisters the account from every event and removes it.
// Admin only.
func (s *UserService) DeleteUser(ctx context.Context, caller model.Identity, id string) error {
	if !caller.Role.Can(model.PermManageUsers) {
		return model.ErrPermissionDenied
	}

	removed, err := s.ledger.PurgeUser(ctx, id)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.log.Info("released seats of deleted user",
			zap.String("user_id", id),
			zap.Int("count", removed),
		)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistenceFailed, err)
	}
	return nil
}

// UserEvents resolves the account's registered event IDs into events.
// Callers see their own; admins see anyone's.
func (s *UserService) UserEvents(ctx context.Context, caller model.Identity, id string) ([]model.Event, error) {
	if id != caller.UserID && !caller.Role.Can(model.PermManageUsers) {
		return nil, model.ErrPermissionDenied
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(user.RegisteredEvents))
	for _, eventID := range user.RegisteredEvents {
		event, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			continue
		}
		events = append(events, *event)
	}
	return events, nil
}

// SeedAdmin ensures a bootstrap admin account exists so a fresh deploy
// is never locked out. It is a no-op when the username is taken.
func (s *UserService) SeedAdmin(ctx context.Context, username, email, password string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return err
	}

	user, err := s.createUser(ctx, model.CreateUserRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info("seeded admin account", zap.String("user_id", user.ID), zap.String("username", username))
	return nil
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
