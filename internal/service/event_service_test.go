package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campushq/campus-events/internal/ledger"
	"github.com/campushq/campus-events/internal/model"
	"github.com/campushq/campus-events/internal/persist"
	"github.com/campushq/campus-events/internal/publisher"
	"github.com/campushq/campus-events/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) EventCreated(ctx context.Context, event *model.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) EventCancelled(ctx context.Context, event *model.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) EventCompleted(ctx context.Context, event *model.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) RegistrationCreated(ctx context.Context, res *model.RegistrationResult) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockPublisher) RegistrationRemoved(ctx context.Context, res *model.RegistrationResult) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockPublisher) Close() {
	m.Called()
}

// failingStore wraps the no-op backend and fails selected writes.
type failingStore struct {
	persist.Store
	saveEventErr   error
	saveUserErr    error
	saveRegErr     error
	deleteEventErr error
	deleteUserErr  error
}

func newFailingStore() *failingStore {
	return &failingStore{Store: persist.NewNoop()}
}

func (f *failingStore) SaveEvent(ctx context.Context, event *model.Event) error {
	if f.saveEventErr != nil {
		return f.saveEventErr
	}
	return f.Store.SaveEvent(ctx, event)
}

func (f *failingStore) SaveUser(ctx context.Context, user *model.User) error {
	if f.saveUserErr != nil {
		return f.saveUserErr
	}
	return f.Store.SaveUser(ctx, user)
}

func (f *failingStore) SaveRegistration(ctx context.Context, reg model.Registration) error {
	if f.saveRegErr != nil {
		return f.saveRegErr
	}
	return f.Store.SaveRegistration(ctx, reg)
}

func (f *failingStore) DeleteEvent(ctx context.Context, id string) error {
	if f.deleteEventErr != nil {
		return f.deleteEventErr
	}
	return f.Store.DeleteEvent(ctx, id)
}

func (f *failingStore) DeleteUser(ctx context.Context, id string) error {
	if f.deleteUserErr != nil {
		return f.deleteUserErr
	}
	return f.Store.DeleteUser(ctx, id)
}

type svcFixture struct {
	store      *repository.Store
	eventsRepo *repository.EventRepository
	usersRepo  *repository.UserRepository
	ledger     *ledger.Ledger
	events     *EventService
	users      *UserService
}

func newSvcFixture() *svcFixture {
	return newSvcFixtureWith(persist.NewNoop(), publisher.NewNoop())
}

func newSvcFixtureWith(backend persist.Store, pub publisher.Publisher) *svcFixture {
	store := repository.NewStore()
	eventsRepo := repository.NewEventRepository(store)
	usersRepo := repository.NewUserRepository(store)
	regsRepo := repository.NewRegistrationRepository(store)
	led := ledger.New(eventsRepo, usersRepo, regsRepo, backend, ledger.Options{})
	return &svcFixture{
		store:      store,
		eventsRepo: eventsRepo,
		usersRepo:  usersRepo,
		ledger:     led,
		events:     NewEventService(eventsRepo, led, backend, pub),
		users:      NewUserService(usersRepo, eventsRepo, led, backend),
	}
}

func (f *svcFixture) seedUser(t *testing.T, id, username string, role model.Role) model.Identity {
	t.Helper()
	u := &model.User{
		ID:           id,
		Username:     username,
		Email:        username + "@campus.edu",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, f.usersRepo.Create(context.Background(), u))
	return model.Identity{UserID: id, Role: role}
}

func (f *svcFixture) seedEvent(t *testing.T, caller model.Identity, name, date string, capacity int) *model.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), caller, model.CreateEventRequest{
		Name:      name,
		Date:      date,
		StartTime: "18:00",
		Location:  "Main Auditorium",
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return event
}

var (
	adminID     = model.Identity{UserID: "admin-1", Role: model.RoleAdmin}
	organizerID = model.Identity{UserID: "org-1", Role: model.RoleOrganizer}
	studentID   = model.Identity{UserID: "stu-1", Role: model.RoleStudent}
)

func TestCreateEventAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	req := model.CreateEventRequest{
		Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00",
		Location: "West Hall", Capacity: 50,
	}

	_, err := f.events.CreateEvent(ctx, studentID, req)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	event, err := f.events.CreateEvent(ctx, organizerID, req)
	require.NoError(t, err)
	assert.Equal(t, organizerID.UserID, event.OrganizerID)

	req.Name = "Admin Briefing"
	event, err = f.events.CreateEvent(ctx, adminID, req)
	require.NoError(t, err)
	assert.Equal(t, adminID.UserID, event.OrganizerID)
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	valid := model.CreateEventRequest{
		Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00",
		Location: "West Hall", Capacity: 50,
	}

	cases := []struct {
		name   string
		mutate func(*model.CreateEventRequest)
	}{
		{"empty name", func(r *model.CreateEventRequest) { r.Name = "   " }},
		{"empty location", func(r *model.CreateEventRequest) { r.Location = "" }},
		{"zero capacity", func(r *model.CreateEventRequest) { r.Capacity = 0 }},
		{"negative capacity", func(r *model.CreateEventRequest) { r.Capacity = -5 }},
		{"oversized capacity", func(r *model.CreateEventRequest) { r.Capacity = 100_001 }},
		{"bad date", func(r *model.CreateEventRequest) { r.Date = "12/10/2026" }},
		{"bad time", func(r *model.CreateEventRequest) { r.StartTime = "6pm" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := f.events.CreateEvent(ctx, adminID, req)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}

	// Whitespace around the name is stripped, not rejected.
	req := valid
	req.Name = "  Tech Talk  "
	event, err := f.events.CreateEvent(ctx, adminID, req)
	require.NoError(t, err)
	assert.Equal(t, "Tech Talk", event.Name)
}

func TestCreateEventSurfacesPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFailingStore()
	backend.saveEventErr = errors.New("disk full")
	f := newSvcFixtureWith(backend, publisher.NewNoop())

	event, err := f.events.CreateEvent(ctx, adminID, model.CreateEventRequest{
		Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00",
		Location: "West Hall", Capacity: 50,
	})
	require.ErrorIs(t, err, model.ErrPersistenceFailed)
	require.NotNil(t, event)

	// The event exists in memory even though the write-through failed.
	got, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tech Talk", got.Name)
}

func TestCreateEventPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("EventCreated", mock.Anything, mock.AnythingOfType("*model.Event")).Return(nil).Once()
	f := newSvcFixtureWith(persist.NewNoop(), pub)

	_, err := f.events.CreateEvent(ctx, adminID, model.CreateEventRequest{
		Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00",
		Location: "West Hall", Capacity: 50,
	})
	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestPublishFailureDoesNotFailTheCall(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("EventCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f := newSvcFixtureWith(persist.NewNoop(), pub)

	event, err := f.events.CreateEvent(ctx, adminID, model.CreateEventRequest{
		Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00",
		Location: "West Hall", Capacity: 50,
	})
	require.NoError(t, err)
	require.NotNil(t, event)
}

func TestGetEvent(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, adminID, "Tech Talk", "2026-10-12", 50)

	got, err := f.events.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = f.events.GetEvent(ctx, "")
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = f.events.GetEvent(ctx, "no-such-event")
	require.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestEventsByStatus(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	active := f.seedEvent(t, adminID, "Stays Active", "2026-10-12", 50)
	cancelled := f.seedEvent(t, adminID, "Gets Cancelled", "2026-10-13", 50)
	completed := f.seedEvent(t, adminID, "Gets Completed", "2026-10-14", 50)
	_, err := f.events.CancelEvent(ctx, adminID, cancelled.ID)
	require.NoError(t, err)
	_, err = f.events.CompleteEvent(ctx, adminID, completed.ID)
	require.NoError(t, err)

	got, err := f.events.EventsByStatus(ctx, model.StatusActive)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, active.ID, got[0].ID)

	got, err = f.events.EventsByStatus(ctx, model.StatusCancelled)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cancelled.ID, got[0].ID)

	got, err = f.events.EventsByStatus(ctx, model.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, completed.ID, got[0].ID)

	_, err = f.events.EventsByStatus(ctx, model.EventStatus("archived"))
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestUpcomingEvents(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	soon := time.Now().AddDate(0, 0, 2).Format(model.DateLayout)
	later := time.Now().AddDate(0, 0, 5).Format(model.DateLayout)

	f.seedEvent(t, adminID, "Long Past", "2020-01-01", 50)
	laterEvent := f.seedEvent(t, adminID, "Later", later, 50)
	soonEvent := f.seedEvent(t, adminID, "Soon", soon, 50)
	dropped := f.seedEvent(t, adminID, "Cancelled Future", later, 50)
	_, err := f.events.CancelEvent(ctx, adminID, dropped.ID)
	require.NoError(t, err)

	got, err := f.events.UpcomingEvents(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, soonEvent.ID, got[0].ID)
	assert.Equal(t, laterEvent.ID, got[1].ID)
}

func TestSearchEvents(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	talk := f.seedEvent(t, adminID, "Intro to Tech Careers", "2026-10-12", 50)
	fair := f.seedEvent(t, adminID, "Job Fair", "2026-10-13", 200)
	gone := f.seedEvent(t, adminID, "Tech Mixer", "2026-10-14", 50)
	_, err := f.events.CancelEvent(ctx, adminID, gone.ID)
	require.NoError(t, err)

	t.Run("by name, case-insensitive substring", func(t *testing.T) {
		got, err := f.events.SearchEvents(ctx, "name", "TECH")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, talk.ID, got[0].ID)
	})

	t.Run("by location", func(t *testing.T) {
		got, err := f.events.SearchEvents(ctx, "location", "auditorium")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by exact date", func(t *testing.T) {
		got, err := f.events.SearchEvents(ctx, "date", "2026-10-13")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, fair.ID, got[0].ID)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := f.events.SearchEvents(ctx, "name", "   ")
		require.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := f.events.SearchEvents(ctx, "organizer", "alice")
		require.ErrorIs(t, err, model.ErrUnknownSearchField)
	})
}

func TestUpdateEventAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	rival := model.Identity{UserID: "org-2", Role: model.RoleOrganizer}
	name := "Tech Talk v2"

	_, err := f.events.UpdateEvent(ctx, studentID, event.ID, model.UpdateEventRequest{Name: &name})
	require.ErrorIs(t, err, model.ErrPermissionDenied)
	_, err = f.events.UpdateEvent(ctx, rival, event.ID, model.UpdateEventRequest{Name: &name})
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	got, err := f.events.UpdateEvent(ctx, organizerID, event.ID, model.UpdateEventRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	name2 := "Tech Talk v3"
	got, err = f.events.UpdateEvent(ctx, adminID, event.ID, model.UpdateEventRequest{Name: &name2})
	require.NoError(t, err)
	assert.Equal(t, name2, got.Name)

	_, err = f.events.UpdateEvent(ctx, adminID, "no-such-event", model.UpdateEventRequest{Name: &name})
	require.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestUpdateEventValidation(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, adminID, "Tech Talk", "2026-10-12", 50)

	empty := " "
	_, err := f.events.UpdateEvent(ctx, adminID, event.ID, model.UpdateEventRequest{Name: &empty})
	require.ErrorIs(t, err, model.ErrValidation)

	zero := 0
	_, err = f.events.UpdateEvent(ctx, adminID, event.ID, model.UpdateEventRequest{Capacity: &zero})
	require.ErrorIs(t, err, model.ErrValidation)

	badDate := "next tuesday"
	_, err = f.events.UpdateEvent(ctx, adminID, event.ID, model.UpdateEventRequest{Date: &badDate})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestCancelAndCompletePublish(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	pub.On("EventCreated", mock.Anything, mock.Anything).Return(nil)
	pub.On("EventCancelled", mock.Anything, mock.Anything).Return(nil).Once()
	pub.On("EventCompleted", mock.Anything, mock.Anything).Return(nil).Once()
	f := newSvcFixtureWith(persist.NewNoop(), pub)

	first := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	second := f.seedEvent(t, organizerID, "Job Fair", "2026-10-13", 50)

	got, err := f.events.CancelEvent(ctx, organizerID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	// A second transition on the same event is rejected.
	_, err = f.events.CancelEvent(ctx, organizerID, first.ID)
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	got, err = f.events.CompleteEvent(ctx, organizerID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	pub.AssertExpectations(t)
}

func TestDeleteEventPurgesRegistrations(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)
	bob := f.seedUser(t, "stu-b", "bob", model.RoleStudent)
	_, err := f.events.Register(ctx, alice, event.ID, "")
	require.NoError(t, err)
	_, err = f.events.Register(ctx, bob, event.ID, "")
	require.NoError(t, err)

	// Students cannot delete events, not even ones they attend.
	err = f.events.DeleteEvent(ctx, alice, event.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	require.NoError(t, f.events.DeleteEvent(ctx, organizerID, event.ID))

	_, err = f.events.GetEvent(ctx, event.ID)
	require.ErrorIs(t, err, model.ErrEventNotFound)
	for _, id := range []string{"stu-a", "stu-b"} {
		u, err := f.usersRepo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, u.RegisteredEvents)
	}
}

func TestRegisterSelfAndOnBehalf(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)
	f.seedUser(t, "stu-b", "bob", model.RoleStudent)

	// Empty user ID means "register me".
	res, err := f.events.Register(ctx, alice, event.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "stu-a", res.UserID)
	assert.Equal(t, 1, res.Attendees)

	// Students cannot register somebody else.
	_, err = f.events.Register(ctx, alice, event.ID, "stu-b")
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	// Admins can.
	res, err = f.events.Register(ctx, adminID, event.ID, "stu-b")
	require.NoError(t, err)
	assert.Equal(t, "stu-b", res.UserID)
	assert.Equal(t, 2, res.Attendees)
}

func TestUnregisterSelfAndOnBehalf(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)
	bob := f.seedUser(t, "stu-b", "bob", model.RoleStudent)
	_, err := f.events.Register(ctx, alice, event.ID, "")
	require.NoError(t, err)
	_, err = f.events.Register(ctx, bob, event.ID, "")
	require.NoError(t, err)

	_, err = f.events.Unregister(ctx, alice, event.ID, "stu-b")
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	res, err := f.events.Unregister(ctx, alice, event.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attendees)

	res, err = f.events.Unregister(ctx, adminID, event.ID, "stu-b")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Attendees)
}

func TestRegisterPublishesDespitePersistenceLag(t *testing.T) {
	ctx := context.Background()
	backend := newFailingStore()
	backend.saveRegErr = errors.New("disk full")
	pub := &mockPublisher{}
	pub.On("EventCreated", mock.Anything, mock.Anything).Return(nil)
	pub.On("RegistrationCreated", mock.Anything, mock.Anything).Return(nil).Once()
	f := newSvcFixtureWith(backend, pub)

	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)

	res, err := f.events.Register(ctx, alice, event.ID, "")
	require.ErrorIs(t, err, model.ErrPersistenceFailed)
	require.NotNil(t, res)

	// The seat was taken in memory, so the message still goes out.
	pub.AssertExpectations(t)
}

func TestAttendeesVisibility(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 50)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)
	_, err := f.events.Register(ctx, alice, event.ID, "")
	require.NoError(t, err)

	regs, err := f.events.Attendees(ctx, adminID, event.ID)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "stu-a", regs[0].UserID)

	regs, err = f.events.Attendees(ctx, organizerID, event.ID)
	require.NoError(t, err)
	assert.Len(t, regs, 1)

	rival := model.Identity{UserID: "org-2", Role: model.RoleOrganizer}
	_, err = f.events.Attendees(ctx, rival, event.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)
	_, err = f.events.Attendees(ctx, alice, event.ID)
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.events.Attendees(ctx, adminID, "no-such-event")
	require.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	event := f.seedEvent(t, organizerID, "Tech Talk", "2026-10-12", 4)
	alice := f.seedUser(t, "stu-a", "alice", model.RoleStudent)
	_, err := f.events.Register(ctx, alice, event.ID, "")
	require.NoError(t, err)

	res, err := f.events.Availability(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attendees)
	assert.Equal(t, 4, res.Capacity)
	assert.InDelta(t, 0.25, res.FillRatio, 1e-9)
}

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()

	_, err := f.events.BulkImport(ctx, studentID, model.BulkImportRequest{
		Events: []model.CreateEventRequest{{Name: "X", Date: "2026-10-12", StartTime: "10:00", Location: "Y", Capacity: 5}},
	})
	require.ErrorIs(t, err, model.ErrPermissionDenied)

	_, err = f.events.BulkImport(ctx, adminID, model.BulkImportRequest{})
	require.ErrorIs(t, err, model.ErrValidation)

	results, err := f.events.BulkImport(ctx, adminID, model.BulkImportRequest{
		Events: []model.CreateEventRequest{
			{Name: "Tech Talk", Date: "2026-10-12", StartTime: "14:00", Location: "West Hall", Capacity: 50},
			{Name: "Broken", Date: "2026-10-12", StartTime: "14:00", Location: "West Hall", Capacity: 0},
			{Name: "tech talk", Date: "2026-10-12", StartTime: "15:00", Location: "East Hall", Capacity: 25},
			{Name: "Job Fair", Date: "2026-10-13", StartTime: "09:00", Location: "Gym", Capacity: 200},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NotEmpty(t, results[0].EventID)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].EventID)
	assert.Contains(t, results[1].Error, "capacity")
	assert.Empty(t, results[2].EventID)
	assert.Contains(t, results[2].Error, "already exists")
	assert.NotEmpty(t, results[3].EventID)

	// Failed entries never abort the batch: two events landed.
	all, err := f.events.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCompleteElapsed(t *testing.T) {
	ctx := context.Background()
	f := newSvcFixture()
	past := f.seedEvent(t, adminID, "Past Talk", "2026-05-30", 50)
	future := f.seedEvent(t, adminID, "Future Talk", "2026-06-02", 50)
	cancelled := f.seedEvent(t, adminID, "Cancelled Talk", "2026-05-29", 50)
	_, err := f.events.CancelEvent(ctx, adminID, cancelled.ID)
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	n, err := f.events.CompleteElapsed(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.events.GetEvent(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	got, err = f.events.GetEvent(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, got.Status)
	got, err = f.events.GetEvent(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	// Nothing left to complete on the second sweep.
	n, err = f.events.CompleteElapsed(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
