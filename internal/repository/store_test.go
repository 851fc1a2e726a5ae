package repository

import (
	"testing"
	"time"

	"github.com/campushq/campus-events/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(id, name string, capacity int, created time.Time) model.Event {
	return model.Event{
		ID:          id,
		Name:        name,
		Date:        "2026-10-12",
		StartTime:   "14:00",
		Location:    "West Hall",
		Capacity:    capacity,
		OrganizerID: "org-1",
		Status:      model.StatusActive,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func testUser(id, username string, created time.Time) model.User {
	return model.User{
		ID:           id,
		Username:     username,
		Email:        username + "@campus.edu",
		PasswordHash: "not-a-real-hash",
		Role:         model.RoleStudent,
		CreatedAt:    created,
	}
}

func testReg(eventID, userID string, created time.Time) model.Registration {
	return model.Registration{
		ID:        eventID + "-" + userID,
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: created,
	}
}

func TestRestoreRebuildsRelationSides(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()

	// Stale attendee lists in the snapshot must be ignored; the
	// registration records are the source of truth.
	e1 := testEvent("e1", "Tech Talk", 5, now)
	e1.Attendees = []string{"ghost"}
	u1 := testUser("u1", "alice", now)
	u1.RegisteredEvents = []string{"ghost-event"}

	dropped := store.Restore(
		[]model.Event{e1, testEvent("e2", "Job Fair", 5, now.Add(time.Hour))},
		[]model.User{u1, testUser("u2", "bob", now)},
		[]model.Registration{
			testReg("e1", "u1", now),
			testReg("e1", "u2", now.Add(time.Minute)),
			testReg("e2", "u1", now.Add(2*time.Minute)),
		},
	)
	assert.Equal(t, 0, dropped)

	events, users, regs := store.Snapshot()
	require.Len(t, events, 2)
	require.Len(t, users, 2)
	require.Len(t, regs, 3)

	assert.ElementsMatch(t, []string{"u1", "u2"}, events[0].Attendees)
	assert.ElementsMatch(t, []string{"u1"}, events[1].Attendees)
	for _, u := range users {
		switch u.ID {
		case "u1":
			assert.ElementsMatch(t, []string{"e1", "e2"}, u.RegisteredEvents)
		case "u2":
			assert.ElementsMatch(t, []string{"e1"}, u.RegisteredEvents)
		}
	}
}

func TestRestoreDropsOrphanedRegistrations(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()

	dropped := store.Restore(
		[]model.Event{testEvent("e1", "Tech Talk", 5, now)},
		[]model.User{testUser("u1", "alice", now)},
		[]model.Registration{
			testReg("e1", "u1", now),
			testReg("e1", "u1", now.Add(time.Minute)), // duplicate pair
			testReg("gone", "u1", now),                // missing event
			testReg("e1", "gone", now),                // missing user
		},
	)
	assert.Equal(t, 3, dropped)

	_, _, regCount := store.Counts()
	assert.Equal(t, 1, regCount)
}

func TestRestoreReplacesPreviousState(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Restore(
		[]model.Event{testEvent("e1", "Tech Talk", 5, now)},
		[]model.User{testUser("u1", "alice", now)},
		[]model.Registration{testReg("e1", "u1", now)},
	)

	store.Restore(
		[]model.Event{testEvent("e2", "Job Fair", 5, now)},
		[]model.User{testUser("u2", "bob", now)},
		nil,
	)

	events, users, regs := store.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "e2", events[0].ID)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
	assert.Empty(t, regs)
}

func TestSnapshotOrdersByCreationTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Restore(
		[]model.Event{
			testEvent("e2", "Job Fair", 5, now.Add(time.Hour)),
			testEvent("e1", "Tech Talk", 5, now),
		},
		[]model.User{
			testUser("u2", "bob", now.Add(time.Hour)),
			testUser("u1", "alice", now),
		},
		[]model.Registration{
			testReg("e1", "u2", now.Add(2*time.Hour)),
			testReg("e1", "u1", now.Add(time.Hour)),
		},
	)

	events, users, regs := store.Snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "e2", events[1].ID)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u2", users[1].ID)
	require.Len(t, regs, 2)
	assert.Equal(t, "u1", regs[0].UserID)
	assert.Equal(t, "u2", regs[1].UserID)
}

func TestSnapshotReturnsCopies(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Restore(
		[]model.Event{testEvent("e1", "Tech Talk", 5, now)},
		[]model.User{testUser("u1", "alice", now)},
		[]model.Registration{testReg("e1", "u1", now)},
	)

	events, users, _ := store.Snapshot()
	events[0].Name = "Mutated"
	events[0].Attendees[0] = "mutated"
	users[0].Username = "mutated"
	users[0].RegisteredEvents[0] = "mutated"

	events, users, _ = store.Snapshot()
	assert.Equal(t, "Tech Talk", events[0].Name)
	assert.Equal(t, []string{"u1"}, events[0].Attendees)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, []string{"e1"}, users[0].RegisteredEvents)
}

func TestCounts(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Restore(
		[]model.Event{testEvent("e1", "Tech Talk", 5, now), testEvent("e2", "Job Fair", 5, now)},
		[]model.User{testUser("u1", "alice", now)},
		[]model.Registration{testReg("e1", "u1", now), testReg("e2", "u1", now)},
	)

	events, users, regs := store.Counts()
	assert.Equal(t, 2, events)
	assert.Equal(t, 1, users)
	assert.Equal(t, 2, regs)
}
