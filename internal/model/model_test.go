package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCapacityMath(t *testing.T) {
	e := &Event{Capacity: 4, Attendees: []string{"u1", "u2", "u3"}}
	assert.Equal(t, 3, e.AttendeeCount())
	assert.Equal(t, 1, e.Remaining())
	assert.False(t, e.IsFull())
	assert.InDelta(t, 0.75, e.FillRatio(), 1e-9)

	e.Attendees = append(e.Attendees, "u4")
	assert.True(t, e.IsFull())
	assert.InDelta(t, 1.0, e.FillRatio(), 1e-9)

	// Capacity edited below the attendee count.
	e.Capacity = 2
	assert.Equal(t, -2, e.Remaining())
	assert.True(t, e.IsFull())
	assert.InDelta(t, 2.0, e.FillRatio(), 1e-9)
}

func TestFillRatioZeroCapacity(t *testing.T) {
	e := &Event{Capacity: 0, Attendees: []string{"u1"}}
	assert.Equal(t, 0.0, e.FillRatio())
	e.Capacity = -1
	assert.Equal(t, 0.0, e.FillRatio())
}

func TestHasAttendee(t *testing.T) {
	e := &Event{Attendees: []string{"u1", "u2"}}
	assert.True(t, e.HasAttendee("u1"))
	assert.False(t, e.HasAttendee("u3"))
	assert.False(t, (&Event{}).HasAttendee("u1"))
}

func TestStartsAt(t *testing.T) {
	e := &Event{Date: "2026-10-12", StartTime: "14:30"}
	starts, err := e.StartsAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 12, 14, 30, 0, 0, time.UTC), starts)

	e.StartTime = "2pm"
	_, err = e.StartsAt()
	require.Error(t, err)
}

func TestIsUpcoming(t *testing.T) {
	now := time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)
	e := &Event{Date: "2026-10-12", StartTime: "14:30"}
	assert.True(t, e.IsUpcoming(now))
	assert.False(t, e.IsUpcoming(now.Add(3*time.Hour)))

	// Unparseable schedules are never upcoming.
	bad := &Event{Date: "someday", StartTime: "later"}
	assert.False(t, bad.IsUpcoming(now))
}

func TestEventCloneIsDeep(t *testing.T) {
	e := &Event{ID: "e1", Attendees: []string{"u1"}}
	c := e.Clone()
	c.Attendees[0] = "mutated"
	c.Attendees = append(c.Attendees, "u2")
	assert.Equal(t, []string{"u1"}, e.Attendees)
}

func TestUserCloneIsDeep(t *testing.T) {
	u := &User{ID: "u1", RegisteredEvents: []string{"e1"}}
	c := u.Clone()
	c.RegisteredEvents[0] = "mutated"
	assert.Equal(t, []string{"e1"}, u.RegisteredEvents)
}

func TestEventStatusIsValid(t *testing.T) {
	assert.True(t, StatusActive.IsValid())
	assert.True(t, StatusCancelled.IsValid())
	assert.True(t, StatusCompleted.IsValid())
	assert.False(t, EventStatus("archived").IsValid())
	assert.False(t, EventStatus("").IsValid())
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleAdmin, PermCreateEvents, true},
		{RoleAdmin, PermManageAllEvents, true},
		{RoleAdmin, PermManageUsers, true},
		{RoleAdmin, PermViewReports, true},
		{RoleAdmin, PermViewAllAttendees, true},
		{RoleOrganizer, PermCreateEvents, true},
		{RoleOrganizer, PermManageOwnEvents, true},
		{RoleOrganizer, PermManageAllEvents, false},
		{RoleOrganizer, PermManageUsers, false},
		{RoleOrganizer, PermViewReports, false},
		{RoleStudent, PermCreateEvents, false},
		{RoleStudent, PermManageOwnEvents, false},
		{RoleVisitor, PermCreateEvents, false},
		{Role("ghost"), PermCreateEvents, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.role.Can(tc.perm), "%s / %s", tc.role, tc.perm)
	}
}

func TestPermissionsForUnknownRole(t *testing.T) {
	assert.Empty(t, PermissionsFor(Role("ghost")))
	assert.NotEmpty(t, PermissionsFor(RoleAdmin))
}

func TestRoleIsValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleOrganizer, RoleStudent, RoleVisitor} {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Role("superuser").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestUserHasRegistered(t *testing.T) {
	u := &User{RegisteredEvents: []string{"e1"}}
	assert.True(t, u.HasRegistered("e1"))
	assert.False(t, u.HasRegistered("e2"))
}
