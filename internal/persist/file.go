package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/campushq/campus-events/internal/logger"
	"github.com/campushq/campus-events/internal/model"
	"go.uber.org/zap"
)

const snapshotVersion = "1.0"

// File names inside the data directory.
const (
	eventsFileName        = "events.json"
	usersFileName         = "users.json"
	registrationsFileName = "registrations.json"
)

// FileStore persists state as JSON snapshot files. Every change rewrites
// the affected files through a temp-file rename, so a crash mid-write
// leaves the previous snapshot intact.
//
// With a zero flush interval writes happen synchronously on each change.
// With a positive interval changes only mark the store dirty and Run
// writes them out on a ticker.
type FileStore struct {
	dir      string
	interval time.Duration

	mu     sync.Mutex
	events map[string]model.Event
	users  map[string]model.User
	regs   map[string]model.Registration // key eventID+"/"+userID
	dirty  bool
}

// userRecord is the on-disk user shape. Unlike the API type it carries
// the password hash.
type userRecord struct {
	ID               string    `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"password_hash"`
	Role             string    `json:"role"`
	Department       string    `json:"department,omitempty"`
	StudentID        string    `json:"student_id,omitempty"`
	Organization     string    `json:"organization,omitempty"`
	RegisteredEvents []string  `json:"registered_events"`
	CreatedAt        time.Time `json:"created_at"`
}

type eventsFile struct {
	Events      []model.Event `json:"events"`
	LastUpdated time.Time     `json:"last_updated"`
	Version     string        `json:"version"`
}

type usersFile struct {
	Users       []userRecord `json:"users"`
	LastUpdated time.Time    `json:"last_updated"`
	Version     string       `json:"version"`
}

type registrationsFile struct {
	Registrations []model.Registration `json:"registrations"`
	LastUpdated   time.Time            `json:"last_updated"`
	Version       string               `json:"version"`
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string, flushInterval time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		dir:      dir,
		interval: flushInterval,
		events:   make(map[string]model.Event),
		users:    make(map[string]model.User),
		regs:     make(map[string]model.Registration),
	}, nil
}

func regKey(eventID, userID string) string {
	return eventID + "/" + userID
}

// Load reads the snapshot files. Missing files mean a fresh store.
func (f *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ef eventsFile
	if err := f.readFile(eventsFileName, &ef); err != nil {
		return nil, err
	}
	var uf usersFile
	if err := f.readFile(usersFileName, &uf); err != nil {
		return nil, err
	}
	var rf registrationsFile
	if err := f.readFile(registrationsFileName, &rf); err != nil {
		return nil, err
	}

	f.events = make(map[string]model.Event, len(ef.Events))
	for _, e := range ef.Events {
		f.events[e.ID] = *e.Clone()
	}
	f.users = make(map[string]model.User, len(uf.Users))
	for _, rec := range uf.Users {
		u := recordToUser(rec)
		f.users[u.ID] = u
	}
	f.regs = make(map[string]model.Registration, len(rf.Registrations))
	for _, reg := range rf.Registrations {
		f.regs[regKey(reg.EventID, reg.UserID)] = reg
	}
	f.dirty = false

	snap := &Snapshot{
		Events:        ef.Events,
		Users:         make([]model.User, 0, len(uf.Users)),
		Registrations: rf.Registrations,
	}
	for _, rec := range uf.Users {
		snap.Users = append(snap.Users, recordToUser(rec))
	}
	return snap, nil
}

func (f *FileStore) readFile(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// SaveEvent records the event and persists per the flush mode.
func (f *FileStore) SaveEvent(ctx context.Context, event *model.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.ID] = *event.Clone()
	return f.changedLocked()
}

// DeleteEvent drops the event and its registrations from the mirror.
func (f *FileStore) DeleteEvent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	for key, reg := range f.regs {
		if reg.EventID == id {
			delete(f.regs, key)
			if u, ok := f.users[reg.UserID]; ok {
				u.RegisteredEvents = dropString(u.RegisteredEvents, id)
				f.users[reg.UserID] = u
			}
		}
	}
	return f.changedLocked()
}

// SaveUser records the user and persists per the flush mode.
func (f *FileStore) SaveUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = *user.Clone()
	return f.changedLocked()
}

// DeleteUser drops the user and their registrations from the mirror.
func (f *FileStore) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	for key, reg := range f.regs {
		if reg.UserID == id {
			delete(f.regs, key)
			if e, ok := f.events[reg.EventID]; ok {
				e.Attendees = dropString(e.Attendees, id)
				f.events[reg.EventID] = e
			}
		}
	}
	return f.changedLocked()
}

// SaveRegistration links both relation sides in the mirror.
func (f *FileStore) SaveRegistration(ctx context.Context, reg model.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := regKey(reg.EventID, reg.UserID)
	if _, exists := f.regs[key]; !exists {
		f.regs[key] = reg
		if e, ok := f.events[reg.EventID]; ok && !e.HasAttendee(reg.UserID) {
			e.Attendees = append(e.Attendees, reg.UserID)
			f.events[reg.EventID] = e
		}
		if u, ok := f.users[reg.UserID]; ok && !u.HasRegistered(reg.EventID) {
			u.RegisteredEvents = append(u.RegisteredEvents, reg.EventID)
			f.users[reg.UserID] = u
		}
	}
	return f.changedLocked()
}

// DeleteRegistration unlinks both relation sides in the mirror.
func (f *FileStore) DeleteRegistration(ctx context.Context, eventID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.regs, regKey(eventID, userID))
	if e, ok := f.events[eventID]; ok {
		e.Attendees = dropString(e.Attendees, userID)
		f.events[eventID] = e
	}
	if u, ok := f.users[userID]; ok {
		u.RegisteredEvents = dropString(u.RegisteredEvents, eventID)
		f.users[userID] = u
	}
	return f.changedLocked()
}

// Flush replaces the mirror with the snapshot and writes everything out.
func (f *FileStore) Flush(ctx context.Context, snap *Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = make(map[string]model.Event, len(snap.Events))
	for _, e := range snap.Events {
		f.events[e.ID] = *e.Clone()
	}
	f.users = make(map[string]model.User, len(snap.Users))
	for _, u := range snap.Users {
		f.users[u.ID] = *u.Clone()
	}
	f.regs = make(map[string]model.Registration, len(snap.Registrations))
	for _, reg := range snap.Registrations {
		f.regs[regKey(reg.EventID, reg.UserID)] = reg
	}
	return f.writeAllLocked()
}

// Run flushes dirty state on a ticker until the context ends. Only needed
// when the store was built with a positive flush interval.
func (f *FileStore) Run(ctx context.Context) {
	if f.interval <= 0 {
		return
	}
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.flushIfDirty()
			return
		case <-ticker.C:
			f.flushIfDirty()
		}
	}
}

// Close writes any pending state.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}
	return f.writeAllLocked()
}

func (f *FileStore) flushIfDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return
	}
	if err := f.writeAllLocked(); err != nil {
		logger.Get().Error("snapshot flush failed", zap.Error(err))
	}
}

// changedLocked either writes immediately (sync mode) or defers to Run.
func (f *FileStore) changedLocked() error {
	if f.interval > 0 {
		f.dirty = true
		return nil
	}
	return f.writeAllLocked()
}

func (f *FileStore) writeAllLocked() error {
	now := time.Now().UTC()

	events := make([]model.Event, 0, len(f.events))
	for _, e := range f.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return eventBefore(events[i], events[j]) })

	users := make([]userRecord, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, userToRecord(u))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	regs := make([]model.Registration, 0, len(f.regs))
	for _, reg := range f.regs {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})

	if err := f.writeFile(eventsFileName, eventsFile{Events: events, LastUpdated: now, Version: snapshotVersion}); err != nil {
		return err
	}
	if err := f.writeFile(usersFileName, usersFile{Users: users, LastUpdated: now, Version: snapshotVersion}); err != nil {
		return err
	}
	if err := f.writeFile(registrationsFileName, registrationsFile{Registrations: regs, LastUpdated: now, Version: snapshotVersion}); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

func (f *FileStore) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func eventBefore(a, b model.Event) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func userToRecord(u model.User) userRecord {
	return userRecord{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		Role:             string(u.Role),
		Department:       u.Department,
		StudentID:        u.StudentID,
		Organization:     u.Organization,
		RegisteredEvents: u.RegisteredEvents,
		CreatedAt:        u.CreatedAt,
	}
}

func recordToUser(rec userRecord) model.User {
	return model.User{
		ID:               rec.ID,
		Username:         rec.Username,
		Email:            rec.Email,
		PasswordHash:     rec.PasswordHash,
		Role:             model.Role(rec.Role),
		Department:       rec.Department,
		StudentID:        rec.StudentID,
		Organization:     rec.Organization,
		RegisteredEvents: rec.RegisteredEvents,
		CreatedAt:        rec.CreatedAt,
	}
}

func dropString(ss []string, v string) []string {
	for i, s := range ss {
		if s == v {
			return append(ss[:i], ss[i+1:]...)
		}
	}
	return ss
}
