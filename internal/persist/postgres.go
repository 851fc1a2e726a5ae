package persist

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/campushq/campus-events/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresStore persists state to Postgres. It takes ownership of the
// pool; Close closes it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an established connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// RunMigrations applies pending schema migrations.
func RunMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Load reads every row. Attendee lists are not stored; the repository
// rebuilds both relation sides from the registration rows.
func (p *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := p.pool.Query(ctx, `
		SELECT id, name, description, date, start_time, location, capacity, organizer_id, status, created_at, updated_at
		FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Date, &e.StartTime, &e.Location,
			&e.Capacity, &e.OrganizerID, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		snap.Events = append(snap.Events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	userRows, err := p.pool.Query(ctx, `
		SELECT id, username, email, password_hash, role, department, student_id, organization, created_at
		FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var u model.User
		if err := userRows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
			&u.Department, &u.StudentID, &u.Organization, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		snap.Users = append(snap.Users, u)
	}
	if err := userRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	regRows, err := p.pool.Query(ctx, `
		SELECT id, event_id, user_id, created_at
		FROM registrations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer regRows.Close()
	for regRows.Next() {
		var reg model.Registration
		if err := regRows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		snap.Registrations = append(snap.Registrations, reg)
	}
	if err := regRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return snap, nil
}

// SaveEvent upserts one event row.
func (p *PostgresStore) SaveEvent(ctx context.Context, event *model.Event) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO events (id, name, description, date, start_time, location, capacity, organizer_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			date = EXCLUDED.date,
			start_time = EXCLUDED.start_time,
			location = EXCLUDED.location,
			capacity = EXCLUDED.capacity,
			organizer_id = EXCLUDED.organizer_id,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		event.ID, event.Name, event.Description, event.Date, event.StartTime, event.Location,
		event.Capacity, event.OrganizerID, event.Status, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// DeleteEvent removes the event row; registrations cascade.
func (p *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// SaveUser upserts one user row.
func (p *PostgresStore) SaveUser(ctx context.Context, user *model.User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, department, student_id, organization, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			student_id = EXCLUDED.student_id,
			organization = EXCLUDED.organization`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Role,
		user.Department, user.StudentID, user.Organization, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// DeleteUser removes the user row; registrations cascade.
func (p *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// SaveRegistration inserts the pair if absent.
func (p *PostgresStore) SaveRegistration(ctx context.Context, reg model.Registration) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO registrations (id, event_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO NOTHING`,
		reg.ID, reg.EventID, reg.UserID, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// DeleteRegistration removes the pair.
func (p *PostgresStore) DeleteRegistration(ctx context.Context, eventID, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	return nil
}

// Flush reconciles every snapshot row in one transaction. Rows deleted
// in memory were already deleted here by the per-change calls, so the
// flush only upserts.
func (p *PostgresStore) Flush(ctx context.Context, snap *Snapshot) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range snap.Users {
		u := &snap.Users[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, email, password_hash, role, department, student_id, organization, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				username = EXCLUDED.username,
				email = EXCLUDED.email,
				password_hash = EXCLUDED.password_hash,
				role = EXCLUDED.role,
				department = EXCLUDED.department,
				student_id = EXCLUDED.student_id,
				organization = EXCLUDED.organization`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Role,
			u.Department, u.StudentID, u.Organization, u.CreatedAt); err != nil {
			return fmt.Errorf("flush user %s: %w", u.ID, err)
		}
	}
	for i := range snap.Events {
		e := &snap.Events[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO events (id, name, description, date, start_time, location, capacity, organizer_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				date = EXCLUDED.date,
				start_time = EXCLUDED.start_time,
				location = EXCLUDED.location,
				capacity = EXCLUDED.capacity,
				organizer_id = EXCLUDED.organizer_id,
				status = EXCLUDED.status,
				updated_at = EXCLUDED.updated_at`,
			e.ID, e.Name, e.Description, e.Date, e.StartTime, e.Location,
			e.Capacity, e.OrganizerID, e.Status, e.CreatedAt, e.UpdatedAt); err != nil {
			return fmt.Errorf("flush event %s: %w", e.ID, err)
		}
	}
	for _, reg := range snap.Registrations {
		if _, err := tx.Exec(ctx, `
			INSERT INTO registrations (id, event_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (event_id, user_id) DO NOTHING`,
			reg.ID, reg.EventID, reg.UserID, reg.CreatedAt); err != nil {
			return fmt.Errorf("flush registration %s: %w", reg.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
