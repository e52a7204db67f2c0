// Package store provides the SQLite-backed user and logbook store the
// assistant core reads from. It uses modernc.org/sqlite for pure-Go,
// CGO-free database access.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed migrations/001_users.sql
var usersSchema string

// Tier gates access to the reasoning and enhancement stages.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
)

// User is a logbook account as the assistant core sees it.
type User struct {
	ID        string
	Name      string
	Tier      Tier
	CreatedAt time.Time
}

// Tick is a single logged ascent.
type Tick struct {
	ID         int64
	UserID     string
	Route      string
	Grade      string
	Style      string // onsight, flash, redpoint, attempt
	Discipline string // sport, boulder, trad
	LoggedAt   time.Time
}

// ErrUserNotFound reports a lookup for an id with no account.
var ErrUserNotFound = fmt.Errorf("user not found")

// Store provides access to the SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates a database connection under dataDir and initializes the
// schema. SQLite works best with a single writer, so the pool is pinned
// to one connection.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "logbook.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(usersSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetUser resolves a user by id. Returns ErrUserNotFound for unknown ids.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, tier, created_at FROM users WHERE id = ?`, id)

	var u User
	var createdAt int64
	if err := row.Scan(&u.ID, &u.Name, &u.Tier, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// UpsertUser inserts or updates a user record.
func (s *Store) UpsertUser(ctx context.Context, u *User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, tier, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, tier = excluded.tier`,
		u.ID, u.Name, string(u.Tier), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// RecentTicks returns a user's most recent ascents, newest first.
func (s *Store) RecentTicks(ctx context.Context, userID string, limit int) ([]Tick, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, route, grade, style, discipline, logged_at
		 FROM ticks WHERE user_id = ? ORDER BY logged_at DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var ticks []Tick
	for rows.Next() {
		var t Tick
		var loggedAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Route, &t.Grade, &t.Style, &t.Discipline, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		t.LoggedAt = time.Unix(loggedAt, 0)
		ticks = append(ticks, t)
	}
	return ticks, rows.Err()
}

// AddTick logs an ascent for a user.
func (s *Store) AddTick(ctx context.Context, t *Tick) error {
	loggedAt := t.LoggedAt
	if loggedAt.IsZero() {
		loggedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ticks (user_id, route, grade, style, discipline, logged_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Route, t.Grade, t.Style, t.Discipline, loggedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert tick: %w", err)
	}
	t.ID, _ = res.LastInsertId()
	return nil
}
