package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store is the relational repository for users, sessions, posts and
// comments. Entities refer to each other by id only; relationships are
// walked through the query methods.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in one transaction, committing only if fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// CreateUser inserts a user. The first user ever stored becomes the admin;
// the role is decided inside the INSERT so concurrent first registrations
// cannot both be promoted.
func (s *Store) CreateUser(ctx context.Context, email, name, passwordHash string) (*User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (email, name, password_hash, role)
		SELECT ?, ?, ?, CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'member' ELSE 'admin' END`,
		email, name, passwordHash)
	if err != nil {
		return nil, translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.UserByID(ctx, id)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, `SELECT id, email, name, password_hash, role, created_at FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES (:id, :user_id, :created_at, :expires_at)`, sess)
	return translate(err)
}

func (s *Store) Session(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.GetContext(ctx, &sess, `SELECT id, user_id, created_at, expires_at, revoked_at FROM sessions WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "session")
	}
	return &sess, nil
}

// RevokeSession marks a session revoked. Revoking an unknown or already
// revoked session is not an error.
func (s *Store) RevokeSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, at, id)
	return err
}

// PurgeSessions deletes sessions that expired before cutoff or were revoked.
func (s *Store) PurgeSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ? OR revoked_at IS NOT NULL`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
