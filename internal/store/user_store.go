package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nroberts/authsvc/internal/models"
)

var (
	// ErrDuplicateEmail is returned by Insert when the email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrNotFound is returned by lookups when no matching record exists.
	ErrNotFound = errors.New("user not found")
)

// UserStore is the persistence contract for user records. Records are
// created once and never mutated; email uniqueness is enforced by the
// store itself, not by its callers.
type UserStore interface {
	Insert(ctx context.Context, email, passwordHash string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SQLiteStore implements UserStore on top of a SQL connection pool.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert persists a new user record and returns the committed row,
// including the store-assigned id and creation timestamp. A violation of
// the unique email constraint surfaces as ErrDuplicateEmail.
func (s *SQLiteStore) Insert(ctx context.Context, email, passwordHash string) (models.User, error) {
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users(id, email, password_hash) VALUES(?, ?, ?)",
		id, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}

	// Re-read so the caller sees the created_at the database assigned.
	return s.FindByID(ctx, id)
}

// FindByEmail retrieves a single user by their email, including the password hash.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?", email)
	return scanUser(row)
}

// FindByID retrieves a single user by their ID, including the password hash.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

var _ UserStore = (*SQLiteStore)(nil)
