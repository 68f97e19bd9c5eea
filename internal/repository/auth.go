// Package repository provides persistence implementations for the user
// accounts of the authentication service.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrUserNotFound is returned when no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when an account with the email already exists.
	ErrUserExists = errors.New("user already exists")
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// PostgresAuthRepository stores accounts in a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether an account with the specified email exists.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// CreateUser inserts an account. A concurrent insert of the same email is
// reported as ErrUserExists.
func (s *PostgresAuthRepository) CreateUser(ctx context.Context, email, passwordHash string) error {
	_, err := s.DB.ExecContext(
		ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2)`,
		email, passwordHash,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// PasswordHash returns the stored hash for email, or ErrUserNotFound.
func (s *PostgresAuthRepository) PasswordHash(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select password hash: %w", err)
	}
	return hash, nil
}
