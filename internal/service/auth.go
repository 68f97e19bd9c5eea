// Package service provides authentication business logic: password
// hashing, credential checks and session token issuing, delegating
// persistence to an AuthRepository.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthRepository defines the persistence operations
// required by the authentication service.
type AuthRepository interface {
	// UserExists returns true if an account with the given email exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// CreateUser stores a new account. It returns repository.ErrUserExists
	// when the email is taken.
	CreateUser(ctx context.Context, email, passwordHash string) error
	// PasswordHash returns the stored hash or repository.ErrUserNotFound.
	PasswordHash(ctx context.Context, email string) (string, error)
}

// Error is a failure reported to clients as {"error": Code}.
type Error struct {
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Error codes shared with the client's classifier.
const (
	CodeWrongCredentials   = "Wrong credentials"
	CodeMissingCredentials = "Missing credentials"
	CodeInvalidToken       = "Invalid token"
	CodeTokenCreation      = "Token creation error"
	CodeUserExists         = "User already exists"
	CodeDatabase           = "Database error"
	CodePasswordProcessing = "Password processing error"
)

var (
	ErrWrongCredentials   = &Error{Code: CodeWrongCredentials}
	ErrMissingCredentials = &Error{Code: CodeMissingCredentials}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken}
	ErrUserExists         = &Error{Code: CodeUserExists}
)

// Service implements account registration and login.
type Service struct {
	repo   AuthRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService constructs a new Service. Tokens are signed with secret
// (HS256) and expire after ttl.
func NewAuthService(repo AuthRepository, secret []byte, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: secret, ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Register creates an account for the credentials.
func (s *Service) Register(ctx context.Context, creds models.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return ErrMissingCredentials
	}

	exists, err := s.repo.UserExists(ctx, creds.Email)
	if err != nil {
		return &Error{Code: CodeDatabase, Err: err}
	}
	if exists {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return &Error{Code: CodePasswordProcessing, Err: err}
	}

	err = s.repo.CreateUser(ctx, creds.Email, string(hash))
	if errors.Is(err, repository.ErrUserExists) {
		return ErrUserExists
	}
	if err != nil {
		return &Error{Code: CodeDatabase, Err: err}
	}
	return nil
}

// Authorize checks the credentials and returns a signed session token whose
// subject is the email.
func (s *Service) Authorize(ctx context.Context, creds models.Credentials) (string, error) {
	if creds.Email == "" || creds.Password == "" {
		return "", ErrMissingCredentials
	}

	hash, err := s.repo.PasswordHash(ctx, creds.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", ErrWrongCredentials
	}
	if err != nil {
		return "", &Error{Code: CodeDatabase, Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)); err != nil {
		return "", ErrWrongCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   creds.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", &Error{Code: CodeTokenCreation, Err: err}
	}
	return token, nil
}

// ValidateToken verifies a session token and returns its subject.
func (s *Service) ValidateToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
