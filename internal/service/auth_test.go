package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

type mockAuthRepo struct {
	UserExistsFunc   func(ctx context.Context, email string) (bool, error)
	CreateUserFunc   func(ctx context.Context, email, hash string) error
	PasswordHashFunc func(ctx context.Context, email string) (string, error)
}

func (m *mockAuthRepo) UserExists(ctx context.Context, email string) (bool, error) {
	return m.UserExistsFunc(ctx, email)
}

func (m *mockAuthRepo) CreateUser(ctx context.Context, email, hash string) error {
	return m.CreateUserFunc(ctx, email, hash)
}

func (m *mockAuthRepo) PasswordHash(ctx context.Context, email string) (string, error) {
	return m.PasswordHashFunc(ctx, email)
}

var testSecret = []byte("test-secret")

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *Error, got %T (%v)", err, err)
	}
	return svcErr.Code
}

func TestRegister_MissingCredentials(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, testSecret, time.Hour)

	for _, creds := range []models.Credentials{{}, {Email: "a@b.c"}, {Password: "x"}} {
		if code := codeOf(t, svc.Register(context.Background(), creds)); code != CodeMissingCredentials {
			t.Errorf("Register(%+v) code = %q; want %q", creds, code, CodeMissingCredentials)
		}
	}
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		repo *mockAuthRepo
		pw   string
		want string
	}{
		{
			name: "exists check fails",
			repo: &mockAuthRepo{UserExistsFunc: func(context.Context, string) (bool, error) {
				return false, errors.New("db down")
			}},
			pw:   "secret",
			want: CodeDatabase,
		},
		{
			name: "already exists",
			repo: &mockAuthRepo{UserExistsFunc: func(context.Context, string) (bool, error) {
				return true, nil
			}},
			pw:   "secret",
			want: CodeUserExists,
		},
		{
			name: "password too long for bcrypt",
			repo: &mockAuthRepo{UserExistsFunc: func(context.Context, string) (bool, error) {
				return false, nil
			}},
			pw:   strings.Repeat("x", 100),
			want: CodePasswordProcessing,
		},
		{
			name: "insert race",
			repo: &mockAuthRepo{
				UserExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
				CreateUserFunc: func(context.Context, string, string) error { return repository.ErrUserExists },
			},
			pw:   "secret",
			want: CodeUserExists,
		},
		{
			name: "insert fails",
			repo: &mockAuthRepo{
				UserExistsFunc: func(context.Context, string) (bool, error) { return false, nil },
				CreateUserFunc: func(context.Context, string, string) error { return errors.New("disk full") },
			},
			pw:   "secret",
			want: CodeDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, testSecret, time.Hour)
			err := svc.Register(context.Background(), models.Credentials{Email: "a@b.c", Password: tt.pw})
			if code := codeOf(t, err); code != tt.want {
				t.Errorf("code = %q; want %q", code, tt.want)
			}
		})
	}
}

func TestRegisterThenAuthorize(t *testing.T) {
	repo := repository.NewMemoryAuthRepository()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()
	creds := models.Credentials{Email: "carol@example.com", Password: "hunter22"}

	if err := svc.Register(ctx, creds); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	hash, _ := repo.PasswordHash(ctx, creds.Email)
	if hash == creds.Password {
		t.Fatal("password stored in plain text")
	}

	token, err := svc.Authorize(ctx, creds)
	if err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}
	sub, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if sub != creds.Email {
		t.Errorf("subject = %q; want %q", sub, creds.Email)
	}

	if code := codeOf(t, svc.Register(ctx, creds)); code != CodeUserExists {
		t.Errorf("second Register code = %q; want %q", code, CodeUserExists)
	}
}

func TestAuthorize_Errors(t *testing.T) {
	repo := repository.NewMemoryAuthRepository()
	svc := NewAuthService(repo, testSecret, time.Hour)
	ctx := context.Background()
	_ = svc.Register(ctx, models.Credentials{Email: "dave@example.com", Password: "right"})

	tests := []struct {
		name  string
		creds models.Credentials
		want  string
	}{
		{"missing", models.Credentials{Email: "dave@example.com"}, CodeMissingCredentials},
		{"unknown user", models.Credentials{Email: "nobody@example.com", Password: "x"}, CodeWrongCredentials},
		{"wrong password", models.Credentials{Email: "dave@example.com", Password: "wrong"}, CodeWrongCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorize(ctx, tt.creds)
			if code := codeOf(t, err); code != tt.want {
				t.Errorf("code = %q; want %q", code, tt.want)
			}
		})
	}

	failing := NewAuthService(&mockAuthRepo{PasswordHashFunc: func(context.Context, string) (string, error) {
		return "", errors.New("db down")
	}}, testSecret, time.Hour)
	_, err := failing.Authorize(ctx, models.Credentials{Email: "a@b.c", Password: "x"})
	if code := codeOf(t, err); code != CodeDatabase {
		t.Errorf("code = %q; want %q", code, CodeDatabase)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := NewAuthService(repository.NewMemoryAuthRepository(), testSecret, time.Hour)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", sign(jwt.RegisteredClaims{Subject: "a"}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(jwt.RegisteredClaims{Subject: "a", ExpiresAt: jwt.NewNumericDate(past)}, jwt.SigningMethodHS256, testSecret)},
		{"no subject", sign(jwt.RegisteredClaims{}, jwt.SigningMethodHS256, testSecret)},
		{"other algorithm", sign(jwt.RegisteredClaims{Subject: "a"}, jwt.SigningMethodHS384, testSecret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
