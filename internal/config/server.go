package config

import (
	"os"
	"time"

	"github.com/spf13/pflag"
)

// ServerOptions configures the local authentication and chat service.
type ServerOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// DatabaseDSN selects the Postgres user store. Empty keeps users in memory.
	DatabaseDSN string

	// JWTSecret signs session tokens. Empty means a random per-process key.
	JWTSecret string

	// TokenTTL is the lifetime of session tokens and of the session cookie.
	TokenTTL time.Duration

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultServer returns the options of a local development run.
func DefaultServer() *ServerOptions {
	return &ServerOptions{
		Port:     "127.0.0.1:3001",
		TokenTTL: 24 * time.Hour,
		LogLevel: "info",
	}
}

// BindServer registers the server flags on fs.
func BindServer(fs *pflag.FlagSet, o *ServerOptions) {
	fs.StringVarP(&o.Port, "address", "a", o.Port, "run on ip:port server")
	fs.StringVarP(&o.DatabaseDSN, "database-dsn", "d", o.DatabaseDSN, "postgres DSN (empty keeps users in memory)")
	fs.StringVar(&o.JWTSecret, "jwt-secret", o.JWTSecret, "HS256 key for session tokens")
	fs.DurationVar(&o.TokenTTL, "token-ttl", o.TokenTTL, "session token lifetime")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
}

// ResolveServer applies environment overrides.
func ResolveServer(o *ServerOptions) {
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		o.Port = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		o.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		o.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
}
