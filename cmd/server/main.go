// Package main starts the local authentication and chat service used to run
// the client end to end: in-memory or Postgres accounts, JWT session
// cookies and a single websocket chat room.
package main

import (
	"cmp"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/GophChat/internal/config"
	"github.com/atinyakov/GophChat/internal/db"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/repository"
	"github.com/atinyakov/GophChat/internal/server/handler/http"
	"github.com/atinyakov/GophChat/internal/service"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.DefaultServer()
	config.BindServer(pflag.CommandLine, options)
	pflag.Parse()
	config.ResolveServer(options)

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the account store.
	var authRepo service.AuthRepository
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		authRepo = repository.NewPostgresAuthRepository(postgresDB)
	} else {
		zapLogger.Info("no database configured, accounts are kept in memory")
		authRepo = repository.NewMemoryAuthRepository()
	}

	secret := []byte(options.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			zapLogger.Fatal("failed to generate token key", zap.Error(err))
		}
		zapLogger.Warn("no JWT secret configured, sessions end with the process")
	}

	authService := service.NewAuthService(authRepo, secret, options.TokenTTL)
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	chatHandler := http.NewChatHandler(zapLogger)

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, chatHandler, authService.ValidateToken, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		chatHandler.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
