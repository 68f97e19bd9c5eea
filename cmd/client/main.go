// Package main is the terminal chat client: it logs in or registers against
// the authentication service and joins the websocket chat room.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/auth"
	"github.com/atinyakov/GophChat/internal/client/chat"
	"github.com/atinyakov/GophChat/internal/client/shell"
	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/config"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// app holds what the subcommands share once flags are resolved.
type app struct {
	options *config.Options
	log     *logger.Logger
	shell   *shell.Shell
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{options: config.Default(), log: logger.New()}

	root := &cobra.Command{
		Use:          "gophchat",
		Short:        "Terminal chat client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Log.Sync()
		},
		RunE: a.runShell,
	}
	config.Bind(root.PersistentFlags(), a.options)

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell (default)",
			RunE:  a.runShell,
		},
		&cobra.Command{
			Use:   "login",
			Short: "Log in and store the session cookie",
			RunE:  a.runOnce("/login"),
		},
		&cobra.Command{
			Use:   "register",
			Short: "Create an account",
			RunE:  a.runOnce("/register"),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show what the service knows about the stored session",
			RunE:  a.runOnce("/status"),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\n",
					cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
			},
		},
	)
	return root
}

// setup resolves the configuration and builds the client components.
func (a *app) setup(cmd *cobra.Command) error {
	o := a.options
	if err := config.Resolve(cmd.Flags(), o); err != nil {
		return err
	}

	if o.LogFile != "" {
		a.log.OutputPath = o.LogFile
	}
	if err := a.log.Init(o.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := a.log.Log

	cookies, err := storage.NewCookieStore(o.CookieFile, log)
	if err != nil {
		return err
	}

	tlsConfig, err := api.LoadTLSConfig(o.CAFile)
	if err != nil {
		return err
	}

	client := api.NewClient(o.AuthURL,
		api.NewHTTPClient(cookies, tlsConfig, o.HTTPTimeout, log),
		api.NewHTTPClient(nil, tlsConfig, o.HTTPTimeout, log),
		log)

	a.shell = shell.New(shell.Config{
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		API:     client,
		Gate:    auth.NewGate(cookies, client, client, log),
		Cookies: cookies,
		Dialer:  chat.NewWSDialer(tlsConfig, cookies, o.DialTimeout),
		ChatURL: o.ChatURL,
		Log:     log,
	})
	log.Debug("client configured",
		zap.String("auth_url", o.AuthURL),
		zap.String("chat_url", o.ChatURL),
		zap.String("cookies", o.CookieFile))
	return nil
}

func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	return a.shell.Run(cmd.Context())
}

// runOnce executes a single shell command and exits.
func (a *app) runOnce(line string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return a.shell.Once(cmd.Context(), line)
	}
}
