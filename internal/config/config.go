// Package config provides functionality for managing configuration options
// for the chat client using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// Options holds the configuration values for the application.
type Options struct {
	// AuthURL is the base URL of the authentication service.
	AuthURL string

	// ChatURL is the websocket endpoint of the chat service.
	ChatURL string

	// CookieFile is where the cookie store is persisted between runs.
	CookieFile string

	// CAFile is an optional PEM bundle trusted for https/wss endpoints.
	CAFile string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFile receives log output; empty means stderr.
	LogFile string

	// HTTPTimeout bounds each HTTP call. Zero means no timeout.
	HTTPTimeout time.Duration

	// DialTimeout bounds the websocket handshake. Zero means no timeout.
	DialTimeout time.Duration

	// Config is the path to the Config file.
	Config string
}

// Default returns the options used when nothing else is configured.
func Default() *Options {
	return &Options{
		AuthURL:    "http://localhost:3001",
		ChatURL:    "ws://127.0.0.1:3001/websocket",
		CookieFile: "cookies.json",
		LogLevel:   "warn",
		Config:     "config.json",
	}
}

// Bind registers the option flags on fs, using the current values of o as
// defaults.
func Bind(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.AuthURL, "auth-url", o.AuthURL, "authentication service base URL")
	fs.StringVar(&o.ChatURL, "chat-url", o.ChatURL, "chat websocket endpoint")
	fs.StringVar(&o.CookieFile, "cookies", o.CookieFile, "path to the cookie store file")
	fs.StringVar(&o.CAFile, "ca", o.CAFile, "optional CA bundle for https/wss endpoints")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&o.LogFile, "log-file", o.LogFile, "log file path (default stderr)")
	fs.DurationVar(&o.HTTPTimeout, "http-timeout", o.HTTPTimeout, "timeout for HTTP calls (0 disables)")
	fs.DurationVar(&o.DialTimeout, "dial-timeout", o.DialTimeout, "timeout for the websocket handshake (0 disables)")
	fs.StringVarP(&o.Config, "config", "c", o.Config, "path to config file")
}

// Resolve layers the config file and the environment over o. Values from
// the file apply only to options whose flag was not set explicitly on fs;
// environment variables always win.
func Resolve(fs *pflag.FlagSet, o *Options) error {
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		o.Config = configPath
	}

	if o.Config != "" {
		if _, err := os.Stat(o.Config); err == nil {
			if err := applyFile(fs, o); err != nil {
				return err
			}
		}
	}

	if v := os.Getenv("AUTH_URL"); v != "" {
		o.AuthURL = v
	}
	if v := os.Getenv("CHAT_URL"); v != "" {
		o.ChatURL = v
	}
	if v := os.Getenv("COOKIE_FILE"); v != "" {
		o.CookieFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}

	return nil
}

func applyFile(fs *pflag.FlagSet, o *Options) error {
	data, err := os.ReadFile(o.Config)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file fileOptions
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	set := func(name string, apply func()) {
		if fs == nil || !fs.Changed(name) {
			apply()
		}
	}
	if file.AuthURL != nil {
		set("auth-url", func() { o.AuthURL = *file.AuthURL })
	}
	if file.ChatURL != nil {
		set("chat-url", func() { o.ChatURL = *file.ChatURL })
	}
	if file.CookieFile != nil {
		set("cookies", func() { o.CookieFile = *file.CookieFile })
	}
	if file.CAFile != nil {
		set("ca", func() { o.CAFile = *file.CAFile })
	}
	if file.LogLevel != nil {
		set("log-level", func() { o.LogLevel = *file.LogLevel })
	}
	if file.LogFile != nil {
		set("log-file", func() { o.LogFile = *file.LogFile })
	}
	if file.HTTPTimeout != nil {
		d, err := time.ParseDuration(*file.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("parse http_timeout: %w", err)
		}
		set("http-timeout", func() { o.HTTPTimeout = d })
	}
	if file.DialTimeout != nil {
		d, err := time.ParseDuration(*file.DialTimeout)
		if err != nil {
			return fmt.Errorf("parse dial_timeout: %w", err)
		}
		set("dial-timeout", func() { o.DialTimeout = d })
	}
	return nil
}

// fileOptions mirrors Options with pointer fields so that keys missing from
// the file leave the current value alone. Durations are Go duration strings.
type fileOptions struct {
	AuthURL     *string `json:"auth_url"`
	ChatURL     *string `json:"chat_url"`
	CookieFile  *string `json:"cookie_file"`
	CAFile      *string `json:"ca_file"`
	LogLevel    *string `json:"log_level"`
	LogFile     *string `json:"log_file"`
	HTTPTimeout *string `json:"http_timeout"`
	DialTimeout *string `json:"dial_timeout"`
}
