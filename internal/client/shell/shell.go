// Package shell is the interactive terminal front end of the chat client.
// It renders notifications and chat messages as plain lines and moves
// between the home, login, registration and chat screens.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/auth"
	"github.com/atinyakov/GophChat/internal/client/chat"
	"github.com/atinyakov/GophChat/internal/client/form"
	"github.com/atinyakov/GophChat/internal/client/prompt"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// RouteHome is the ungated start screen.
const RouteHome = "/"

// CookieStore is the part of the cookie store the shell needs.
type CookieStore interface {
	auth.TokenSource
	Save() error
}

// Config wires the shell to its collaborators.
type Config struct {
	In      io.Reader
	Out     io.Writer
	API     *api.Client
	Gate    *auth.Gate
	Cookies CookieStore
	Dialer  chat.Dialer
	ChatURL string
	Log     *zap.Logger
}

// Shell is a read-eval-print loop over the client components.
type Shell struct {
	prompt  *prompt.Prompter
	api     *api.Client
	gate    *auth.Gate
	cookies CookieStore
	log     *zap.Logger

	login    *form.Controller
	register *form.Controller
	chat     *chat.Session

	ctx   context.Context
	route string

	outMu sync.Mutex
	out   io.Writer
}

// lockedWriter serializes writes from the prompt, the command loop and the
// chat receive goroutine.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// New builds a Shell positioned on the home screen.
func New(cfg Config) *Shell {
	s := &Shell{
		api:     cfg.API,
		gate:    cfg.Gate,
		cookies: cfg.Cookies,
		log:     logger.OrNop(cfg.Log),
		ctx:     context.Background(),
		route:   RouteHome,
	}
	s.out = lockedWriter{mu: &s.outMu, w: cfg.Out}
	s.prompt = prompt.New(cfg.In, s.out)
	s.login = form.NewLogin(cfg.API, s, s, s.log)
	s.register = form.NewRegistration(cfg.API, s, s, s.log)
	s.chat = chat.NewSession(cfg.Dialer, cfg.ChatURL, s.log,
		chat.WithOnMessage(func(msg string) { s.println(msg) }),
		chat.WithOnStateChange(func(st models.ConnState) {
			if st == models.Disconnected {
				s.println("* disconnected from chat")
			}
		}),
	)
	return s
}

// Notify prints a notification as one line.
func (s *Shell) Notify(n models.Notification) {
	mark := "+"
	if n.Kind == models.NotifyError {
		mark = "!"
	}
	s.printf("%s %s: %s\n", mark, n.Title, n.Description)
}

// Navigate moves to route after consulting the auth gate. Leaving the chat
// screen closes the chat connection.
func (s *Shell) Navigate(route string) {
	target := route
	switch route {
	case models.RouteChat:
		if r := s.gate.Protect(s.ctx); r != "" {
			target = r
		}
	case models.RouteLogin, models.RouteRegister:
		if r := s.gate.GuestOnly(s.ctx); r != "" {
			target = r
		}
	}
	if target != route {
		s.log.Debug("navigation redirected", zap.String("from", route), zap.String("to", target))
	}

	if s.route == models.RouteChat && target != models.RouteChat {
		if err := s.chat.Close(); err != nil {
			s.log.Warn("close chat on navigation", zap.Error(err))
		}
	}
	if target == models.RouteLogin {
		s.login.Reset()
	}
	if target == models.RouteRegister {
		s.register.Reset()
	}
	s.route = target
	s.printf("== %s ==\n", screenTitle(target))
}

// Route returns the current screen.
func (s *Shell) Route() string {
	return s.route
}

// Chat exposes the chat session.
func (s *Shell) Chat() *chat.Session {
	return s.chat
}

// Run reads commands until /exit, end of input or ctx cancellation. The chat
// connection is closed and the cookie store saved on every exit path.
func (s *Shell) Run(ctx context.Context) (err error) {
	s.ctx = ctx
	defer func() {
		err = multierr.Append(err, s.Close())
	}()

	s.printf("== %s ==\n", screenTitle(s.route))
	s.help()

	for {
		line, ok := s.ask("", false)
		if !ok {
			if ctx.Err() != nil {
				return nil
			}
			return s.prompt.Err()
		}
		if !s.Exec(line) {
			return nil
		}
	}
}

// Once runs a single command line, then closes the shell like Run does.
func (s *Shell) Once(ctx context.Context, line string) error {
	s.ctx = ctx
	s.Exec(line)
	return s.Close()
}

// ask reads one answer. It gives up when the shell context is cancelled;
// the pending read is abandoned and the shell must not read again.
func (s *Shell) ask(label string, secret bool) (string, bool) {
	type answer struct {
		value string
		ok    bool
	}
	ch := make(chan answer, 1)
	go func() {
		var a answer
		if secret {
			a.value, a.ok = s.prompt.Password(label)
		} else {
			a.value, a.ok = s.prompt.Line(label)
		}
		ch <- a
	}()

	select {
	case a := <-ch:
		return a.value, a.ok
	case <-s.ctx.Done():
		return "", false
	}
}

// Close releases the chat connection and persists the cookie store.
func (s *Shell) Close() error {
	var err error
	multierr.AppendInto(&err, s.chat.Close())
	if s.cookies != nil {
		multierr.AppendInto(&err, s.cookies.Save())
	}
	return err
}

// Exec runs one input line; form commands read their fields from the
// shell input. It returns false when the shell should stop.
func (s *Shell) Exec(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, "/") {
		s.say(line)
		return true
	}

	cmd, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "help":
		s.help()
	case "exit", "quit":
		return false
	case "home":
		s.Navigate(RouteHome)
	case "chat":
		s.Navigate(models.RouteChat)
	case "login":
		s.Navigate(models.RouteLogin)
		if s.route == models.RouteLogin {
			s.fill(s.login)
		}
	case "register":
		s.Navigate(models.RouteRegister)
		if s.route == models.RouteRegister {
			s.fill(s.register)
		}
	case "field":
		s.field(args)
	case "submit":
		if c := s.currentForm(); c != nil {
			s.submit(c)
		} else {
			s.println("nothing to submit on this screen")
		}
	case "join":
		s.join(args)
	case "leave":
		if err := s.chat.Disconnect(); err != nil {
			s.printf("leave: %v\n", err)
		}
	case "messages":
		for _, m := range s.chat.Messages() {
			s.println(m)
		}
	case "status":
		s.status()
	default:
		s.printf("unknown command /%s, try /help\n", cmd)
	}
	return true
}

func (s *Shell) currentForm() *form.Controller {
	switch s.route {
	case models.RouteLogin:
		return s.login
	case models.RouteRegister:
		return s.register
	}
	return nil
}

// fill prompts for every field, then submits. A field left unanswered at
// end of input stays missing.
func (s *Shell) fill(c *form.Controller) {
	for _, name := range c.Fields() {
		value, ok := s.ask(fieldLabel(name)+": ", name == models.FieldPassword)
		if !ok {
			if s.ctx.Err() != nil {
				return
			}
			continue
		}
		if msg := c.ChangeField(name, value); msg != "" {
			s.printf("  %s: %s\n", name, msg)
		}
	}
	s.submit(c)
}

func (s *Shell) submit(c *form.Controller) {
	if c.Submit(s.ctx) != form.OutcomeInvalid {
		return
	}
	errs := c.Errors()
	for _, name := range c.Fields() {
		if msg, ok := errs[name]; ok {
			s.printf("  %s: %s\n", name, msg)
		}
	}
}

func (s *Shell) field(args string) {
	c := s.currentForm()
	if c == nil {
		s.println("no form on this screen, use /login or /register")
		return
	}
	name, value, ok := strings.Cut(args, " ")
	if name == "" {
		s.println("usage: /field <name> <value>")
		return
	}
	if !ok {
		value = ""
	}
	if msg := c.ChangeField(name, value); msg != "" {
		s.printf("  %s: %s\n", name, msg)
	}
}

func (s *Shell) join(username string) {
	if s.route != models.RouteChat {
		s.println("open the chat screen first with /chat")
		return
	}
	if username == "" {
		if token, ok := s.cookies.Token(models.SessionCookie); ok {
			username, _ = auth.Subject(token)
		}
	}
	err := s.chat.Connect(s.ctx, username)
	switch {
	case errors.Is(err, chat.ErrEmptyUsername):
		s.println("usage: /join <username>")
	case err != nil:
		s.printf("join: %v\n", err)
	default:
		s.printf("* connected as %s\n", username)
	}
}

func (s *Shell) say(text string) {
	err := s.chat.Send(text)
	switch {
	case errors.Is(err, chat.ErrNotConnected):
		s.println("not connected, use /join <username> on the chat screen")
	case errors.Is(err, chat.ErrEmptyMessage):
	case err != nil:
		s.printf("send: %v\n", err)
	}
}

func (s *Shell) status() {
	resp, err := s.gate.Fetch(s.ctx, http.MethodGet, s.api.URL("/check"), nil)
	var redirect *auth.RedirectError
	if errors.As(err, &redirect) {
		s.Navigate(redirect.Location)
		return
	}
	if err != nil {
		s.printf("status: %v\n", err)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.printf("status: %v\n", err)
		return
	}
	s.println(strings.TrimSpace(string(body)))
}

func (s *Shell) help() {
	s.println(`commands:
  /home /login /register /chat   switch screen
  /field <name> <value>          set a form field
  /submit                        submit the current form
  /join [username]               connect to the chat
  /leave                         disconnect and clear messages
  /messages                      show received messages
  /status                        call the protected status endpoint
  /exit                          quit
any other line is sent to the chat while connected`)
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func screenTitle(route string) string {
	switch route {
	case models.RouteLogin:
		return "Login"
	case models.RouteRegister:
		return "Register"
	case models.RouteChat:
		return "Chat Room"
	}
	return "Home"
}

func fieldLabel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
