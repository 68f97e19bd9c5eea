package form

import (
	"context"
	"sync"

	"github.com/atinyakov/GophChat/internal/autherr"
	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/logger"
	"github.com/atinyakov/GophChat/internal/models"
	"go.uber.org/zap"
)

// Notifier shows a notification to the user.
type Notifier interface {
	Notify(n models.Notification)
}

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// Authorizer performs the login request.
type Authorizer interface {
	Authorize(ctx context.Context, creds models.Credentials) (*api.AuthorizeResponse, error)
}

// Registrar performs the registration request.
type Registrar interface {
	Register(ctx context.Context, creds models.Credentials) error
}

// Outcome is the result of a Submit call.
type Outcome int

const (
	// OutcomeBusy means another submit was still in flight; nothing was sent.
	OutcomeBusy Outcome = iota
	// OutcomeInvalid means validation failed; nothing was sent.
	OutcomeInvalid
	// OutcomeFailed means the request was sent and failed.
	OutcomeFailed
	// OutcomeSucceeded means the request succeeded and navigation happened.
	OutcomeSucceeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBusy:
		return "busy"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	case OutcomeSucceeded:
		return "succeeded"
	}
	return "unknown"
}

var validationFailed = models.Notification{
	Kind:        models.NotifyError,
	Title:       "Validation Error",
	Description: "Please check your input fields.",
}

type submitFunc func(ctx context.Context, creds models.Credentials) error

// Controller holds the state of one credential form.
type Controller struct {
	name      string
	schema    Schema
	submit    submitFunc
	classify  func(error) autherr.Message
	success   models.Notification
	next      string
	onSuccess func()

	notifier  Notifier
	navigator Navigator
	log       *zap.Logger

	mu         sync.Mutex
	values     models.FieldValues
	errors     models.FieldErrors
	submitting bool
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSchema replaces the default schema.
func WithSchema(s Schema) Option {
	return func(c *Controller) { c.schema = s }
}

// WithOnSuccess registers a callback run after a successful submit and
// before navigation.
func WithOnSuccess(fn func()) Option {
	return func(c *Controller) { c.onSuccess = fn }
}

// NewLogin returns the login form. A successful login leads to the chat.
func NewLogin(a Authorizer, n Notifier, nav Navigator, log *zap.Logger, opts ...Option) *Controller {
	c := newController("login", n, nav, log)
	c.schema = LoginSchema()
	c.submit = func(ctx context.Context, creds models.Credentials) error {
		_, err := a.Authorize(ctx, creds)
		return err
	}
	c.classify = autherr.Login
	c.success = models.Notification{
		Kind:        models.NotifySuccess,
		Title:       "Login Successful",
		Description: "You have been successfully logged in.",
	}
	c.next = models.RouteChat
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRegistration returns the registration form. A successful
// registration leads back to the login screen.
func NewRegistration(r Registrar, n Notifier, nav Navigator, log *zap.Logger, opts ...Option) *Controller {
	c := newController("registration", n, nav, log)
	c.schema = RegistrationSchema()
	c.submit = r.Register
	c.classify = autherr.Registration
	c.success = models.Notification{
		Kind:        models.NotifySuccess,
		Title:       "Registration Successful",
		Description: "Your account has been created. Please login.",
	}
	c.next = models.RouteLogin
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newController(name string, n Notifier, nav Navigator, log *zap.Logger) *Controller {
	return &Controller{
		name:      name,
		notifier:  n,
		navigator: nav,
		log:       logger.OrNop(log).With(zap.String("form", name)),
		values:    models.FieldValues{},
		errors:    models.FieldErrors{},
	}
}

// Fields returns the field names in schema order.
func (c *Controller) Fields() []string {
	names := make([]string, 0, len(c.schema))
	for _, f := range c.schema {
		names = append(names, f.Name)
	}
	return names
}

// ChangeField stores value and re-validates that field only. It returns
// the field's current error, "" when valid.
func (c *Controller) ChangeField(field, value string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[field] = value
	msg := c.schema.ValidateField(field, c.values)
	if msg == "" {
		delete(c.errors, field)
	} else {
		c.errors[field] = msg
	}
	return msg
}

// Submit validates all fields and, when they are valid, sends exactly one
// request. A call made while another is in flight returns OutcomeBusy.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		c.log.Debug("submit ignored, request in flight")
		return OutcomeBusy
	}

	errs := c.schema.Validate(c.values)
	c.errors = errs
	if len(errs) > 0 {
		c.mu.Unlock()
		c.notifier.Notify(validationFailed)
		return OutcomeInvalid
	}

	creds := c.values.Credentials()
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	if err := c.submit(ctx, creds); err != nil {
		c.log.Info("submit failed", zap.Error(err))
		msg := c.classify(err)
		c.notifier.Notify(models.Notification{
			Kind:        models.NotifyError,
			Title:       msg.Title,
			Description: msg.Description,
		})
		return OutcomeFailed
	}

	c.notifier.Notify(c.success)
	if c.onSuccess != nil {
		c.onSuccess()
	}
	c.navigator.Navigate(c.next)
	return OutcomeSucceeded
}

// Values returns a copy of the current values.
func (c *Controller) Values() models.FieldValues {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(models.FieldValues, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() models.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(models.FieldErrors, len(c.errors))
	for k, v := range c.errors {
		out[k] = v
	}
	return out
}

// Submitting reports whether a request is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Reset clears values and errors.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = models.FieldValues{}
	c.errors = models.FieldErrors{}
}
