package leadform

import (
	"context"
	"fmt"
	"log"
	"sync"

	"leadcapture/internal/domain"
	"leadcapture/internal/metrics"
	apperrors "leadcapture/pkg/errors"
)

// State is the submission lifecycle of the form
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SubmitFailedMessage is shown after a submission the CRM did not accept.
const SubmitFailedMessage = "Failed to submit. Please try again."

var (
	// ErrInvalidFields is returned by Submit when at least one field fails validation.
	ErrInvalidFields = apperrors.New(apperrors.ErrCodeValidation, "one or more fields are invalid")
	// ErrSubmitInProgress is returned by Submit while a previous submission is in flight.
	ErrSubmitInProgress = apperrors.New(apperrors.ErrCodeBusy, "a submission is already in progress")
)

// Submitter delivers a lead to the CRM
type Submitter interface {
	SubmitLead(ctx context.Context, lead domain.Lead) error
}

// Snapshot is a copy of the form state for rendering
type Snapshot struct {
	Fields      domain.Lead
	Errors      FieldErrors
	State       State
	Progress    int
	SubmitError string
	Focused     Field
}

// Option configures a Controller
type Option func(*Controller)

// WithFocus registers the hook that moves input focus to a field.
func WithFocus(fn func(Field)) Option {
	return func(c *Controller) {
		c.focus = fn
	}
}

// Controller owns the lead form state: field values, per-field errors,
// progress and the submission lifecycle. It is safe for concurrent use;
// the lock is released while a submission is on the wire.
type Controller struct {
	submitter Submitter
	focus     func(Field)

	mu        sync.Mutex
	fields    domain.Lead
	errors    FieldErrors
	state     State
	progress  int
	submitErr string
	focused   Field
}

// New creates a form controller that submits through s
func New(s Submitter, opts ...Option) *Controller {
	c := &Controller{
		submitter: s,
		errors:    FieldErrors{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current form state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Fields:      c.fields,
		Errors:      c.errors.Clone(),
		State:       c.state,
		Progress:    c.progress,
		SubmitError: c.submitErr,
		Focused:     c.focused,
	}
}

// State returns the current submission state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetField updates one field, revalidates it and recomputes progress.
func (c *Controller) SetField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !setValue(&c.fields, field, value) {
		return fmt.Errorf("leadform: unknown field %q", field)
	}
	if msg := Validate(field, value); msg != "" {
		c.errors[field] = msg
	} else {
		delete(c.errors, field)
	}
	c.progress = Progress(c.fields)
	return nil
}

// Submit validates every field and, when all pass, sends the lead. On
// success the form is cleared and the state becomes StateSubmitted. On
// failure the input is kept, SubmitError is set and the state returns to
// StateIdle so the user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}

	errs := ValidateAll(c.fields)
	if first, ok := errs.First(); ok {
		c.errors = errs
		c.submitErr = ""
		c.focused = first
		focus := c.focus
		c.mu.Unlock()

		log.Printf("[LEADFORM] Submit blocked: %d invalid field(s), first=%s", len(errs), first)
		metrics.RecordFormSubmission("invalid")
		if focus != nil {
			focus(first)
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidFields, first, errs[first])
	}

	c.state = StateSubmitting
	c.submitErr = ""
	lead := c.fields
	c.mu.Unlock()

	err := c.submitter.SubmitLead(ctx, lead)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		log.Printf("[LEADFORM] Error submitting lead: %v", err)
		metrics.RecordFormSubmission("failed")
		c.state = StateIdle
		c.submitErr = SubmitFailedMessage
		return fmt.Errorf("submit lead: %w", err)
	}

	log.Printf("[LEADFORM] Lead submitted: email=%s, company=%s", lead.Email, lead.Company)
	metrics.RecordFormSubmission("submitted")
	c.clearLocked()
	c.state = StateSubmitted
	return nil
}

// Reset returns to an empty idle form, e.g. "submit another lead" after
// the thank-you state. Calling it repeatedly has no further effect. It
// does nothing while a submission is in flight.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return
	}
	c.clearLocked()
	c.state = StateIdle
}

// Clear empties fields, errors and progress without changing the
// submission state. It reports false, leaving the form untouched, while a
// submission is in flight.
func (c *Controller) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return false
	}
	c.clearLocked()
	return true
}

func (c *Controller) clearLocked() {
	c.fields = domain.Lead{}
	c.errors = FieldErrors{}
	c.progress = 0
	c.submitErr = ""
	c.focused = ""
}
