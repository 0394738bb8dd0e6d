package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"attorneyvisit/pkg/model"

	"github.com/go-playground/validator/v10"
)

var ErrNotVerified = errors.New("please confirm the information is accurate before submitting")

// Controller owns the draft and the current step. All methods are safe for
// concurrent use; the lookup goroutine merges results through ApplySubject.
type Controller struct {
	mu        sync.Mutex
	step      Step
	draft     model.Draft
	verified  bool
	success   bool
	submitErr error
	outcome   Outcome

	catalogue *model.Catalogue
	validate  *validator.Validate
	guard     *Guard

	// OnScrollTop runs after every Advance, Retreat, Reset and successful
	// submission.
	OnScrollTop func()
}

type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	now func() time.Time
}

// WithToday sets the clock used to reject past visit dates.
func WithToday(now func() time.Time) ControllerOption {
	return func(o *controllerOptions) { o.now = now }
}

func NewController(catalogue *model.Catalogue, guard *Guard, opts ...ControllerOption) *Controller {
	o := controllerOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller{
		catalogue: catalogue,
		validate:  newStepValidator(catalogue, o.now),
		guard:     guard,
	}
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() model.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Catalogue() *model.Catalogue {
	return c.catalogue
}

// Update applies fn to the draft. Identifier changes should go through
// SetIdentifier so the other identifier is cleared.
func (c *Controller) Update(fn func(d *model.Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

func (c *Controller) SetIdentifier(id model.Identifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.SetIdentifier(id)
}

// KeepIdentifier clears the identifier that is not of kind.
func (c *Controller) KeepIdentifier(kind model.IdentifierKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.KeepIdentifier(kind)
}

// ApplySubject merges a lookup result. The facility is taken only when it
// matches the catalogue.
func (c *Controller) ApplySubject(firstName, lastName, facility string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.PICFirstName = firstName
	c.draft.PICLastName = lastName
	if match, ok := c.catalogue.MatchFacility(facility); ok {
		c.draft.Facility = match
	}
}

// ValidateStep checks step against the current draft without moving.
func (c *Controller) ValidateStep(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return validateStep(c.validate, step, &c.draft)
}

// Advance moves forward one step if the current step validates. It stays on
// the last step.
func (c *Controller) Advance() error {
	c.mu.Lock()
	if err := validateStep(c.validate, c.step, &c.draft); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.step < LastStep {
		c.step++
	}
	c.mu.Unlock()

	c.scrollTop()
	return nil
}

// Retreat moves back one step without validation. It stays on the first step.
func (c *Controller) Retreat() {
	c.mu.Lock()
	if c.step > FirstStep {
		c.step--
	}
	c.mu.Unlock()

	c.scrollTop()
}

func (c *Controller) SetVerified(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verified = v
}

func (c *Controller) Verified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified
}

// Reset restores an empty draft on the first step and clears the
// verification, success and error state.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.draft = model.Draft{}
	c.step = FirstStep
	c.verified = false
	c.success = false
	c.submitErr = nil
	c.outcome = Outcome{}
	c.mu.Unlock()

	c.scrollTop()
}

// Submit runs the guard for the reviewed draft. A failed submission keeps
// the draft for retry and is also available from SubmitError.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if !c.verified {
		c.mu.Unlock()
		return Outcome{}, ErrNotVerified
	}
	for _, step := range []Step{StepAttorney, StepSubject, StepScheduling} {
		if err := validateStep(c.validate, step, &c.draft); err != nil {
			c.mu.Unlock()
			return Outcome{}, err
		}
	}
	draft := c.draft
	c.submitErr = nil
	c.mu.Unlock()

	outcome, err := c.guard.Submit(ctx, &draft)

	c.mu.Lock()
	if err != nil {
		c.submitErr = err
		c.mu.Unlock()
		return Outcome{}, err
	}
	c.success = true
	c.outcome = outcome
	c.mu.Unlock()

	c.scrollTop()
	return outcome, nil
}

func (c *Controller) Success() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.success
}

func (c *Controller) SubmitError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

func (c *Controller) scrollTop() {
	if c.OnScrollTop != nil {
		c.OnScrollTop()
	}
}
