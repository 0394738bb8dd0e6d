package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/model"
)

const (
	DefaultCooldown = 15 * time.Second
	honeypotDelay   = time.Second
)

// MsgConnectivity is the only failure shown for a transport error or a
// non-2xx answer from the proxy.
const MsgConnectivity = "Could not establish a connection to the submission server. Please try again later."

var ErrConnectivity = errors.New("submission server unreachable")

// UserMessage returns the text shown for a failed submission.
func UserMessage(err error) string {
	if errors.Is(err, ErrConnectivity) {
		return MsgConnectivity
	}
	return err.Error()
}

// CooldownError blocks a submission made too soon after the last accepted
// one.
type CooldownError struct {
	Remaining time.Duration
}

// Seconds rounds the remaining wait up to whole seconds.
func (e *CooldownError) Seconds() int {
	ms := e.Remaining.Milliseconds()
	return int((ms + 999) / 1000)
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("To prevent system spam, please wait %d seconds before submitting another request.", e.Seconds())
}

// Submitter posts the payload to the submission proxy. Any error, including a
// non-2xx status, counts as a failed submission.
type Submitter interface {
	Submit(ctx context.Context, payload map[string]string) error
}

// Outcome is shown on the confirmation view.
type Outcome struct {
	Email string
}

// Guard runs the honeypot and cooldown checks, then submits.
type Guard struct {
	submitter Submitter
	store     CooldownStore
	window    time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	log       *logger.Logger
}

type GuardOption func(*Guard)

func WithCooldown(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.window = d
		}
	}
}

func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) GuardOption {
	return func(g *Guard) { g.sleep = sleep }
}

func NewGuard(submitter Submitter, store CooldownStore, log *logger.Logger, opts ...GuardOption) *Guard {
	g := &Guard{
		submitter: submitter,
		store:     store,
		window:    DefaultCooldown,
		now:       time.Now,
		sleep:     sleepContext,
		log:       log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) Submit(ctx context.Context, draft *model.Draft) (Outcome, error) {
	if draft.HasTrap() {
		g.log.Debug("Trap field filled, faking success")
		if err := g.sleep(ctx, honeypotDelay); err != nil {
			return Outcome{}, err
		}
		return Outcome{Email: draft.Email}, nil
	}

	now := g.now()
	last, ok, err := g.store.LastSubmit()
	if err != nil {
		g.log.Warn("Failed to read cooldown state", "error", err)
	}
	if err == nil && ok {
		elapsedMs := now.UnixMilli() - last.UnixMilli()
		windowMs := g.window.Milliseconds()
		if elapsedMs < windowMs {
			return Outcome{}, &CooldownError{Remaining: time.Duration(windowMs-elapsedMs) * time.Millisecond}
		}
	}

	if err := g.submitter.Submit(ctx, draft.Payload()); err != nil {
		g.log.Warn("Submission failed", "error", err)
		return Outcome{}, ErrConnectivity
	}

	if err := g.store.SetLastSubmit(g.now()); err != nil {
		g.log.Warn("Failed to persist cooldown state", "error", err)
	}
	return Outcome{Email: draft.Email}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
