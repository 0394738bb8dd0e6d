package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"attorneyvisit/pkg/model"
	"attorneyvisit/pkg/sanitizer"
)

const (
	DefaultQuietPeriod = 500 * time.Millisecond

	MsgLookupNotFound = "No matching PIC found."
	MsgLookupFailed   = "Unable to retrieve PIC details."
)

// ErrLookupNotFound is returned by a LookupService when the directory has no
// record for the identifier.
var ErrLookupNotFound = errors.New("no matching PIC found")

type LookupService interface {
	Lookup(ctx context.Context, id model.Identifier) (*model.Subject, error)
}

type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// RealAfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// LookupState is what the identifier field shows.
type LookupState struct {
	Error        string
	Loading      bool
	LastResolved string
}

// SubjectSink receives resolved names and facility. *Controller implements
// it. ApplySubject is called with the lookup lock held and must not call back
// into the Lookup.
type SubjectSink interface {
	ApplySubject(firstName, lastName, facility string)
	KeepIdentifier(kind model.IdentifierKind)
}

// Lookup resolves the typed identifier after a quiet period. Each keystroke
// cancels the pending timer and any in-flight request; a generation counter
// drops results that arrive after being superseded.
type Lookup struct {
	svc       LookupService
	sink      SubjectSink
	quiet     time.Duration
	afterFunc AfterFunc

	mu       sync.Mutex
	gen      uint64
	timer    Timer
	cancel   context.CancelFunc
	state    LookupState
	onChange func(LookupState)
}

type LookupOption func(*Lookup)

func WithAfterFunc(fn AfterFunc) LookupOption {
	return func(l *Lookup) { l.afterFunc = fn }
}

func WithQuietPeriod(d time.Duration) LookupOption {
	return func(l *Lookup) { l.quiet = d }
}

// WithStateListener is called, outside the lock, whenever the state changes.
func WithStateListener(fn func(LookupState)) LookupOption {
	return func(l *Lookup) { l.onChange = fn }
}

func NewLookup(svc LookupService, sink SubjectSink, opts ...LookupOption) *Lookup {
	l := &Lookup{
		svc:       svc,
		sink:      sink,
		quiet:     DefaultQuietPeriod,
		afterFunc: RealAfterFunc,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Lookup) State() LookupState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// OnInput is called with the identifier field's value after every change.
func (l *Lookup) OnInput(kind model.IdentifierKind, value string) {
	trimmed := strings.TrimSpace(value)

	l.mu.Lock()
	changed := l.stopPendingLocked()

	if trimmed == "" || (kind == model.KindBookAndCase && len(trimmed) != model.BookAndCaseLength) {
		l.state = LookupState{}
		state := l.state
		l.mu.Unlock()
		l.notify(state)
		return
	}

	if trimmed != l.state.LastResolved {
		gen := l.gen
		ctx, cancel := context.WithCancel(context.Background())
		l.cancel = cancel
		id := model.Identifier{Kind: kind, Value: trimmed}
		l.timer = l.afterFunc(l.quiet, func() { l.run(ctx, gen, id) })
	}
	state := l.state
	l.mu.Unlock()

	if changed {
		l.notify(state)
	}
}

// SwitchKind clears the other identifier in the draft and all lookup state.
func (l *Lookup) SwitchKind(kind model.IdentifierKind) {
	l.mu.Lock()
	l.stopPendingLocked()
	l.state = LookupState{}
	state := l.state
	l.mu.Unlock()

	l.sink.KeepIdentifier(kind)
	l.notify(state)
}

// Close cancels any pending or in-flight lookup without surfacing an error.
func (l *Lookup) Close() {
	l.mu.Lock()
	l.stopPendingLocked()
	l.mu.Unlock()
}

// stopPendingLocked invalidates the current generation and clears Loading,
// since a superseded run never reports back. It reports whether Loading was
// cleared.
func (l *Lookup) stopPendingLocked() bool {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if !l.state.Loading {
		return false
	}
	l.state.Loading = false
	return true
}

func (l *Lookup) run(ctx context.Context, gen uint64, id model.Identifier) {
	l.mu.Lock()
	if gen != l.gen || ctx.Err() != nil {
		l.mu.Unlock()
		return
	}
	l.state.Loading = true
	l.state.Error = ""
	state := l.state
	l.mu.Unlock()
	l.notify(state)

	subject, err := l.svc.Lookup(ctx, id)

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.state.Loading = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.timer = nil

	switch {
	case err == nil:
		l.state.LastResolved = id.Value
	case errors.Is(err, context.Canceled):
	case errors.Is(err, ErrLookupNotFound):
		l.state.Error = MsgLookupNotFound
	default:
		l.state.Error = MsgLookupFailed
	}
	if err == nil && subject != nil {
		l.sink.ApplySubject(
			sanitizer.SanitizeSubjectName(subject.FirstName),
			sanitizer.SanitizeSubjectName(subject.LastName),
			subject.Facility,
		)
	}
	state = l.state
	l.mu.Unlock()

	l.notify(state)
}

func (l *Lookup) notify(state LookupState) {
	if l.onChange != nil {
		l.onChange(state)
	}
}
