package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"attorneyvisit/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that has not been stopped.
func (c *fakeClock) fire() {
	c.mu.Lock()
	pending := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range pending {
		if !t.stopped {
			t.f()
		}
	}
}

type lookupCall struct {
	id  model.Identifier
	ctx context.Context
}

type mockLookupService struct {
	mu       sync.Mutex
	calls    []lookupCall
	LookupFn func(ctx context.Context, id model.Identifier) (*model.Subject, error)
}

func (m *mockLookupService) Lookup(ctx context.Context, id model.Identifier) (*model.Subject, error) {
	m.mu.Lock()
	m.calls = append(m.calls, lookupCall{id: id, ctx: ctx})
	m.mu.Unlock()
	return m.LookupFn(ctx, id)
}

func (m *mockLookupService) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newLookupFixture(t *testing.T, fn func(ctx context.Context, id model.Identifier) (*model.Subject, error)) (*Lookup, *Controller, *mockLookupService, *fakeClock) {
	t.Helper()
	c := newTestController(t, &stubSubmitter{})
	svc := &mockLookupService{LookupFn: fn}
	clock := &fakeClock{}
	return NewLookup(svc, c, WithAfterFunc(clock.AfterFunc)), c, svc, clock
}

func foundSubject(_ context.Context, _ model.Identifier) (*model.Subject, error) {
	return &model.Subject{FirstName: " 1John!", LastName: "Smith.", Facility: "West Facility"}, nil
}

func TestLookup_BookAndCaseNeedsTenDigits(t *testing.T) {
	l, _, svc, clock := newLookupFixture(t, foundSubject)

	for _, v := range []string{"1", "123456789", "12345678901"} {
		l.OnInput(model.KindBookAndCase, v)
	}
	clock.fire()
	assert.Zero(t, svc.count())

	l.OnInput(model.KindBookAndCase, "1234567890")
	require.Len(t, clock.timers, 1)
	assert.Equal(t, DefaultQuietPeriod, clock.timers[0].d)
	clock.fire()
	assert.Equal(t, 1, svc.count())
}

func TestLookup_DebounceKeepsLastInput(t *testing.T) {
	l, c, svc, clock := newLookupFixture(t, foundSubject)

	l.OnInput(model.KindNYSID, "1")
	l.OnInput(model.KindNYSID, "12")
	l.OnInput(model.KindNYSID, "123A")
	clock.fire()

	require.Equal(t, 1, svc.count())
	assert.Equal(t, model.NYSID("123A"), svc.calls[0].id)

	d := c.Draft()
	assert.Equal(t, "John", d.PICFirstName)
	assert.Equal(t, "Smith", d.PICLastName)
	assert.Equal(t, "West Facility", d.Facility)
	assert.Equal(t, LookupState{LastResolved: "123A"}, l.State())

	l.OnInput(model.KindNYSID, " 123A ")
	clock.fire()
	assert.Equal(t, 1, svc.count())
}

func TestLookup_NotFoundLeavesNames(t *testing.T) {
	l, c, _, clock := newLookupFixture(t, func(context.Context, model.Identifier) (*model.Subject, error) {
		return nil, ErrLookupNotFound
	})
	c.Update(func(d *model.Draft) {
		d.PICFirstName = "Typed"
		d.PICLastName = "Name"
	})

	l.OnInput(model.KindBookAndCase, "1234567890")
	clock.fire()

	assert.Equal(t, MsgLookupNotFound, l.State().Error)
	assert.False(t, l.State().Loading)
	assert.Equal(t, "Typed", c.Draft().PICFirstName)
	assert.Equal(t, "Name", c.Draft().PICLastName)
}

func TestLookup_OtherFailure(t *testing.T) {
	l, _, _, clock := newLookupFixture(t, func(context.Context, model.Identifier) (*model.Subject, error) {
		return nil, errors.New("status 500")
	})

	l.OnInput(model.KindNYSID, "999")
	clock.fire()
	assert.Equal(t, MsgLookupFailed, l.State().Error)
}

func TestLookup_SupersededResultDropped(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	l, c, _, clock := newLookupFixture(t, func(_ context.Context, id model.Identifier) (*model.Subject, error) {
		if id.Value == "111" {
			close(entered)
			<-release
			return &model.Subject{FirstName: "Stale", LastName: "Result"}, nil
		}
		return &model.Subject{FirstName: "Fresh", LastName: "Result"}, nil
	})

	l.OnInput(model.KindNYSID, "111")
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.fire()
	}()
	<-entered

	l.OnInput(model.KindNYSID, "222")
	close(release)
	<-done

	assert.Empty(t, c.Draft().PICFirstName)
	assert.Empty(t, l.State().LastResolved)

	clock.fire()
	assert.Equal(t, "Fresh", c.Draft().PICFirstName)
	assert.Equal(t, "222", l.State().LastResolved)
}

func TestLookup_InputCancelsInFlight(t *testing.T) {
	var gotCtx context.Context
	entered := make(chan struct{})
	l, c, _, clock := newLookupFixture(t, func(ctx context.Context, id model.Identifier) (*model.Subject, error) {
		if id.Value == "111" {
			gotCtx = ctx
			close(entered)
			<-ctx.Done()
			return &model.Subject{FirstName: "Stale", LastName: "Result"}, ctx.Err()
		}
		return &model.Subject{FirstName: "Fresh", LastName: "Result"}, nil
	})

	l.OnInput(model.KindNYSID, "111")
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.fire()
	}()
	<-entered

	l.OnInput(model.KindNYSID, "222")
	<-done
	require.ErrorIs(t, gotCtx.Err(), context.Canceled)
	assert.Empty(t, l.State().Error)
	assert.Empty(t, c.Draft().PICFirstName)

	clock.fire()
	assert.Equal(t, "Fresh", c.Draft().PICFirstName)
	assert.Equal(t, "222", l.State().LastResolved)
}

func TestLookup_ReturningToResolvedValueClearsLoading(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c := newTestController(t, &stubSubmitter{})
	clock := &fakeClock{}
	var mu sync.Mutex
	var states []LookupState
	svc := &mockLookupService{LookupFn: func(_ context.Context, id model.Identifier) (*model.Subject, error) {
		if id.Value == "12345678B" {
			close(entered)
			<-release
			return &model.Subject{FirstName: "Stale", LastName: "Result"}, nil
		}
		return &model.Subject{FirstName: "Ann", LastName: "Lee"}, nil
	}}
	l := NewLookup(svc, c,
		WithAfterFunc(clock.AfterFunc),
		WithStateListener(func(s LookupState) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		}),
	)

	l.OnInput(model.KindNYSID, "12345678A")
	clock.fire()
	require.Equal(t, "12345678A", l.State().LastResolved)

	l.OnInput(model.KindNYSID, "12345678B")
	done := make(chan struct{})
	go func() {
		defer close(done)
		clock.fire()
	}()
	<-entered
	require.True(t, l.State().Loading)

	l.OnInput(model.KindNYSID, "12345678A")
	close(release)
	<-done

	assert.False(t, l.State().Loading)
	assert.Equal(t, "12345678A", l.State().LastResolved)
	assert.Equal(t, "Ann", c.Draft().PICFirstName)
	assert.Equal(t, 2, svc.count())

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.False(t, states[len(states)-1].Loading)
}

func TestLookup_SwitchKindClearsState(t *testing.T) {
	l, c, _, clock := newLookupFixture(t, func(context.Context, model.Identifier) (*model.Subject, error) {
		return nil, ErrLookupNotFound
	})
	c.SetIdentifier(model.BookAndCase("1234567890"))

	l.OnInput(model.KindBookAndCase, "1234567890")
	clock.fire()
	require.Equal(t, MsgLookupNotFound, l.State().Error)

	c.Update(func(d *model.Draft) { d.NYSID = "12A" })
	l.SwitchKind(model.KindNYSID)

	assert.Equal(t, LookupState{}, l.State())
	assert.Empty(t, c.Draft().BookAndCase)
	assert.Equal(t, "12A", c.Draft().NYSID)
}

func TestLookup_CloseStopsPending(t *testing.T) {
	l, _, svc, clock := newLookupFixture(t, foundSubject)

	l.OnInput(model.KindNYSID, "123")
	l.Close()
	clock.fire()

	assert.Zero(t, svc.count())
	assert.Empty(t, l.State().Error)
}

func TestLookup_StateListener(t *testing.T) {
	c := newTestController(t, &stubSubmitter{})
	clock := &fakeClock{}
	var states []LookupState
	l := NewLookup(&mockLookupService{LookupFn: foundSubject}, c,
		WithAfterFunc(clock.AfterFunc),
		WithStateListener(func(s LookupState) { states = append(states, s) }),
	)

	l.OnInput(model.KindNYSID, "123")
	clock.fire()

	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.Equal(t, LookupState{LastResolved: "123"}, states[1])
}
