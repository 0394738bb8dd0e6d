package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"attorneyvisit/internal/directory"
	"attorneyvisit/internal/intake/handler"
	"attorneyvisit/internal/intake/service"
	"attorneyvisit/internal/intake/validator"
	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/wizard"
	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/middleware"
	"attorneyvisit/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFinder struct {
	FindSubjectFn func(ctx context.Context, id model.Identifier) (*model.Subject, error)
}

func (m *mockFinder) FindSubject(ctx context.Context, id model.Identifier) (*model.Subject, error) {
	return m.FindSubjectFn(ctx, id)
}

type mockForwarder struct {
	configured bool
	ForwardFn  func(ctx context.Context, payload map[string]any) (json.RawMessage, error)
}

func (m *mockForwarder) Configured() bool { return m.configured }

func (m *mockForwarder) Forward(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	return m.ForwardFn(ctx, payload)
}

type mockRefiner struct {
	RefineFn func(ctx context.Context, req refine.Request) (string, error)
}

func (m *mockRefiner) Refine(ctx context.Context, req refine.Request) (string, error) {
	return m.RefineFn(ctx, req)
}

type proxyFixture struct {
	finder    *mockFinder
	forwarder *mockForwarder
	refiner   *mockRefiner
	client    *IntakeClient

	mu   sync.Mutex
	keys []string
}

func newProxyFixture(t *testing.T) *proxyFixture {
	t.Helper()
	log := logger.Discard()
	f := &proxyFixture{
		finder: &mockFinder{FindSubjectFn: func(context.Context, model.Identifier) (*model.Subject, error) {
			return nil, directory.ErrSubjectNotFound
		}},
		forwarder: &mockForwarder{configured: true, ForwardFn: func(context.Context, map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{}`), nil
		}},
		refiner: &mockRefiner{RefineFn: func(_ context.Context, req refine.Request) (string, error) {
			return "Refined: " + req.Text, nil
		}},
	}

	svc := service.NewIntakeService(service.Dependencies{
		Forwarder: f.forwarder,
		Directory: f.finder,
		Refiner:   f.refiner,
		Validator: validator.NewIntakeValidator(log),
		Log:       log,
	})
	router := httprouter.New()
	handler.NewIntakeHandler(svc, log).RegisterRoutes(router)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(middleware.IdempotencyHeader); key != "" {
			f.mu.Lock()
			f.keys = append(f.keys, key)
			f.mu.Unlock()
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	f.client = NewIntakeClient(srv.URL)
	return f
}

func TestIntakeClient_LookupFound(t *testing.T) {
	f := newProxyFixture(t)
	var got model.Identifier
	f.finder.FindSubjectFn = func(_ context.Context, id model.Identifier) (*model.Subject, error) {
		got = id
		return &model.Subject{FirstName: "John", LastName: "Smith", NYSID: "12345678A", Facility: "West Facility"}, nil
	}

	subject, err := f.client.Lookup(context.Background(), model.NYSID("12345678A"))
	require.NoError(t, err)
	assert.Equal(t, model.NYSID("12345678A"), got)
	assert.Equal(t, "John", subject.FirstName)
	assert.Equal(t, "West Facility", subject.Facility)
}

func TestIntakeClient_LookupNotFound(t *testing.T) {
	f := newProxyFixture(t)

	_, err := f.client.Lookup(context.Background(), model.BookAndCase("1234567890"))
	assert.ErrorIs(t, err, wizard.ErrLookupNotFound)
}

func TestIntakeClient_LookupUpstreamFailure(t *testing.T) {
	f := newProxyFixture(t)
	f.finder.FindSubjectFn = func(context.Context, model.Identifier) (*model.Subject, error) {
		return nil, errors.New("directory unavailable")
	}

	_, err := f.client.Lookup(context.Background(), model.NYSID("1"))
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "Unable to retrieve PIC details.", statusErr.Message)
}

func TestIntakeClient_SubmitSendsIdempotencyKey(t *testing.T) {
	f := newProxyFixture(t)
	var forwarded map[string]any
	f.forwarder.ForwardFn = func(_ context.Context, payload map[string]any) (json.RawMessage, error) {
		forwarded = payload
		return json.RawMessage(`{"ok":true}`), nil
	}

	err := f.client.Submit(context.Background(), map[string]string{"firstName": "..Jane", "email": "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", forwarded["firstName"])
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.keys, 1)
	assert.Len(t, f.keys[0], 36)
}

func TestIntakeClient_SubmitFailure(t *testing.T) {
	f := newProxyFixture(t)
	f.forwarder.ForwardFn = func(context.Context, map[string]any) (json.RawMessage, error) {
		return nil, errors.New("upstream 500")
	}

	err := f.client.Submit(context.Background(), map[string]string{"firstName": "Jane"})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "Failed to submit data.", statusErr.Message)
}

func TestIntakeClient_Refine(t *testing.T) {
	f := newProxyFixture(t)

	out, err := f.client.Refine(context.Background(), refine.Request{Text: "pls visit", Category: "General"})
	require.NoError(t, err)
	assert.Equal(t, "Refined: pls visit", out)

	_, err = f.client.Refine(context.Background(), refine.Request{Text: "  "})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestWizardOverProxy_NotFoundLeavesNames(t *testing.T) {
	f := newProxyFixture(t)

	guard := wizard.NewGuard(f.client, &wizard.MemoryCooldownStore{}, logger.Discard())
	ctrl := wizard.NewController(model.DefaultCatalogue(), guard)
	ctrl.Update(func(d *model.Draft) {
		d.PICFirstName = "Typed"
		d.PICLastName = "Name"
	})

	states := make(chan wizard.LookupState, 4)
	lookup := wizard.NewLookup(f.client, ctrl,
		wizard.WithQuietPeriod(time.Millisecond),
		wizard.WithStateListener(func(s wizard.LookupState) {
			if !s.Loading {
				states <- s
			}
		}),
	)
	defer lookup.Close()

	lookup.OnInput(model.KindBookAndCase, "1234567890")

	select {
	case s := <-states:
		assert.Equal(t, wizard.MsgLookupNotFound, s.Error)
	case <-time.After(5 * time.Second):
		t.Fatal("lookup did not finish")
	}
	assert.Equal(t, "Typed", ctrl.Draft().PICFirstName)
	assert.Equal(t, "Name", ctrl.Draft().PICLastName)
}

func TestWizardOverProxy_SubmitFailureIsConnectivity(t *testing.T) {
	f := newProxyFixture(t)
	f.forwarder.ForwardFn = func(context.Context, map[string]any) (json.RawMessage, error) {
		return nil, errors.New("boom")
	}

	guard := wizard.NewGuard(f.client, &wizard.MemoryCooldownStore{}, logger.Discard())
	d := model.Draft{FirstName: "Jane", Email: "jane@example.com"}

	_, err := guard.Submit(context.Background(), &d)
	assert.ErrorIs(t, err, wizard.ErrConnectivity)
}
