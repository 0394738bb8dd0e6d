package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"attorneyvisit/internal/audit"
	"attorneyvisit/internal/directory"
	intakeerrors "attorneyvisit/internal/intake/errors"
	"attorneyvisit/internal/intake/validator"
	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/workflow"
	apperrors "attorneyvisit/pkg/errors"
	"attorneyvisit/pkg/kafka"
	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockForwarder struct {
	configured  bool
	forwardFunc func(ctx context.Context, payload map[string]any) (json.RawMessage, error)
	calls       int
	lastPayload map[string]any
}

func (m *mockForwarder) Configured() bool { return m.configured }

func (m *mockForwarder) Forward(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	m.calls++
	m.lastPayload = payload
	if m.forwardFunc != nil {
		return m.forwardFunc(ctx, payload)
	}
	return json.RawMessage(`{}`), nil
}

type mockFinder struct {
	findFunc func(ctx context.Context, id model.Identifier) (*model.Subject, error)
	calls    int
	lastID   model.Identifier
}

func (m *mockFinder) FindSubject(ctx context.Context, id model.Identifier) (*model.Subject, error) {
	m.calls++
	m.lastID = id
	if m.findFunc != nil {
		return m.findFunc(ctx, id)
	}
	return &model.Subject{}, nil
}

type mockRefiner struct {
	refineFunc func(ctx context.Context, req refine.Request) (string, error)
}

func (m *mockRefiner) Refine(ctx context.Context, req refine.Request) (string, error) {
	if m.refineFunc != nil {
		return m.refineFunc(ctx, req)
	}
	return req.Text, nil
}

type mockPublisher struct {
	err      error
	messages []kafka.Message
}

func (m *mockPublisher) Publish(_ context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

type mockReceipts struct {
	err      error
	receipts []*audit.Receipt
}

func (m *mockReceipts) Record(_ context.Context, r *audit.Receipt) error {
	m.receipts = append(m.receipts, r)
	return m.err
}

func (m *mockReceipts) Ping(context.Context) error { return nil }

func newTestService(deps Dependencies) IntakeService {
	log := logger.Discard()
	if deps.Forwarder == nil {
		deps.Forwarder = &mockForwarder{configured: true}
	}
	if deps.Directory == nil {
		deps.Directory = &mockFinder{}
	}
	if deps.Refiner == nil {
		deps.Refiner = &mockRefiner{}
	}
	deps.Validator = validator.NewIntakeValidator(log)
	deps.Log = log
	deps.Source = "test"
	return NewIntakeService(deps)
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, status, appErr.HTTPStatus)
	assert.Equal(t, message, appErr.Message)
}

func TestSubmit_RejectsNonObjectBodies(t *testing.T) {
	fwd := &mockForwarder{configured: true}
	svc := newTestService(Dependencies{Forwarder: fwd})

	for _, body := range []string{`[]`, `[{"firstName":"a"}]`, `"text"`, `42`, `null`, `{"a":1}{"b":2}`, `not json`, ``} {
		_, err := svc.Submit(context.Background(), []byte(body))
		requireAppError(t, err, http.StatusBadRequest, intakeerrors.MsgInvalidBody)
	}
	assert.Equal(t, 0, fwd.calls)
}

func TestSubmit_SanitizesAndDropsTrap(t *testing.T) {
	fwd := &mockForwarder{configured: true}
	svc := newTestService(Dependencies{Forwarder: fwd})

	body := `{
		"firstName":"...John",
		"lastName":" . Smith",
		"picFirstName":"...",
		"picLastName":"Doe",
		"message":"...keep me",
		"fax":"",
		"count":3
	}`
	_, err := svc.Submit(context.Background(), []byte(body))
	require.NoError(t, err)

	p := fwd.lastPayload
	assert.Equal(t, "John", p["firstName"])
	assert.Equal(t, "Smith", p["lastName"])
	assert.Equal(t, "", p["picFirstName"])
	assert.Equal(t, "Doe", p["picLastName"])
	assert.Equal(t, "...keep me", p["message"])
	assert.Equal(t, json.Number("3"), p["count"])
	_, hasTrap := p[model.TrapField]
	assert.False(t, hasTrap)
}

func TestSubmit_ReturnsUpstreamBody(t *testing.T) {
	fwd := &mockForwarder{
		configured: true,
		forwardFunc: func(context.Context, map[string]any) (json.RawMessage, error) {
			return json.RawMessage(`{"ticket":"T-1"}`), nil
		},
	}
	out, err := newTestService(Dependencies{Forwarder: fwd}).Submit(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ticket":"T-1"}`, string(out))
}

func TestSubmit_NotConfigured(t *testing.T) {
	t.Run("simulate", func(t *testing.T) {
		fwd := &mockForwarder{configured: false}
		out, err := newTestService(Dependencies{Forwarder: fwd, Simulate: true}).Submit(context.Background(), []byte(`{"firstName":"A"}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"message":"Simulated submission successful"}`, string(out))
		assert.Equal(t, 0, fwd.calls)
	})

	t.Run("configuration error", func(t *testing.T) {
		fwd := &mockForwarder{configured: false}
		_, err := newTestService(Dependencies{Forwarder: fwd}).Submit(context.Background(), []byte(`{}`))
		requireAppError(t, err, http.StatusInternalServerError, intakeerrors.MsgSubmitNotConfigured)
		assert.Equal(t, apperrors.CodeConfiguration, apperrors.AsAppError(err).Code)
	})
}

func TestSubmit_UpstreamFailureIsGeneric(t *testing.T) {
	fwd := &mockForwarder{
		configured: true,
		forwardFunc: func(context.Context, map[string]any) (json.RawMessage, error) {
			return nil, &workflow.UpstreamError{Status: 502, Body: "secret upstream detail"}
		},
	}
	pub := &mockPublisher{}
	_, err := newTestService(Dependencies{Forwarder: fwd, Publisher: pub}).Submit(context.Background(), []byte(`{}`))

	requireAppError(t, err, http.StatusInternalServerError, intakeerrors.MsgSubmitFailed)
	assert.NotContains(t, string(apperrors.AsAppError(err).ToJSON()), "secret upstream detail")
	assert.Empty(t, pub.messages)
}

func TestSubmit_SideEffectsAreBestEffort(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker down")}
	rec := &mockReceipts{err: errors.New("mongo down")}
	svc := newTestService(Dependencies{Publisher: pub, Receipts: rec})

	out, err := svc.Submit(context.Background(), []byte(`{"nysid":"12345678A","facility":"West Facility","preferredDate":"2030-01-02"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, kafka.EventSubmissionForwarded, msg.GetEventType())

	var event kafka.SubmissionForwarded
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, "nysid", event.IdentifierKind)
	assert.Equal(t, "West Facility", event.Facility)
	assert.False(t, event.Simulated)
	assert.Equal(t, msg.Key, event.SubmissionID)

	require.Len(t, rec.receipts, 1)
	assert.Equal(t, event.SubmissionID, rec.receipts[0].SubmissionID)
	assert.Equal(t, "2030-01-02", rec.receipts[0].PreferredDate)
}

func TestLookup_RequiresExactlyOneIdentifier(t *testing.T) {
	finder := &mockFinder{}
	svc := newTestService(Dependencies{Directory: finder})

	for _, q := range []validator.LookupQuery{
		{},
		{NYSID: "  ", BookAndCase: ""},
		{NYSID: "12345678A", BookAndCase: "1234567890"},
	} {
		_, err := svc.Lookup(context.Background(), q)
		requireAppError(t, err, http.StatusBadRequest, intakeerrors.MsgProvideIdentifier)
	}
	assert.Equal(t, 0, finder.calls)
}

func TestLookup_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		findErr    error
		wantStatus int
		wantMsg    string
	}{
		{"not found", directory.ErrSubjectNotFound, http.StatusNotFound, intakeerrors.MsgNoMatch},
		{"not configured", directory.ErrNotConfigured, http.StatusInternalServerError, intakeerrors.MsgDirectoryNotConfigured},
		{"upstream failure", errors.New("status 503"), http.StatusInternalServerError, intakeerrors.MsgLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockFinder{findFunc: func(context.Context, model.Identifier) (*model.Subject, error) {
				return nil, tt.findErr
			}}
			_, err := newTestService(Dependencies{Directory: finder}).
				Lookup(context.Background(), validator.LookupQuery{BookAndCase: "0000000000"})
			requireAppError(t, err, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestLookup_Success(t *testing.T) {
	want := &model.Subject{FirstName: "John", LastName: "Doe", NYSID: "12345678A", Facility: "West Facility"}
	finder := &mockFinder{findFunc: func(context.Context, model.Identifier) (*model.Subject, error) {
		return want, nil
	}}

	got, err := newTestService(Dependencies{Directory: finder}).
		Lookup(context.Background(), validator.LookupQuery{NYSID: " 12345678A "})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, model.NYSID("12345678A"), finder.lastID)
}

func TestRefine(t *testing.T) {
	t.Run("empty text", func(t *testing.T) {
		_, err := newTestService(Dependencies{}).Refine(context.Background(), refine.Request{Text: "  "})
		requireAppError(t, err, http.StatusBadRequest, intakeerrors.MsgTextRequired)
	})

	t.Run("not configured", func(t *testing.T) {
		r := &mockRefiner{refineFunc: func(context.Context, refine.Request) (string, error) {
			return "", refine.ErrNotConfigured
		}}
		_, err := newTestService(Dependencies{Refiner: r}).Refine(context.Background(), refine.Request{Text: "hi"})
		requireAppError(t, err, http.StatusInternalServerError, intakeerrors.MsgRefineNotConfigured)
	})

	t.Run("upstream failure", func(t *testing.T) {
		r := &mockRefiner{refineFunc: func(context.Context, refine.Request) (string, error) {
			return "", errors.New("quota exceeded")
		}}
		_, err := newTestService(Dependencies{Refiner: r}).Refine(context.Background(), refine.Request{Text: "hi"})
		requireAppError(t, err, http.StatusInternalServerError, intakeerrors.MsgRefineFailed)
	})

	t.Run("success", func(t *testing.T) {
		r := &mockRefiner{refineFunc: func(_ context.Context, req refine.Request) (string, error) {
			return "Refined: " + req.Text, nil
		}}
		out, err := newTestService(Dependencies{Refiner: r}).Refine(context.Background(), refine.Request{Text: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "Refined: hi", out)
	})
}
