package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"attorneyvisit/internal/audit"
	"attorneyvisit/internal/directory"
	intakeerrors "attorneyvisit/internal/intake/errors"
	"attorneyvisit/internal/intake/validator"
	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/workflow"
	apperrors "attorneyvisit/pkg/errors"
	"attorneyvisit/pkg/kafka"
	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/middleware"
	"attorneyvisit/pkg/model"
	"attorneyvisit/pkg/sanitizer"

	"github.com/google/uuid"
)

// SanitizedNameFields lose any leading run of dots and whitespace before a
// submission is forwarded.
var SanitizedNameFields = []string{"firstName", "lastName", "picFirstName", "picLastName"}

type IntakeService interface {
	Submit(ctx context.Context, body []byte) (json.RawMessage, error)
	Lookup(ctx context.Context, query validator.LookupQuery) (*model.Subject, error)
	Refine(ctx context.Context, req refine.Request) (string, error)
}

type Forwarder interface {
	Configured() bool
	Forward(ctx context.Context, payload map[string]any) (json.RawMessage, error)
}

type SubjectFinder interface {
	FindSubject(ctx context.Context, id model.Identifier) (*model.Subject, error)
}

type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Dependencies wires the service. Publisher and Receipts may be nil.
type Dependencies struct {
	Forwarder Forwarder
	Directory SubjectFinder
	Refiner   refine.Refiner
	Publisher Publisher
	Receipts  audit.Repository
	Validator *validator.IntakeValidator
	Simulate  bool
	Log       *logger.Logger
	Source    string
}

type intakeService struct {
	deps Dependencies
	now  func() time.Time
}

func NewIntakeService(deps Dependencies) IntakeService {
	return &intakeService{deps: deps, now: time.Now}
}

func (s *intakeService) Submit(ctx context.Context, body []byte) (json.RawMessage, error) {
	payload, err := decodeObject(body)
	if err != nil {
		s.deps.Log.Warn("Rejected submission body", "error", err)
		return nil, apperrors.InvalidInput(intakeerrors.MsgInvalidBody)
	}

	SanitizePayload(payload)
	delete(payload, model.TrapField)

	if !s.deps.Forwarder.Configured() {
		if !s.deps.Simulate {
			s.deps.Log.Error("Submission rejected, no workflow endpoint configured")
			return nil, apperrors.Configuration(intakeerrors.MsgSubmitNotConfigured, workflow.ErrNotConfigured)
		}
		s.deps.Log.Info("Simulating submission", "fields", len(payload))
		s.afterForward(ctx, payload, true)
		return simulatedResponse(), nil
	}

	result, err := s.deps.Forwarder.Forward(ctx, payload)
	if err != nil {
		attrs := []any{"error", err}
		var upErr *workflow.UpstreamError
		if errors.As(err, &upErr) {
			attrs = append(attrs, "upstream_status", upErr.Status, "upstream_body", upErr.Body)
		}
		s.deps.Log.Error("Submission forwarding failed", attrs...)
		return nil, apperrors.Upstream(intakeerrors.MsgSubmitFailed, err)
	}

	s.deps.Log.Info("Submission forwarded",
		"facility", stringValue(payload, "facility"),
		"preferred_date", stringValue(payload, "preferredDate"),
	)
	s.afterForward(ctx, payload, false)
	return result, nil
}

// decodeObject accepts exactly one JSON object.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON object")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("body is not a JSON object")
	}
	return obj, nil
}

// SanitizePayload strips the leading dots from the name fields in place.
// Non-string values are left as they are.
func SanitizePayload(payload map[string]any) {
	for _, field := range SanitizedNameFields {
		if v, ok := payload[field].(string); ok {
			payload[field] = sanitizer.SanitizeNameField(v)
		}
	}
}

func simulatedResponse() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"success": true,
		"message": intakeerrors.MsgSimulatedSubmission,
	})
	return data
}

// afterForward publishes the forwarded event and records a receipt. Neither
// can change the outcome returned to the caller.
func (s *intakeService) afterForward(ctx context.Context, payload map[string]any, simulated bool) {
	if s.deps.Publisher == nil && s.deps.Receipts == nil {
		return
	}

	submissionID := uuid.NewString()
	kind := model.KindBookAndCase
	if stringValue(payload, "nysid") != "" {
		kind = model.KindNYSID
	}
	event := kafka.SubmissionForwarded{
		SubmissionID:   submissionID,
		IdentifierKind: kind.String(),
		Facility:       stringValue(payload, "facility"),
		PreferredDate:  stringValue(payload, "preferredDate"),
		Simulated:      simulated,
		ForwardedAt:    s.now().UTC(),
	}
	requestID := middleware.RequestIDFromContext(ctx)

	if s.deps.Publisher != nil {
		msg, err := kafka.NewMessage().
			WithKey(submissionID).
			WithEventType(kafka.EventSubmissionForwarded).
			WithSchemaVersion(kafka.SubmissionSchemaVersion).
			WithSource(s.deps.Source).
			WithCorrelationID(requestID).
			WithValue(event).
			Build()
		if err == nil {
			err = s.deps.Publisher.Publish(ctx, msg)
		}
		if err != nil {
			s.deps.Log.Warn("Failed to publish submission event", "submission_id", submissionID, "error", err)
		}
	}

	if s.deps.Receipts != nil {
		receipt := &audit.Receipt{
			SubmissionID:   submissionID,
			RequestID:      requestID,
			IdentifierKind: event.IdentifierKind,
			Facility:       event.Facility,
			PreferredDate:  event.PreferredDate,
			Simulated:      simulated,
			CreatedAt:      event.ForwardedAt.Truncate(time.Millisecond),
		}
		if err := s.deps.Receipts.Record(ctx, receipt); err != nil {
			s.deps.Log.Warn("Failed to record submission receipt", "submission_id", submissionID, "error", err)
		}
	}
}

func (s *intakeService) Lookup(ctx context.Context, query validator.LookupQuery) (*model.Subject, error) {
	query.NYSID = strings.TrimSpace(query.NYSID)
	query.BookAndCase = strings.TrimSpace(query.BookAndCase)

	if (query.NYSID == "") == (query.BookAndCase == "") {
		return nil, apperrors.InvalidInput(intakeerrors.MsgProvideIdentifier)
	}
	if err := s.deps.Validator.ValidateLookup(&query); err != nil {
		return nil, apperrors.InvalidInput(intakeerrors.MsgProvideIdentifier).
			WithDetails(map[string]any{"error": err.Error()})
	}

	id := model.BookAndCase(query.BookAndCase)
	if query.NYSID != "" {
		id = model.NYSID(query.NYSID)
	}

	subject, err := s.deps.Directory.FindSubject(ctx, id)
	switch {
	case err == nil:
		return subject, nil
	case errors.Is(err, directory.ErrSubjectNotFound):
		s.deps.Log.Info("Directory lookup found no match", "kind", id.Kind.String())
		return nil, apperrors.NotFound(intakeerrors.MsgNoMatch)
	case errors.Is(err, directory.ErrNotConfigured):
		s.deps.Log.Error("Directory lookup is not configured")
		return nil, apperrors.Configuration(intakeerrors.MsgDirectoryNotConfigured, err)
	default:
		s.deps.Log.Error("Directory lookup failed", "kind", id.Kind.String(), "error", err)
		return nil, apperrors.Upstream(intakeerrors.MsgLookupFailed, err)
	}
}

func (s *intakeService) Refine(ctx context.Context, req refine.Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", apperrors.InvalidInput(intakeerrors.MsgTextRequired)
	}
	if err := s.deps.Validator.ValidateRefine(&req); err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}

	out, err := s.deps.Refiner.Refine(ctx, req)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, refine.ErrNotConfigured):
		return "", apperrors.Configuration(intakeerrors.MsgRefineNotConfigured, err)
	case errors.Is(err, refine.ErrEmptyText):
		return "", apperrors.InvalidInput(intakeerrors.MsgTextRequired)
	default:
		s.deps.Log.Error("Message refinement failed", "category", req.Category, "error", err)
		return "", apperrors.Upstream(intakeerrors.MsgRefineFailed, err)
	}
}

func stringValue(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}
