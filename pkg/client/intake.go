package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"attorneyvisit/internal/refine"
	"attorneyvisit/internal/wizard"
	"attorneyvisit/pkg/middleware"
	"attorneyvisit/pkg/model"

	"github.com/google/uuid"
)

// IntakeClient talks to the intake proxy on behalf of the terminal wizard.
type IntakeClient struct {
	http *HttpClient
}

func NewIntakeClient(baseURL string) *IntakeClient {
	return &IntakeClient{http: NewHttpClient(baseURL)}
}

// StatusError is a non-2xx answer from the proxy.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("intake proxy returned %d: %s", e.Status, e.Message)
}

func (c *IntakeClient) Lookup(ctx context.Context, id model.Identifier) (*model.Subject, error) {
	query := url.Values{}
	query.Set(id.Kind.QueryParam(), id.Value)

	resp, err := c.http.GET(ctx, "/api/pic-lookup?"+query.Encode())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, wizard.ErrLookupNotFound
	}
	if !resp.OK() {
		return nil, &StatusError{Status: resp.StatusCode, Message: GetErrorMessage(resp)}
	}

	var subject model.Subject
	if err := resp.DecodeJSON(&subject); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	return &subject, nil
}

// Submit posts the payload with a fresh idempotency key.
func (c *IntakeClient) Submit(ctx context.Context, payload map[string]string) error {
	resp, err := c.http.POSTWithHeaders(ctx, "/api/submit", payload, map[string]string{
		middleware.IdempotencyHeader: uuid.NewString(),
	})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Status: resp.StatusCode, Message: GetErrorMessage(resp)}
	}
	return nil
}

func (c *IntakeClient) Refine(ctx context.Context, req refine.Request) (string, error) {
	resp, err := c.http.POST(ctx, "/api/refine", req)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &StatusError{Status: resp.StatusCode, Message: GetErrorMessage(resp)}
	}

	var out struct {
		RefinedText string `json:"refinedText"`
	}
	if err := resp.DecodeJSON(&out); err != nil {
		return "", fmt.Errorf("decode refine response: %w", err)
	}
	return out.RefinedText, nil
}
