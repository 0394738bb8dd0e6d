package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"attorneyvisit/pkg/logger"
)

// APIKeyHeader carries the shared secret expected by the workflow trigger.
const APIKeyHeader = "X-Api-Key"

var ErrNotConfigured = errors.New("workflow endpoint is not configured")

// UpstreamError reports a non-2xx answer from the workflow endpoint. Its
// message is for logs only.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("workflow endpoint responded with status %d", e.Status)
}

// Forwarder relays a sanitized submission to the workflow endpoint.
type Forwarder struct {
	url        string
	secret     string
	httpClient *http.Client
	log        *logger.Logger
}

func NewForwarder(url, secret string, timeout time.Duration, log *logger.Logger) *Forwarder {
	return &Forwarder{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (f *Forwarder) Configured() bool {
	return f != nil && f.url != ""
}

// Forward posts payload as JSON and returns the upstream body. An empty or
// non-JSON success body is returned as an empty object.
func (f *Forwarder) Forward(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build workflow request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.secret != "" {
		req.Header.Set(APIKeyHeader, f.secret)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workflow request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		f.log.Warn("Failed to read workflow response body", "error", err)
		respBody = nil
	}

	f.log.Debug("Workflow endpoint responded",
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if len(bytes.TrimSpace(respBody)) == 0 || !json.Valid(respBody) {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(respBody), nil
}
