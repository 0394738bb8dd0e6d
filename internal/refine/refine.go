package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"attorneyvisit/pkg/logger"
)

var (
	ErrNotConfigured = errors.New("message refinement is not configured")
	ErrEmptyText     = errors.New("text is required")
	ErrEmptyResult   = errors.New("model returned no text")
)

const (
	defaultCategory = "General Inquiry"
	defaultRole     = "Attorney"
)

var promptTemplate = template.Must(template.New("refine").Parse(
	`You are helping a {{.Role}} write a message to a correctional facility's legal visit desk.
The message category is "{{.Category}}".

Rewrite the message below so it is clear, concise and professional.
Keep every fact, name, date and number exactly as given.
Do not add facts, requests or commitments that are not in the original.
Return plain text only, with no markdown, headings or surrounding quotes.

Message:
{{.Text}}`))

type Request struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Role     string `json:"role"`
}

// Refiner rewrites free text. Implemented by the Gemini client and by the
// proxy client used from the terminal wizard.
type Refiner interface {
	Refine(ctx context.Context, req Request) (string, error)
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(req Request) (string, error) {
	if req.Category = strings.TrimSpace(req.Category); req.Category == "" {
		req.Category = defaultCategory
	}
	if req.Role = strings.TrimSpace(req.Role); req.Role == "" {
		req.Role = defaultRole
	}
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// RefineOrOriginal never fails: any error yields the original text.
func RefineOrOriginal(ctx context.Context, r Refiner, req Request, log *logger.Logger) string {
	if r == nil {
		return req.Text
	}
	out, err := r.Refine(ctx, req)
	if err != nil || strings.TrimSpace(out) == "" {
		if err != nil {
			log.Debug("Refinement failed, keeping original text", "error", err)
		}
		return req.Text
	}
	return out
}

// GeminiClient calls the generateContent method of the Generative Language
// API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewGeminiClient(apiKey, model, baseURL string, timeout time.Duration, log *logger.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (g *GeminiClient) Configured() bool {
	return g != nil && g.apiKey != ""
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *GeminiClient) Refine(ctx context.Context, req Request) (string, error) {
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", ErrEmptyText
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]any{
			"temperature": 0.3,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode gemini request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	var parsed geminiResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini API error (%d)", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode gemini response: %w", decodeErr)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyResult
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}
