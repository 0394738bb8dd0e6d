package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"attorneyvisit/pkg/logger"
	"attorneyvisit/pkg/model"
	"attorneyvisit/pkg/sanitizer"
)

const (
	apiPath              = "/api/data/v9.2/"
	formattedValueSuffix = "@OData.Community.Display.V1.FormattedValue"
	preferAnnotations    = `odata.include-annotations="OData.Community.Display.V1.FormattedValue"`
)

// Fields names the directory columns read by a lookup.
type Fields struct {
	FirstName   string
	LastName    string
	NYSID       string
	BookAndCase string
	Facility    string
}

func DefaultFields() Fields {
	return Fields{
		FirstName:   "firstname",
		LastName:    "lastname",
		NYSID:       "nysid",
		BookAndCase: "bookandcase",
		Facility:    "facility",
	}
}

func (f Fields) forKind(kind model.IdentifierKind) string {
	if kind == model.KindNYSID {
		return f.NYSID
	}
	return f.BookAndCase
}

func (f Fields) selectList() string {
	return strings.Join([]string{f.FirstName, f.LastName, f.NYSID, f.BookAndCase, f.Facility}, ",")
}

type tokenSource interface {
	Get(ctx context.Context) (string, error)
}

// Client resolves custody subjects from the directory's OData endpoint.
type Client struct {
	baseURL    string
	entitySet  string
	fields     Fields
	tokens     tokenSource
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(baseURL, entitySet string, tokens *TokenCache, log *logger.Logger) *Client {
	return newClient(baseURL, entitySet, tokens, &http.Client{Timeout: 15 * time.Second}, log)
}

func newClient(baseURL, entitySet string, tokens tokenSource, hc *http.Client, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		entitySet:  entitySet,
		fields:     DefaultFields(),
		tokens:     tokens,
		httpClient: hc,
		log:        log,
	}
}

// EscapeLiteral doubles single quotes so the value stays inside an OData
// string literal.
func EscapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// BuildFilter returns the $filter expression matching id exactly.
func (c *Client) BuildFilter(id model.Identifier) string {
	return fmt.Sprintf("%s eq '%s'", c.fields.forKind(id.Kind), EscapeLiteral(id.Value))
}

func (c *Client) queryURL(id model.Identifier) string {
	q := url.Values{}
	q.Set("$filter", c.BuildFilter(id))
	q.Set("$top", "1")
	q.Set("$select", c.fields.selectList())
	return c.baseURL + apiPath + url.PathEscape(c.entitySet) + "?" + q.Encode()
}

func (c *Client) FindSubject(ctx context.Context, id model.Identifier) (*model.Subject, error) {
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	req.Header.Set("Prefer", preferAnnotations)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read directory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Directory query failed",
			"status", resp.StatusCode,
			"kind", id.Kind.String(),
			"body", truncate(string(body), 512),
		)
		return nil, fmt.Errorf("directory returned status %d", resp.StatusCode)
	}

	var result struct {
		Value []map[string]any `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode directory response: %w", err)
	}
	if len(result.Value) == 0 {
		return nil, ErrSubjectNotFound
	}

	return c.toSubject(result.Value[0]), nil
}

func (c *Client) toSubject(row map[string]any) *model.Subject {
	facility := stringField(row, c.fields.Facility+formattedValueSuffix)
	if facility == "" {
		facility = stringField(row, c.fields.Facility)
	}
	return &model.Subject{
		FirstName:   sanitizer.StripLeadingDots(stringField(row, c.fields.FirstName)),
		LastName:    sanitizer.StripLeadingDots(stringField(row, c.fields.LastName)),
		NYSID:       stringField(row, c.fields.NYSID),
		BookAndCase: stringField(row, c.fields.BookAndCase),
		Facility:    facility,
	}
}

func stringField(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
