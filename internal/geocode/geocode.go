package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"attorneyvisit/pkg/logger"
)

const (
	DefaultSuggestURL = "https://geocode.arcgis.com/arcgis/rest/services/World/GeocodeServer/suggest"
	MinQueryLength    = 3
	maxSuggestions    = 10
)

type Suggestion struct {
	Text     string `json:"text"`
	MagicKey string `json:"magicKey"`
}

// Suggester returns US address completions from the ArcGIS World Geocoding
// suggest endpoint. Failures are logged and yield no suggestions.
type Suggester struct {
	endpoint   string
	httpClient *http.Client
	log        *logger.Logger
}

func NewSuggester(endpoint string, log *logger.Logger) *Suggester {
	if endpoint == "" {
		endpoint = DefaultSuggestURL
	}
	return &Suggester{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		log:        log,
	}
}

func (s *Suggester) Suggest(ctx context.Context, text string) []Suggestion {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < MinQueryLength {
		return nil
	}

	q := url.Values{}
	q.Set("f", "json")
	q.Set("text", text)
	q.Set("countryCode", "USA")
	q.Set("maxSuggestions", strconv.Itoa(maxSuggestions))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		s.log.Warn("Failed to build address suggest request", "error", err)
		return nil
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.log.Warn("Address service unavailable", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("Address service unavailable", "status", resp.StatusCode)
		return nil
	}

	var body struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.log.Warn("Failed to decode address suggestions", "error", err)
		return nil
	}

	if len(body.Suggestions) > maxSuggestions {
		body.Suggestions = body.Suggestions[:maxSuggestions]
	}
	return body.Suggestions
}
