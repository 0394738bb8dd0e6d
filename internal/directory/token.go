package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"attorneyvisit/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultExpiryMargin   = 60 * time.Second
	fallbackTokenLifetime = 5 * time.Minute
)

type Credentials struct {
	BaseURL      string
	AuthorityURL string
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (c Credentials) complete() bool {
	return c.BaseURL != "" && c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

func (c Credentials) tokenURL() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimSuffix(c.AuthorityURL, "/"), url.PathEscape(c.TenantID))
}

func (c Credentials) scope() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/.default"
}

// TokenCache holds one client-credentials bearer token and refreshes it when
// it is absent or within Margin of expiry. Two callers racing on an empty
// cache may both exchange; the later result wins.
type TokenCache struct {
	creds      Credentials
	margin     time.Duration
	httpClient *http.Client
	now        func() time.Time
	log        *logger.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

type TokenOption func(*TokenCache)

func WithClock(now func() time.Time) TokenOption {
	return func(tc *TokenCache) { tc.now = now }
}

func WithHTTPClient(c *http.Client) TokenOption {
	return func(tc *TokenCache) { tc.httpClient = c }
}

func WithExpiryMargin(d time.Duration) TokenOption {
	return func(tc *TokenCache) {
		if d > 0 {
			tc.margin = d
		}
	}
}

func NewTokenCache(creds Credentials, log *logger.Logger, opts ...TokenOption) *TokenCache {
	tc := &TokenCache{
		creds:      creds,
		margin:     DefaultExpiryMargin,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(tc)
	}
	return tc
}

func (tc *TokenCache) Get(ctx context.Context) (string, error) {
	if !tc.creds.complete() {
		return "", ErrNotConfigured
	}

	tc.mu.Lock()
	if tc.token != "" && tc.expiresAt.Sub(tc.now()) > tc.margin {
		token := tc.token
		tc.mu.Unlock()
		return token, nil
	}
	tc.mu.Unlock()

	token, expiresAt, err := tc.exchange(ctx)
	if err != nil {
		return "", err
	}

	tc.mu.Lock()
	tc.token = token
	tc.expiresAt = expiresAt
	tc.mu.Unlock()

	tc.log.Debug("Directory token refreshed", "expires_at", expiresAt)
	return token, nil
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	ExpiresIn   seconds `json:"expires_in"`
}

// seconds accepts both 3599 and "3599"; identity providers disagree.
type seconds int64

func (s *seconds) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("expires_in: %w", err)
	}
	*s = seconds(n)
	return nil
}

func (tc *TokenCache) exchange(ctx context.Context) (string, time.Time, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {tc.creds.ClientID},
		"client_secret": {tc.creds.ClientSecret},
		"scope":         {tc.creds.scope()},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.creds.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := tc.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token response has no access_token")
	}

	return tr.AccessToken, tc.expiry(tr), nil
}

// expiry prefers expires_in, then the exp claim of the token, then a short
// fixed lifetime.
func (tc *TokenCache) expiry(tr tokenResponse) time.Time {
	now := tc.now()
	if tr.ExpiresIn > 0 {
		return now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}

	return now.Add(fallbackTokenLifetime)
}
