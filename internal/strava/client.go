package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ennygo-server/internal/metrics"
)

const (
	defaultBaseURL  = "https://www.strava.com/api/v3"
	defaultTokenURL = "https://www.strava.com/oauth/token"
)

// Client is a Strava API client. Each call is a single HTTP request with no
// retry or backoff; failures are logged and mapped to fixed domain errors.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	logger       *slog.Logger
	rateLimits   *RateLimitTracker
}

// NewClient creates a new Strava API client
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		logger:       slog.Default(),
		rateLimits:   NewRateLimitTracker(),
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// SetTokenURL overrides the OAuth token URL (used in tests)
func (c *Client) SetTokenURL(u string) {
	c.tokenURL = u
}

// RateLimitStatus returns the most recently observed rate limit state
func (c *Client) RateLimitStatus() RateLimitStatus {
	return c.rateLimits.Status()
}

// TokenResponse represents the response from a token exchange or refresh
type TokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int             `json:"expires_in"`
	Athlete      json.RawMessage `json:"athlete,omitempty"`
}

// ExchangeCode exchanges an authorization code for access and refresh tokens
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	tokenResp, err := c.postTokenForm(ctx, metrics.OpExchangeCode, data)
	if err != nil {
		c.logger.Error("token exchange failed", "error", err)
		return nil, ErrExchangeToken
	}

	return tokenResp, nil
}

// RefreshToken refreshes an access token using a refresh token
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	tokenResp, err := c.postTokenForm(ctx, metrics.OpRefreshToken, data)
	if err != nil {
		c.logger.Error("token refresh failed", "error", err)
		metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, ErrRefreshToken
	}

	metrics.TokenRefreshesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return tokenResp, nil
}

func (c *Client) postTokenForm(ctx context.Context, op string, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.send(req, op)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResp, nil
}

// doRequest performs a single authenticated API request and returns the
// response body. Non-2xx responses become an *HTTPError.
func (c *Client) doRequest(ctx context.Context, op, method, path, accessToken string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.send(req, op)
}

func (c *Client) send(req *http.Request, op string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.StravaAPIRequestsTotal.WithLabelValues(op, "0").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.rateLimits.UpdateFromHeaders(resp.Header)

	statusStr := strconv.Itoa(resp.StatusCode)
	metrics.StravaAPIRequestsTotal.WithLabelValues(op, statusStr).Inc()
	metrics.StravaAPIRequestDuration.WithLabelValues(op, statusStr).Observe(duration.Seconds())

	c.logger.Debug("strava_api_request",
		"operation", op,
		"method", req.Method,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds())

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	return bodyBytes, nil
}
