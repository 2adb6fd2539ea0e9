package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
)

// Version is reported in the User-Agent header
var Version = "dev"

// TokenSource supplies the bearer credential for each request
type TokenSource interface {
	Token() string
}

// categoryPaths maps each category to its list endpoint
var categoryPaths = map[domain.Category]string{
	domain.CategoryAll:         "/movies",
	domain.CategoryLiked:       "/liked",
	domain.CategoryDisliked:    "/disliked",
	domain.CategoryRecommended: "/recommend",
}

// Options configures a Client
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables client-side rate limiting
	Burst             int
	HTTPClient        *http.Client
}

// Client implements domain.Catalog against the catalog HTTP API
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewClient creates a new catalog API client
func NewClient(baseURL string, tokens TokenSource, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
		retryDelay: baseRetryDelay,
	}
}

// ListCategory returns one page of a category list
func (c *Client) ListCategory(ctx context.Context, category domain.Category, page, pageSize int) (domain.Page, error) {
	path, ok := categoryPaths[category]
	if !ok {
		return domain.Page{}, fmt.Errorf("unknown category: %q", category)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	body, err := c.doRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return domain.Page{}, err
	}
	return parsePage(body, pageSize)
}

// Search returns one page of results for query restricted to scope
func (c *Client) Search(ctx context.Context, query string, scope domain.Category, page, pageSize int) (domain.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("query", query)
	params.Set("scope", string(scope))

	body, err := c.doRequest(ctx, http.MethodGet, "/search", params, nil)
	if err != nil {
		return domain.Page{}, err
	}
	return parsePage(body, pageSize)
}

// Mutate posts a like, dislike or undislike. The ack body is ignored.
func (c *Client) Mutate(ctx context.Context, action domain.Action, pref domain.Preference) error {
	switch action {
	case domain.ActionLike, domain.ActionDislike, domain.ActionUndislike:
	default:
		return fmt.Errorf("unknown action: %q", action)
	}

	payload, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	_, err = c.doRequest(ctx, http.MethodPost, "/"+string(action), nil, payload)
	return err
}

// Login exchanges username/password for an access token
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/login", nil, payload)
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login response missing access_token")
	}
	return resp.AccessToken, nil
}

// Signup registers a new user
func (c *Client) Signup(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(credentialsRequest{Username: username, Password: password})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = c.doRequest(ctx, http.MethodPost, "/signup", nil, payload)
	return err
}

// doRequest performs an authenticated request and returns the body of a 2xx response.
// GETs retry 5xx responses with exponential backoff; writes are sent once.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	retries := 0
	if method == http.MethodGet {
		retries = maxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "reel/"+Version)
		req.Header.Set("X-Request-ID", requestID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		c.logger.Debug("catalog request", "method", method, "path", path, "request_id", requestID, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("catalog request failed", "error", err, "path", path)
			return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		apiErr := newAPIError(resp.StatusCode, resp.Status, body)
		if resp.StatusCode >= 500 && attempt < retries {
			c.logger.Warn("catalog server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", retries,
				"path", path,
			)
			lastErr = apiErr
			continue
		}

		c.logger.Error("catalog request error", "status", resp.StatusCode, "path", path, "detail", apiErr.Message)
		return nil, apiErr
	}

	return nil, lastErr
}
