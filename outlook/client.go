package outlook

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

	"github.com/google/uuid"

	"github.com/custodia-labs/mailtrail/internal/logger"
)

const defaultBaseURL = "https://outlook.office365.com/api/v1.0"

const userAgent = "mailtrail-go/1.0"

// Client accesses mailbox activity through the Outlook REST API.
//
// The client remembers the last credential and mailbox identity supplied to
// any of its operations, so repeated calls against the same mailbox only need
// them once. Cached session state is never cleared implicitly; supplying a
// new credential or mailbox replaces the cached one. A Client is safe for
// concurrent use.
type Client struct {
	mu         sync.Mutex
	credential Credential
	mailbox    string

	baseURL     string
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithCredential seeds the client's cached credential.
func WithCredential(cred Credential) Option {
	return func(c *Client) { c.credential = cred }
}

// WithMailbox seeds the client's cached mailbox identity.
func WithMailbox(mailbox string) Option {
	return func(c *Client) { c.mailbox = mailbox }
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRateLimit replaces the default request pacing configuration.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *Client) { c.rateLimiter = NewRateLimiterWithConfig(cfg) }
}

// NewClient creates a client for the Outlook REST API.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		rateLimiter: NewRateLimiter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveSession resolves the credential and mailbox for a call. Supplied
// values replace the cached ones; absent values fall back to the cache.
// The credential is resolved first, so a call with neither credential
// available fails before the mailbox is considered.
func (c *Client) resolveSession(cred Credential, mailbox string) (Credential, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cred != nil {
		c.credential = cred
	} else {
		cred = c.credential
	}
	if cred == nil {
		return nil, "", ErrCredentialsNotSet
	}

	if mailbox != "" {
		c.mailbox = mailbox
	} else {
		mailbox = c.mailbox
	}
	if mailbox == "" {
		return nil, "", ErrUserNotSet
	}

	return cred, mailbox, nil
}

// Validate checks that the cached credential can access the cached mailbox.
// It issues a minimal probe request and reports the result.
func (c *Client) Validate(ctx context.Context) error {
	cred, mailbox, err := c.resolveSession(nil, "")
	if err != nil {
		return err
	}

	probeURL := c.baseURL + "/Users('" + url.PathEscape(mailbox) + "')/Messages?$top=1&$select=Id"
	return c.getJSON(ctx, probeURL, cred, "", nil)
}

// doRequest performs an authenticated GET request against the service.
func (c *Client) doRequest(
	ctx context.Context, requestURL string, cred Credential, prefer string,
) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("client-request-id", uuid.New().String())
	req.Header.Set("return-client-request-id", "true")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	if err := cred.Authorize(req); err != nil {
		return nil, err
	}

	return c.httpClient.Do(req)
}

// getJSON performs an authenticated GET and decodes the JSON response into
// out. A nil out discards the response body after the status check.
func (c *Client) getJSON(
	ctx context.Context, requestURL string, cred Credential, prefer string, out any,
) error {
	logger.Debug("outlook: GET %s", requestURL)

	resp, err := c.doRequest(ctx, requestURL, cred, prefer)
	if err != nil {
		if IsConfiguration(err) || IsTransport(err) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}

	logger.Debug("outlook: response status %d, body length %d", resp.StatusCode, len(body))

	if resp.StatusCode == http.StatusTooManyRequests {
		c.rateLimiter.RecordRateLimitError(retryAfterSeconds(resp))
	}
	if wrapped := WrapError(resp.StatusCode); wrapped != nil {
		logger.Debug("outlook: request failed with body: %s", string(body))
		return fmt.Errorf("request failed: status %d: %w", resp.StatusCode, wrapped)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrTransport, err)
	}
	return nil
}

// retryAfterSeconds parses the Retry-After header, 0 when absent or malformed.
func retryAfterSeconds(resp *http.Response) int {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return seconds
}
