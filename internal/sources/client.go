package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// UserAgent identifies medterm to upstream services.
const UserAgent = "medterm/1.0 (+https://github.com/custodia-labs/medterm)"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// Client performs GET requests against one upstream service and maps
// failures onto the domain source errors:
//
//   - transport failures and 5xx: domain.ErrSourceUnreachable
//   - 429: domain.ErrRateLimited, opening the limiter's backoff window
//   - 401 and 403: domain.ErrAuthRequired
//   - 404: domain.ErrNotFound (several services answer "no match" this way)
//   - other non-2xx and undecodable bodies: domain.ErrMalformedResponse
//
// Context cancellation and deadlines are returned as the context error.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *RateLimiter
}

// NewClient creates a client for baseURL. The http.Client is shared by all
// adapters; limiter may be nil.
func NewClient(httpClient *http.Client, baseURL string, limiter *RateLimiter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
	}
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON fetches path and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding json: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// GetXML fetches path and decodes the XML body into out.
func (c *Client) GetXML(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding xml: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// Get fetches path and returns the raw body of a 2xx response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrMalformedResponse, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json, application/xml;q=0.9, */*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreachable, redact(err))
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrSourceUnreachable, err)
	}
	return body, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		if c.limiter != nil {
			c.limiter.RecordRateLimit(ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()))
		}
		return fmt.Errorf("%w: status %d", domain.ErrRateLimited, code)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrAuthRequired, code)
	case code == http.StatusNotFound:
		return domain.ErrNotFound
	case code >= 500:
		return fmt.Errorf("%w: status %d", domain.ErrSourceUnreachable, code)
	default:
		return fmt.Errorf("%w: status %d", domain.ErrMalformedResponse, code)
	}
}

// redact strips the query string from url errors so API keys are not logged.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
		}
	}
	return err
}

// Classify maps a source error onto the error kind recorded in results.
// Unrecognised errors count as unreachable.
func Classify(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorKindTimeout
	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrorKindRateLimited
	case errors.Is(err, domain.ErrAuthRequired):
		return domain.ErrorKindAuthMissing
	case errors.Is(err, domain.ErrMalformedResponse):
		return domain.ErrorKindMalformedResponse
	case errors.Is(err, domain.ErrStoreIO):
		return domain.ErrorKindIOFailure
	default:
		return domain.ErrorKindUnreachable
	}
}

// NewHTTPClient returns the process-wide HTTP client shared by all adapters.
// Per-call deadlines come from the request context, so the client timeout
// only guards against a context without one.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 64
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{
		Transport: transport,
		Timeout:   45 * time.Second,
	}
}
