// Package transport is the remote catalog client. Every failure it returns is
// a *errors.NetworkError from the closed taxonomy in pkg/errors.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/agentstation/storefront/pkg/catalogs"
	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// Client performs single-attempt calls against the remote catalog.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	auth    Authenticator
	logger  *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the deadline applied when the caller's context has none.
// Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAuthenticator sets how credentials are attached.
func WithAuthenticator(auth Authenticator) Option {
	return func(c *Client) {
		if auth != nil {
			c.auth = auth
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the catalog at baseURL. An empty baseURL uses
// the public catalog.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultBaseURL
	}
	c := &Client{
		http:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL: baseURL,
		timeout: constants.DefaultRequestTimeout,
		auth:    NoAuth{},
		logger:  logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the catalog origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchProducts requests up to limit products.
func (c *Client) FetchProducts(ctx context.Context, limit int) ([]catalogs.Product, error) {
	req := NewRequest(
		WithPath(PathProducts),
		WithQuery(map[string]string{"limit": strconv.Itoa(limit)}),
	)
	var products []catalogs.Product
	if err := c.Fetch(ctx, req, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalogs.Product{}
	}
	return products, nil
}

// Fetch performs req once and decodes the JSON body into out.
func (c *Client) Fetch(ctx context.Context, req Request, out any) error {
	endpoint := string(req.Path())

	body, err := c.do(ctx, req, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Response did not match expected shape")
		return errors.NewDecodingError(endpoint, err)
	}
	return nil
}

// FetchBytes downloads an absolute URL, for images and other static assets.
func (c *Client) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(err)
	}
	return c.send(ctx, httpReq, rawURL)
}

func (c *Client) do(ctx context.Context, req Request, endpoint string) ([]byte, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	httpReq, err := req.Build(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	return c.send(ctx, httpReq, endpoint)
}

func (c *Client) send(ctx context.Context, httpReq *http.Request, endpoint string) ([]byte, error) {
	c.auth.Apply(httpReq)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Remote call failed")
		return nil, errors.NewUnknown(endpoint, err)
	}
	if resp == nil {
		return nil, errors.NewInvalidServer(endpoint, -1)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug().Err(cerr).Msg("Failed to close response body")
		}
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Remote call completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.NewInvalidServer(endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, errors.NewUnknown(endpoint, err)
	}
	return body, nil
}

func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}
