package transport

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"strings"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// Path is a remote catalog endpoint.
type Path string

// Known endpoints.
const (
	PathProducts Path = constants.ProductsPath
)

// Method is an HTTP method supported by the remote catalog.
type Method string

// Supported methods.
const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// Request is an immutable description of one remote call. Build it with
// NewRequest and derive variants with With; neither mutates the receiver.
type Request struct {
	path    Path
	method  Method
	query   map[string]string
	headers map[string]string
}

// RequestOption configures a Request under construction.
type RequestOption func(*Request)

// WithPath sets the endpoint.
func WithPath(path Path) RequestOption {
	return func(r *Request) { r.path = path }
}

// WithMethod sets the HTTP method.
func WithMethod(method Method) RequestOption {
	return func(r *Request) { r.method = method }
}

// WithQuery merges query parameters; later values win for repeated keys.
func WithQuery(params map[string]string) RequestOption {
	return func(r *Request) { maps.Copy(r.query, params) }
}

// WithHeaders merges headers; later values win for repeated keys.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *Request) { maps.Copy(r.headers, headers) }
}

// NewRequest creates a request. The method defaults to GET.
func NewRequest(opts ...RequestOption) Request {
	r := Request{
		method:  MethodGet,
		query:   map[string]string{},
		headers: map[string]string{},
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// With returns a copy of r with opts applied.
func (r Request) With(opts ...RequestOption) Request {
	next := Request{
		path:    r.path,
		method:  r.method,
		query:   maps.Clone(r.query),
		headers: maps.Clone(r.headers),
	}
	if next.query == nil {
		next.query = map[string]string{}
	}
	if next.headers == nil {
		next.headers = map[string]string{}
	}
	for _, opt := range opts {
		opt(&next)
	}
	return next
}

// Path returns the endpoint.
func (r Request) Path() Path { return r.path }

// Method returns the HTTP method.
func (r Request) Method() Method { return r.method }

// Query returns a copy of the query parameters.
func (r Request) Query() map[string]string { return maps.Clone(r.query) }

// Headers returns a copy of the headers.
func (r Request) Headers() map[string]string { return maps.Clone(r.headers) }

// Validate reports an InvalidRequest error when a required field is unset.
func (r Request) Validate() error {
	if r.path == "" {
		return errors.NewInvalidRequest(errors.NewValidationError("path", r.path, "path is required"))
	}
	switch r.method {
	case MethodGet, MethodPost:
	default:
		return errors.NewInvalidRequest(errors.NewValidationError("method", r.method, "unsupported method"))
	}
	return nil
}

// Build validates r and resolves it against baseURL.
func (r Request) Build(ctx context.Context, baseURL string) (*http.Request, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/") + string(r.path))
	if err != nil || u.Scheme == "" || u.Host == "" {
		if err == nil {
			err = errors.NewValidationError("base_url", baseURL, "absolute URL required")
		}
		return nil, errors.NewInvalidRequest(err)
	}

	if len(r.query) > 0 {
		values := u.Query()
		for k, v := range r.query {
			values.Set(k, v)
		}
		u.RawQuery = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, string(r.method), u.String(), nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
