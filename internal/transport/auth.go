package transport

import (
	"net/http"
)

// Authenticator applies credentials to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (NoAuth) Apply(_ *http.Request) {}

// BearerAuth sends an Authorization bearer token.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// HeaderAuth sends the key in a custom header.
type HeaderAuth struct {
	Header string
	Key    string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Header != "" && a.Key != "" {
		req.Header.Set(a.Header, a.Key)
	}
}

// AuthenticatorFor picks bearer auth when a key is configured, none otherwise.
func AuthenticatorFor(apiKey string) Authenticator {
	if apiKey == "" {
		return NoAuth{}
	}
	return BearerAuth{Token: apiKey}
}
