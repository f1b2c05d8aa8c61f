package transport

import "net/http"

// Authenticator applies a credential to outbound requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth applies nothing.
type NoAuth struct{}

// Apply implements Authenticator.
func (NoAuth) Apply(*http.Request) {}

// BearerAuth sends the token as an Authorization bearer.
type BearerAuth struct {
	Token string
}

// Apply implements Authenticator.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// HeaderAuth sends the token in a custom header.
type HeaderAuth struct {
	Header string
	Token  string
}

// Apply implements Authenticator.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Header == "" || a.Token == "" {
		return
	}
	req.Header.Set(a.Header, a.Token)
}

// AuthFor picks an authenticator for token: none when empty, a custom
// header when header is set, a bearer token otherwise.
func AuthFor(token, header string) Authenticator {
	switch {
	case token == "":
		return NoAuth{}
	case header != "" && header != "Authorization":
		return HeaderAuth{Header: header, Token: token}
	default:
		return BearerAuth{Token: token}
	}
}
