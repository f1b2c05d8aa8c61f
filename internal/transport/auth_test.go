package transport

import (
	"net/http"
	"testing"
)

func TestNoAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	NoAuth{}.Apply(req)

	if len(req.Header) != 0 {
		t.Errorf("Expected no headers, got %d", len(req.Header))
	}
}

func TestBearerAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	BearerAuth{Token: "secret"}.Apply(req)

	if got := req.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Expected bearer header, got %q", got)
	}
}

func TestHeaderAuth(t *testing.T) {
	req := &http.Request{Header: make(http.Header)}
	HeaderAuth{Header: "X-Catalog-Key", Token: "secret"}.Apply(req)

	if got := req.Header.Get("X-Catalog-Key"); got != "secret" {
		t.Errorf("Expected X-Catalog-Key header, got %q", got)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("Should not have Authorization header")
	}
}

func TestAuthFor(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   Authenticator
	}{
		{"no token", "", "X-Key", NoAuth{}},
		{"bearer", "t", "", BearerAuth{Token: "t"}},
		{"explicit authorization", "t", "Authorization", BearerAuth{Token: "t"}},
		{"custom header", "t", "X-Key", HeaderAuth{Header: "X-Key", Token: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthFor(tt.token, tt.header); got != tt.want {
				t.Errorf("AuthFor(%q, %q) = %#v, want %#v", tt.token, tt.header, got, tt.want)
			}
		})
	}
}
