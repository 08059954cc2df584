// Package auth provides Phantom REST API authentication.
package auth

import "net/http"

// TokenHeader is the header Phantom reads the automation token from.
const TokenHeader = "ph-auth-token"

// Credentials holds a Phantom automation user token.
type Credentials struct {
	Token string
}

// Apply adds authentication headers to an HTTP request.
func (c *Credentials) Apply(req *http.Request) {
	if c == nil {
		return
	}
	req.Header.Set(TokenHeader, c.Token)
}

// Valid reports whether credentials are configured.
func (c *Credentials) Valid() bool {
	return c != nil && c.Token != ""
}

// Basic is a user/password pair sent alongside the token on requests that
// Phantom restricts to interactive users, such as container deletion.
type Basic struct {
	Username string
	Password string
}

// Apply sets the Authorization header when both fields are present.
func (b *Basic) Apply(req *http.Request) {
	if b == nil || b.Username == "" {
		return
	}
	req.SetBasicAuth(b.Username, b.Password)
}
