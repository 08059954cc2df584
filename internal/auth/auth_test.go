package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentials(t *testing.T) {
	t.Run("apply sets token header", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://phantom.local/rest/container", nil)
		creds := &Credentials{Token: "secret"}
		creds.Apply(req)
		assert.Equal(t, "secret", req.Header.Get(TokenHeader))
	})

	t.Run("nil credentials are a no-op", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://phantom.local/rest/container", nil)
		var creds *Credentials
		creds.Apply(req)
		assert.Empty(t, req.Header.Get(TokenHeader))
		assert.False(t, creds.Valid())
	})

	t.Run("empty token is invalid", func(t *testing.T) {
		assert.False(t, (&Credentials{}).Valid())
		assert.True(t, (&Credentials{Token: "x"}).Valid())
	})
}

func TestBasic(t *testing.T) {
	req, _ := http.NewRequest(http.MethodDelete, "https://phantom.local/rest/container/1", nil)
	(&Basic{Username: "admin", Password: "hunter2"}).Apply(req)

	user, pass, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, "hunter2", pass)

	req2, _ := http.NewRequest(http.MethodDelete, "https://phantom.local/rest/container/1", nil)
	(&Basic{}).Apply(req2)
	_, _, ok = req2.BasicAuth()
	assert.False(t, ok)
}
