// Package auth provides OAuth2 client-credentials authentication for outbound
// provider calls. Tokens are cached and refreshed on expiry; the cache is safe
// for the concurrent requests the discovery workers issue.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type ClientCred struct {
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// GetToken returns a valid access token, requesting a new one when the cached
// token is missing or expired.
func (c *ClientCred) GetToken(ctx context.Context) (string, error) {
	tok, err := c.currentToken(ctx, false)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// ForceRefresh discards the cached token and requests a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	tok, err := c.currentToken(ctx, true)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// SetAuthHeader adds the bearer token to the request, fetching one first when
// needed.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.currentToken(r.Context(), false)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}

func (c *ClientCred) currentToken(ctx context.Context, refresh bool) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !refresh && c.token != nil && c.token.Valid() {
		return c.token, nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok, nil
}
