package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	appTokenKey = "app"

	// tokens are dropped from the cache a bit before twitch expires them
	tokenExpiryBuffer = time.Minute
)

// TokenProvider manages app access tokens for the Twitch Helix API.
// It handles token creation and caching using the client credentials flow.
type TokenProvider struct {
	client       *http.Client
	clientID     string
	clientSecret string
	tokenURL     string

	mu     sync.Mutex
	tokens *ttlcache.Cache[string, string]
}

// NewTokenProvider creates a new app access token provider.
func NewTokenProvider(client *http.Client, clientID, clientSecret, tokenURL string) *TokenProvider {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &TokenProvider{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		tokens: ttlcache.New[string, string](
			ttlcache.WithDisableTouchOnHit[string, string](),
		),
	}
}

// EnsureToken returns a valid app access token, creating one if necessary.
// This method may perform HTTP requests to fetch a new token.
func (p *TokenProvider) EnsureToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if item := p.tokens.Get(appTokenKey); item != nil {
		return item.Value(), nil
	}

	token, ttl, err := p.createToken(ctx)
	if err != nil {
		return "", err
	}

	p.tokens.Set(appTokenKey, token, ttl)
	return token, nil
}

// HasToken reports whether a non-expired token is cached.
func (p *TokenProvider) HasToken() bool {
	return p.tokens.Get(appTokenKey) != nil
}

// InvalidateToken clears the cached token, forcing a refresh on next EnsureToken call.
func (p *TokenProvider) InvalidateToken() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens.Delete(appTokenKey)
}

func (p *TokenProvider) createToken(ctx context.Context) (string, time.Duration, error) {
	formVal := url.Values{}
	formVal.Set("client_id", p.clientID)
	formVal.Set("client_secret", p.clientSecret)
	formVal.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(formVal.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token request returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var tokenResp appTokenResponse
	if err := json.Unmarshal(bodyBytes, &tokenResp); err != nil {
		return "", 0, fmt.Errorf("unmarshal token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", 0, fmt.Errorf("empty access_token in token response")
	}

	ttl := ttlcache.NoTTL
	if expiresIn := time.Duration(tokenResp.ExpiresIn) * time.Second; expiresIn > tokenExpiryBuffer {
		ttl = expiresIn - tokenExpiryBuffer
	}

	return tokenResp.AccessToken, ttl, nil
}
