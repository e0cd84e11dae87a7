package twitch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/julez-dev/chatbridge/httputil"
)

var ErrNoClientSecret = errors.New("no client secret was provided")

const (
	DefaultBaseURL  = "https://api.twitch.tv/helix"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
)

type APIOptionFunc func(api *API) error

func WithHTTPClient(client *http.Client) APIOptionFunc {
	return func(api *API) error {
		api.client = client
		return nil
	}
}

func WithClientSecret(secret string) APIOptionFunc {
	return func(api *API) error {
		api.clientSecret = secret
		return nil
	}
}

func WithBaseURL(baseURL string) APIOptionFunc {
	return func(api *API) error {
		if _, err := url.Parse(baseURL); err != nil {
			return fmt.Errorf("invalid helix base url: %w", err)
		}
		api.baseURL = baseURL
		return nil
	}
}

func WithTokenURL(tokenURL string) APIOptionFunc {
	return func(api *API) error {
		api.tokenURL = tokenURL
		return nil
	}
}

func WithLogger(logger zerolog.Logger) APIOptionFunc {
	return func(api *API) error {
		api.logger = logger
		return nil
	}
}

// API is a minimal Helix client authenticated with an app access token.
type API struct {
	client *http.Client
	tokens *TokenProvider
	logger zerolog.Logger

	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
}

func NewAPI(clientID string, opts ...APIOptionFunc) (*API, error) {
	api := &API{
		clientID: clientID,
		baseURL:  DefaultBaseURL,
		tokenURL: DefaultTokenURL,
		logger:   zerolog.Nop(),
	}

	for _, f := range opts {
		if err := f(api); err != nil {
			return nil, err
		}
	}

	if api.clientSecret == "" {
		return nil, ErrNoClientSecret
	}

	base := http.DefaultClient
	if api.client != nil {
		base = api.client
	}

	// copy so the caller's client is not mutated
	client := *base
	client.Transport = &httputil.RateLimitRetryTransport{Transport: base.Transport}
	api.client = &client

	api.tokens = NewTokenProvider(api.client, api.clientID, api.clientSecret, api.tokenURL)

	return api, nil
}

// Authorize acquires the app access token up front so the first lookup does not pay for it.
func (a *API) Authorize(ctx context.Context) error {
	if _, err := a.tokens.EnsureToken(ctx); err != nil {
		return fmt.Errorf("failed to create app access token: %w", err)
	}

	return nil
}

// IsAuthorised reports whether a non-expired app access token is held.
func (a *API) IsAuthorised() bool {
	return a.tokens.HasToken()
}

func (a *API) GetUsers(ctx context.Context, logins []string, ids []string) (UserResponse, error) {
	values := url.Values{}
	for _, login := range logins {
		values.Add("login", login)
	}

	for _, id := range ids {
		values.Add("id", id)
	}

	resp, err := doAuthenticatedAppRequest[UserResponse](ctx, a, http.MethodGet, "/users?"+values.Encode(), nil)
	if err != nil {
		return UserResponse{}, err
	}

	return resp, nil
}

func (a *API) GetChannelInformation(ctx context.Context, broadcasterIDs []string) (GetChannelInformationResponse, error) {
	values := url.Values{}
	for _, id := range broadcasterIDs {
		values.Add("broadcaster_id", id)
	}

	resp, err := doAuthenticatedAppRequest[GetChannelInformationResponse](ctx, a, http.MethodGet, "/channels?"+values.Encode(), nil)
	if err != nil {
		return GetChannelInformationResponse{}, err
	}

	return resp, nil
}

func (a *API) GetStreams(ctx context.Context, userIDs []string, userLogins []string) (GetStreamsResponse, error) {
	values := url.Values{}
	for _, id := range userIDs {
		values.Add("user_id", id)
	}

	for _, login := range userLogins {
		values.Add("user_login", login)
	}

	resp, err := doAuthenticatedAppRequest[GetStreamsResponse](ctx, a, http.MethodGet, "/streams?"+values.Encode(), nil)
	if err != nil {
		return GetStreamsResponse{}, err
	}

	return resp, nil
}

func doAuthenticatedAppRequest[T any](ctx context.Context, api *API, method, endpoint string, body []byte) (T, error) {
	token, err := api.tokens.EnsureToken(ctx)
	if err != nil {
		var d T
		return d, fmt.Errorf("failed to create app access token: %w", err)
	}

	resp, err := doAuthenticatedRequest[T](ctx, api, token, method, endpoint, body)
	if err != nil {
		apiErr := APIError{}
		// Unauthorized - the access token may be expired or revoked
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			api.logger.Info().Str("endpoint", endpoint).Msg("app access token rejected, creating new one")
			api.tokens.InvalidateToken()

			token, err := api.tokens.EnsureToken(ctx)
			if err != nil {
				return resp, fmt.Errorf("failed to create app access token: %w", err)
			}

			// retry request
			return doAuthenticatedRequest[T](ctx, api, token, method, endpoint, body)
		}

		return resp, err
	}

	return resp, nil
}

func doAuthenticatedRequest[T any](ctx context.Context, api *API, token, method, endpoint string, body []byte) (T, error) {
	var data T

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+endpoint, reqBody)
	if err != nil {
		return data, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Client-Id", api.clientID)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := api.client.Do(req)
	if err != nil {
		return data, err
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return data, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return data, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errResp := APIError{}
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Status == 0 {
			// helix did not answer with its error envelope, e.g. a proxy in between
			errResp = APIError{
				ErrorText: http.StatusText(resp.StatusCode),
				Status:    resp.StatusCode,
				Message:   string(respBody),
			}
		}

		return data, errResp
	}

	if err := json.Unmarshal(respBody, &data); err != nil {
		return data, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return data, nil
}
