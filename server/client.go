package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/julez-dev/chatbridge/save/messagelog"
	"github.com/julez-dev/chatbridge/twitch/entity"
)

// ResponseError is returned by Client for any non 2xx response.
type ResponseError struct {
	Status  int
	Message string
}

func (e ResponseError) Error() string {
	return fmt.Sprintf("non 2xx response code (%d): %s", e.Status, e.Message)
}

// Client talks to the API of a running bridge.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Channels(ctx context.Context) (ChannelsResponse, error) {
	return do[ChannelsResponse](ctx, c, http.MethodGet, "/channels/", nil)
}

func (c *Client) Join(ctx context.Context, channel string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost, "/channels/"+url.PathEscape(channel)+"/join", nil)
	return err
}

func (c *Client) Part(ctx context.Context, channel string) error {
	_, err := do[struct{}](ctx, c, http.MethodPost, "/channels/"+url.PathEscape(channel)+"/part", nil)
	return err
}

func (c *Client) SendMessage(ctx context.Context, channel, content, replyTo string) (entity.Message, error) {
	return do[entity.Message](ctx, c, http.MethodPost, "/channels/"+url.PathEscape(channel)+"/messages", CreateMessageRequest{
		Content: content,
		ReplyTo: replyTo,
	})
}

func (c *Client) ChatLog(ctx context.Context, channel, user string) ([]messagelog.LogEntry, error) {
	return do[[]messagelog.LogEntry](ctx, c, http.MethodGet, "/channels/"+url.PathEscape(channel)+"/log/"+url.PathEscape(user), nil)
}

func do[T any](ctx context.Context, client *Client, method, path string, body any) (T, error) {
	var respData T

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return respData, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reqBody)
	if err != nil {
		return respData, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return respData, err
	}

	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return respData, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := ResponseError{Status: resp.StatusCode, Message: string(bytes.Trim(bodyBytes, "\n"))}

		var apiErr ErrorResponse
		if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Error != "" {
			respErr.Message = apiErr.Error
		}

		return respData, respErr
	}

	if len(bodyBytes) == 0 {
		return respData, nil
	}

	if err := json.Unmarshal(bodyBytes, &respData); err != nil {
		return respData, err
	}

	return respData, nil
}
