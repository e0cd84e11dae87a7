package twitchirc

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	DefaultAddress    = "irc.chat.twitch.tv:6667"
	DefaultIRCWSURL   = "wss://irc-ws.chat.twitch.tv:443"
	ircDialTimeout    = 5 * time.Second
	ircMaxMessageSize = 1 * 1024 * 1024 // 1MiB
)

// Dialer opens the duplex stream the client speaks IRC over.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// TCPDialer connects with plain TCP, the classic IRC transport.
type TCPDialer struct {
	Address string
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context) (net.Conn, error) {
	addr := d.Address
	if addr == "" {
		addr = DefaultAddress
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = ircDialTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, "tcp", addr)
}

// WebSocketDialer tunnels IRC through Twitch's WebSocket endpoint. The returned
// conn reads and writes text frames.
type WebSocketDialer struct {
	URL        string
	HTTPClient *http.Client
}

func (d WebSocketDialer) Dial(ctx context.Context) (net.Conn, error) {
	url := d.URL
	if url == "" {
		url = DefaultIRCWSURL
	}

	client := d.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: ircDialTimeout * 2}
	}

	dialCtx, cancel := context.WithTimeout(ctx, ircDialTimeout)
	defer cancel()

	ws, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{
		HTTPClient: client,
	})
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	ws.SetReadLimit(ircMaxMessageSize)

	// the conn outlives the dial context, it is closed through Close
	return websocket.NetConn(context.WithoutCancel(ctx), ws, websocket.MessageText), nil
}
