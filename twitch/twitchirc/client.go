package twitchirc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

const (
	DefaultReadTimeout    = 6 * time.Minute // twitch pings about every 5 minutes
	DefaultReconnectDelay = 5 * time.Second
	ircWriteTimeout       = 10 * time.Second
	ircReadBufferSize     = 4096
)

// Config is the static configuration of a Client.
type Config struct {
	// Token is the IRC OAuth token, the oauth: prefix is added when missing.
	Token string

	// Nickname overrides the generated login name.
	Nickname string

	// ReadTimeout is the longest silence tolerated before reconnecting.
	// Negative disables it, zero uses DefaultReadTimeout.
	ReadTimeout time.Duration

	// ReconnectDelay is waited before every reconnect attempt.
	ReconnectDelay time.Duration

	// RejoinOnReconnect re-sends JOIN for every channel joined before the connection dropped.
	RejoinOnReconnect bool

	// TracePayloads logs raw reads and writes at trace level.
	TracePayloads bool
}

type Option func(c *Client)

func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

func WithFactory(f entity.Factory) Option {
	return func(c *Client) {
		c.dispatcher.factory = f
	}
}

// Client is a single connection Twitch IRC client. Inbound lines are handled by
// one receive loop in arrival order, events are delivered to the Sink.
type Client struct {
	cfg        Config
	resolver   Resolver
	sink       Sink
	dialer     Dialer
	dispatcher *dispatcher
	logger     zerolog.Logger
	state      *sessionState

	// lifecycle serialises Start and Close
	lifecycle sync.Mutex

	mu     sync.Mutex
	conn   net.Conn
	nick   string
	cancel context.CancelFunc
	done   chan struct{}

	writeMu sync.Mutex
}

func New(cfg Config, resolver Resolver, sink Sink, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}

	if cfg.Token != "" && !strings.HasPrefix(cfg.Token, "oauth:") {
		cfg.Token = "oauth:" + cfg.Token
	}

	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}

	c := &Client{
		cfg:      cfg,
		resolver: resolver,
		sink:     sink,
		dialer:   TCPDialer{Address: DefaultAddress},
		dispatcher: &dispatcher{
			resolver: resolver,
			factory:  entity.DefaultFactory{},
			now:      time.Now,
		},
		logger: logger.With().Str("component", "twitchirc").Logger(),
		state:  newSessionState(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start connects, registers and starts the receive loop. Channels are joined
// once the loop runs. ctx bounds the connect and join, not the connection.
// When the initial join fails the connection is torn down again.
func (c *Client) Start(ctx context.Context, channels ...string) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.IsAlive() {
		return ErrAlreadyConnected
	}

	if err := validateChannels(channels); err != nil {
		return err
	}

	nick := c.cfg.Nickname
	if nick == "" {
		nick = generateNickname(time.Now())
	}

	c.mu.Lock()
	c.nick = nick
	c.mu.Unlock()

	conn, err := c.connect(ctx)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.logger.Info().Str("nick", nick).Str("remote", conn.RemoteAddr().String()).Msg("connected to chat server")

	go c.receiveLoop(loopCtx, conn, done)

	if err := c.Join(ctx, channels...); err != nil {
		c.mu.Lock()
		current := c.conn
		c.conn = nil
		c.mu.Unlock()

		cancel()
		_ = current.Close()
		<-done
		c.state.reset()

		return fmt.Errorf("failed to join initial channels: %w", err)
	}

	return nil
}

// Close parts all joined channels, closes the connection and waits for the
// receive loop to exit. It must not be called from inside Sink.Dispatch.
func (c *Client) Close() error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	conn, cancel, done := c.conn, c.cancel, c.done
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	if channels := c.state.joinedChannels(); len(channels) > 0 {
		ctx, cancelPart := context.WithTimeout(context.Background(), ircWriteTimeout)
		if err := c.writeTo(ctx, conn, PartMessage{Channels: channels}); err != nil {
			c.logger.Warn().Err(err).Strs("channels", channels).Msg("could not part channels before closing")
		}
		cancelPart()
	}

	cancel()
	closeErr := conn.Close()
	<-done

	c.state.reset()
	c.logger.Info().Msg("connection closed")

	if closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		return fmt.Errorf("failed to close connection: %w", closeErr)
	}

	return nil
}

// Join requests to join channels. The joined set only changes once the server
// acknowledges. Without channels Join does nothing.
func (c *Client) Join(ctx context.Context, channels ...string) error {
	if len(channels) == 0 {
		return nil
	}

	if err := validateChannels(channels); err != nil {
		return err
	}

	return c.write(ctx, JoinMessage{Channels: channels})
}

// Part requests to leave channels. Without channels Part does nothing.
func (c *Client) Part(ctx context.Context, channels ...string) error {
	if len(channels) == 0 {
		return nil
	}

	if err := validateChannels(channels); err != nil {
		return err
	}

	return c.write(ctx, PartMessage{Channels: channels})
}

// CreateMessage sends content to a joined channel. replyTo optionally threads the
// message under another message ID. Line breaks in channel or content are
// rejected with ErrInvalidInput. The returned message carries a local ID,
// Twitch does not echo the real one.
func (c *Client) CreateMessage(ctx context.Context, channel, content, replyTo string) (entity.Message, error) {
	if err := validateChannel(channel); err != nil {
		return entity.Message{}, err
	}

	if err := validateContent(content); err != nil {
		return entity.Message{}, err
	}

	channel = normalizeChannel(channel)

	if !c.IsAlive() {
		return entity.Message{}, ErrNotConnected
	}

	if !c.state.isJoined(channel) {
		return entity.Message{}, fmt.Errorf("%w: #%s", ErrNotJoined, channel)
	}

	if err := c.write(ctx, PrivateMessage{Channel: channel, Content: content, ReplyTo: replyTo}); err != nil {
		return entity.Message{}, err
	}

	room, ok := c.state.room(channel)
	if !ok {
		room = entity.Channel{Username: channel}
	}

	self, _ := c.state.selfUser()

	return entity.Message{
		ID:        uuid.NewString(),
		Author:    entity.Viewer{User: self, IsBroadcaster: self.Login != "" && self.Login == channel},
		Channel:   room,
		CreatedAt: time.Now().UTC(),
		Content:   content,
	}, nil
}

func (c *Client) FetchUser(ctx context.Context, idOrLogin string) (entity.User, error) {
	return c.resolver.FetchUser(ctx, idOrLogin)
}

func (c *Client) FetchChannel(ctx context.Context, id string) (entity.Channel, error) {
	return c.resolver.FetchChannel(ctx, id)
}

func (c *Client) FetchStream(ctx context.Context, idOrLogin string) (entity.Stream, error) {
	return c.resolver.FetchStream(ctx, idOrLogin)
}

// IsAlive reports whether the client holds a connection. It stays true while
// the receive loop reconnects.
func (c *Client) IsAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// JoinedChannels returns the acknowledged channels, sorted.
func (c *Client) JoinedChannels() []string {
	return c.state.joinedChannels()
}

// SelfUser returns the account behind the token, known after the welcome reply.
func (c *Client) SelfUser() (entity.User, bool) {
	return c.state.selfUser()
}

func (c *Client) Nickname() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	conn, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	registration := []IRCer{
		PassMessage{Token: c.cfg.Token},
		NickMessage{Nick: c.Nickname()},
		CapReqMessage{Capabilities: defaultCapabilities},
	}

	if err := c.writeTo(ctx, conn, registration...); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	return conn, nil
}

func (c *Client) write(ctx context.Context, msgs ...IRCer) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	return c.writeTo(ctx, conn, msgs...)
}

// writeTo sends msgs as one write. Writes of the loop and of callers never interleave.
func (c *Client) writeTo(ctx context.Context, conn net.Conn, msgs ...IRCer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := encode(msgs...)

	deadline := time.Now().Add(ircWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(deadline)

	if c.cfg.TracePayloads {
		c.logger.Trace().Int("size", len(payload)).Str("payload", redactPass(string(payload))).Msg("sending IRC payload")
	}

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	return nil
}

func (c *Client) receiveLoop(ctx context.Context, conn net.Conn, done chan struct{}) {
	defer close(done)

	c.logger.Debug().Msg("starting IRC listener")

	var (
		decoder Decoder
		buf     = make([]byte, ircReadBufferSize)
	)

	for {
		if c.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}

		n, err := conn.Read(buf)

		if n > 0 {
			if c.cfg.TracePayloads {
				c.logger.Trace().Int("size", n).Str("payload", string(buf[:n])).Msg("received IRC payload")
			}

			for _, msg := range decoder.Feed(buf[:n]) {
				if writeErr := c.handle(ctx, conn, msg); writeErr != nil && err == nil {
					err = writeErr
				}
			}

			if err == nil {
				continue
			}
		}

		if ctx.Err() != nil {
			c.logger.Debug().Msg("IRC listener stopped")
			return
		}

		c.logDisconnect(n, err)

		conn, err = c.reconnect(ctx, conn)
		if err != nil {
			c.logger.Debug().Err(err).Msg("IRC listener stopped during reconnect")
			return
		}

		decoder.Reset()
	}
}

// handle processes one line. Only a failed PONG write is returned, every other
// failure drops the line.
func (c *Client) handle(ctx context.Context, conn net.Conn, msg Message) error {
	if msg.Command == CommandPing {
		if err := c.writeTo(ctx, conn, PongMessage{}); err != nil {
			return fmt.Errorf("failed to answer PING: %w", err)
		}
		c.logger.Debug().Msg("received PING, returned PONG")
	}

	ev, err := c.dispatcher.dispatch(ctx, msg, c.state)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Error().Err(err).Str("command", msg.Command).Str("line", msg.Raw).Msg("failed to handle line, dropping it")
		return nil
	}

	if ev == nil {
		if msg.Command == CommandUnknown {
			c.logger.Debug().Str("line", msg.Raw).Msg("ignoring malformed line")
		}
		return nil
	}

	if !c.state.apply(ev) {
		if self, ok := ev.(selfUserResolved); ok {
			c.logger.Info().Str("user-id", self.User.ID).Str("login", self.User.Login).Msg("resolved session user")
		}
		return nil
	}

	switch ev := ev.(type) {
	case JoinEvent:
		c.logger.Info().Str("channel", ev.Channel).Msg("joined channel")
	case PartEvent:
		c.logger.Info().Str("channel", ev.Channel).Msg("parted channel")
	}

	c.sink.Dispatch(ev)
	return nil
}

func (c *Client) logDisconnect(n int, err error) {
	var netErr net.Error

	switch {
	case n == 0 && (err == nil || errors.Is(err, io.EOF)):
		c.logger.Warn().Msg("IRC connection closed unexpectedly, attempting to reconnect")
	case errors.As(err, &netErr) && netErr.Timeout():
		c.logger.Warn().Dur("read_timeout", c.cfg.ReadTimeout).Msg("no data from IRC server in time, attempting to reconnect")
	default:
		c.logger.Warn().Err(err).Msg("IRC connection error, attempting to reconnect")
	}
}

// reconnect replaces old with a freshly registered connection. It only gives up
// when ctx is cancelled or the client was closed meanwhile.
func (c *Client) reconnect(ctx context.Context, old net.Conn) (net.Conn, error) {
	_ = old.Close()

	previous := c.state.clearJoined()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.ReconnectDelay):
		}

		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn().Err(err).Msg("reconnect failed, will retry")
			continue
		}

		c.mu.Lock()
		if c.conn == nil || ctx.Err() != nil {
			c.mu.Unlock()
			_ = conn.Close()
			return nil, ErrNotConnected
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("reconnected to chat server")

		if c.cfg.RejoinOnReconnect && len(previous) > 0 {
			if err := c.writeTo(ctx, conn, JoinMessage{Channels: previous}); err != nil {
				c.logger.Warn().Err(err).Strs("channels", previous).Msg("could not rejoin channels")
			} else {
				c.logger.Info().Strs("channels", previous).Msg("rejoining channels")
			}
		}

		return conn, nil
	}
}

func redactPass(payload string) string {
	lines := strings.Split(payload, "\r\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "PASS ") {
			lines[i] = "PASS **REDACTED TOKEN**"
		}
	}

	return strings.Join(lines, "\r\n")
}
