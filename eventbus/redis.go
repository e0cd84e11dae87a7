package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

const redisPublishTimeout = 2 * time.Second

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password for Redis authentication (optional)
	Password string
	// DB is the Redis database number (default 0)
	DB int
}

// NewRedisClient creates a new Redis client with the given configuration.
// Returns an error if the connection fails.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Publisher is the part of the redis client used for publishing.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type envelope struct {
	Event       string          `json:"event"`
	PublishedAt time.Time       `json:"published_at"`
	Data        twitchirc.Event `json:"data"`
}

// RedisPublisher forwards every bus event as JSON to the pub/sub channel
// "<prefix>:<event name>".
type RedisPublisher struct {
	client Publisher
	prefix string
	logger zerolog.Logger
}

func NewRedisPublisher(client Publisher, prefix string, logger zerolog.Logger) *RedisPublisher {
	if prefix == "" {
		prefix = "chatbridge"
	}

	return &RedisPublisher{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redis-publisher").Logger(),
	}
}

// Run publishes events from bus until ctx is done. Publish failures are logged,
// they never stop the publisher.
func (p *RedisPublisher) Run(ctx context.Context, bus *Bus) error {
	p.logger.Info().Str("prefix", p.prefix).Msg("publishing events to redis")

	return Listen(ctx, bus, func(ev twitchirc.Event) {
		if err := p.publish(ctx, ev); err != nil {
			p.logger.Error().Err(err).Str("event", ev.EventName()).Msg("failed to publish event")
		}
	})
}

func (p *RedisPublisher) publish(ctx context.Context, ev twitchirc.Event) error {
	payload, err := json.Marshal(envelope{
		Event:       ev.EventName(),
		PublishedAt: time.Now().UTC(),
		Data:        ev,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisPublishTimeout)
	defer cancel()

	return p.client.Publish(ctx, p.Channel(ev), payload).Err()
}

// Channel returns the pub/sub channel ev is published to.
func (p *RedisPublisher) Channel(ev twitchirc.Event) string {
	return p.prefix + ":" + ev.EventName()
}
