package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/julez-dev/chatbridge/eventbus"
	"github.com/julez-dev/chatbridge/save/messagelog"
	"github.com/julez-dev/chatbridge/server"
	"github.com/julez-dev/chatbridge/twitch/entity"
	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

var runCMD = &cli.Command{
	Name:        "run",
	Usage:       "Connect to Twitch chat and forward events",
	Description: "Connects to Twitch IRC, joins the configured channels and delivers events to the enabled sinks (redis, chat log, control API)",
	Flags: append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:  "channels",
			Usage: "Channels to join in addition to irc.channels",
		},
		&cli.StringFlag{
			Name:  "nickname",
			Usage: "Login name, generated when empty",
		},
	}, twitchFlags...),
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := log.Logger

		env, err := loadEnvironment(command)
		if err != nil {
			return err
		}

		api, err := newHelixAPI(env, logger)
		if err != nil {
			return err
		}

		if err := api.Authorize(ctx); err != nil {
			return fmt.Errorf("failed to authorize against helix: %w", err)
		}

		settings := env.settings
		bus := eventbus.New(logger)

		clientLogger := logger
		if settings.Debug.TracePayloads {
			clientLogger = logger.Level(zerolog.TraceLevel)
		}

		client := twitchirc.New(
			twitchirc.Config{
				Token:             env.credentials.IRCToken,
				Nickname:          command.String("nickname"),
				ReadTimeout:       settings.IRC.ReadTimeout,
				ReconnectDelay:    settings.IRC.ReconnectDelay,
				RejoinOnReconnect: settings.IRC.RejoinOnReconnect,
				TracePayloads:     settings.Debug.TracePayloads,
			},
			entity.NewHelixResolver(api, nil),
			bus,
			clientLogger,
			twitchirc.WithDialer(newDialer(settings.IRC)),
		)

		wg, ctx := errgroup.WithContext(ctx)

		wg.Go(func() error {
			return eventbus.Listen(ctx, bus, func(ev twitchirc.Event) {
				logger.Debug().Str("event", ev.EventName()).Msg("event received")
			})
		})

		if settings.Redis.Enabled {
			redisClient, err := eventbus.NewRedisClient(ctx, eventbus.RedisConfig{
				Addr:     settings.Redis.Addr,
				Password: settings.Redis.Password,
				DB:       settings.Redis.DB,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to redis: %w", err)
			}
			defer redisClient.Close()

			publisher := eventbus.NewRedisPublisher(redisClient, settings.Redis.ChannelPrefix, logger)
			wg.Go(func() error {
				return publisher.Run(ctx, bus)
			})
		}

		// interface stays nil when the chat log is disabled
		var chatLog server.ChatLog

		if settings.ChatLog.Enabled {
			db, err := openDB(filepath.Join(command.String("data-dir"), messagelog.DatabaseFileName), false)
			if err != nil {
				return fmt.Errorf("failed to open chat log database: %w", err)
			}
			defer db.Close()

			messageLogger := messagelog.NewBatchedMessageLogger(logger, db, db, settings.ChatLog.IncludeChannels, settings.ChatLog.ExcludeChannels)
			if err := messageLogger.PrepareDatabase(); err != nil {
				return err
			}

			chatLog = messageLogger
			wg.Go(func() error {
				return messageLogger.Run(ctx, bus)
			})
		}

		if settings.Server.Enabled {
			controlAPI := server.New(logger, server.Config{Addr: settings.Server.Addr}, client, chatLog)
			wg.Go(func() error {
				return controlAPI.Launch(ctx)
			})
		}

		wg.Go(func() error {
			channels := slices.Concat(settings.IRC.Channels, command.StringSlice("channels"))
			if err := client.Start(ctx, channels...); err != nil {
				return fmt.Errorf("failed to start irc client: %w", err)
			}

			<-ctx.Done()

			if err := client.Close(); err != nil && !errors.Is(err, twitchirc.ErrNotConnected) {
				return err
			}

			return nil
		})

		if err := wg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		return nil
	},
}
