// Package server exposes a running chat client over a small HTTP API.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/julez-dev/chatbridge/save/messagelog"
	"github.com/julez-dev/chatbridge/twitch/entity"
)

type Config struct {
	Addr string
}

// ChatClient is the part of twitchirc.Client the API drives.
type ChatClient interface {
	Join(ctx context.Context, channels ...string) error
	Part(ctx context.Context, channels ...string) error
	CreateMessage(ctx context.Context, channel, content, replyTo string) (entity.Message, error)
	FetchUser(ctx context.Context, idOrLogin string) (entity.User, error)
	FetchChannel(ctx context.Context, id string) (entity.Channel, error)
	FetchStream(ctx context.Context, idOrLogin string) (entity.Stream, error)
	IsAlive() bool
	JoinedChannels() []string
	Nickname() string
}

// ChatLog is optional, the log route answers 404 without one.
type ChatLog interface {
	MessagesFromUserInChannel(username string, broadcasterChannel string) ([]messagelog.LogEntry, error)
}

type API struct {
	logger zerolog.Logger
	conf   Config

	chat    ChatClient
	chatLog ChatLog
}

func New(logger zerolog.Logger, config Config, chat ChatClient, chatLog ChatLog) *API {
	return &API{
		logger:  logger.With().Str("component", "server").Logger(),
		conf:    config,
		chat:    chat,
		chatLog: chatLog,
	}
}

// Handler returns the router serving all routes.
func (a *API) Handler() http.Handler {
	return router(a.logger, a)
}

// Launch serves on the configured address until ctx is done.
func (a *API) Launch(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.conf.Addr)
	if err != nil {
		return err
	}

	return a.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done and then shuts down gracefully.
func (a *API) Serve(ctx context.Context, lis net.Listener) error {
	httpSrv := &http.Server{
		WriteTimeout:   time.Second * 15,
		ReadTimeout:    time.Second * 15,
		IdleTimeout:    time.Second * 60,
		MaxHeaderBytes: 2 * 1024,
		Handler:        a.Handler(),
	}

	httpSrv.RegisterOnShutdown(func() {
		a.logger.Info().Msg("http shutdown started")
	})

	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		a.logger.Info().Str("addr", lis.Addr().String()).Msg("starting http server")

		if err := httpSrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	wg.Go(func() error {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*15)
		defer cancel()

		if err := httpSrv.Shutdown(ctx); err != nil {
			return err
		}

		a.logger.Info().Msg("shutdown done")

		return nil
	})

	return wg.Wait()
}

func (a *API) getLoggerFrom(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}

	return a.logger
}
