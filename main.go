package main

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/julez-dev/chatbridge/save"
)

const logFileName = "log.txt"

func main() {
	var logCloser io.Closer

	app := &cli.Command{
		Name:        "chatbridge",
		Description: "chatbridge connects to Twitch chat and forwards typed chat events",
		Usage:       "A bridge between Twitch IRC, Helix and your own services",
		Authors: []any{
			&mail.Address{
				Name:    "julez-dev",
				Address: "julez-dev@pm.me",
			},
		},
		Commands: []*cli.Command{
			versionCMD,
			runCMD,
			fetchCMD,
			credentialsCMD,
			chatLogCMD,
			ctlCMD,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "Directory holding settings.yaml",
				Value:   save.ConfigDir(),
				Sources: cli.EnvVars("CHATBRIDGE_CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory holding the chat log database",
				Value:   save.DataDir(),
				Sources: cli.EnvVars("CHATBRIDGE_DATA_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Minimum log level (trace, debug, info, warn, error)",
				Value:   zerolog.InfoLevel.String(),
				Sources: cli.EnvVars("CHATBRIDGE_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "log-console",
				Usage: "Write logs to stderr instead of " + logFileName,
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			logger, closer, err := setupLogger(command.String("log-level"), command.Bool("log-console"))
			if err != nil {
				return ctx, err
			}

			logCloser = closer
			log.Logger = logger

			return ctx, nil
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := app.Run(ctx, os.Args)

	if logCloser != nil {
		_ = logCloser.Close()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error while running chatbridge: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(rawLevel string, console bool) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(rawLevel)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", rawLevel, err)
	}

	// levels are filtered per logger, the payload tracer raises its own
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	if console {
		w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil, nil
	}

	f, err := setupLogFile()
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("error while opening log file: %w", err)
	}

	return zerolog.New(f).Level(level).With().Timestamp().Logger(), f, nil
}

func setupLogFile() (*os.File, error) {
	f, err := os.OpenFile(logFileName, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	return f, nil
}
