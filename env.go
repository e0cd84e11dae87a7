package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/julez-dev/chatbridge/httputil"
	"github.com/julez-dev/chatbridge/save"
	"github.com/julez-dev/chatbridge/twitch"
	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

// twitchFlags are shared by every command talking to Twitch. They override
// settings.yaml and the stored credentials.
var twitchFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "client-id",
		Usage:   "Helix Client-ID",
		Sources: cli.EnvVars("CHATBRIDGE_CLIENT_ID"),
	},
	&cli.StringFlag{
		Name:    "client-secret",
		Usage:   "Helix Client-Secret",
		Sources: cli.EnvVars("CHATBRIDGE_CLIENT_SECRET"),
	},
	&cli.StringFlag{
		Name:    "irc-token",
		Usage:   "IRC OAuth token",
		Sources: cli.EnvVars("CHATBRIDGE_IRC_TOKEN"),
	},
}

type environment struct {
	fs          afero.Fs
	settings    save.Settings
	credentials save.Credentials
}

func loadEnvironment(command *cli.Command) (environment, error) {
	fs := afero.NewOsFs()
	dir := command.String("config-dir")

	settings, err := save.SettingsFromDisk(fs, dir)
	if err != nil {
		return environment{}, fmt.Errorf("failed to read settings: %w", err)
	}

	k, _ := save.NewKeyring(fs, dir)
	creds, err := save.NewCredentialStore(k).Load()
	if err != nil {
		return environment{}, err
	}

	if v := command.String("client-id"); v != "" {
		settings.Helix.ClientID = v
	}

	if v := command.String("client-secret"); v != "" {
		creds.ClientSecret = v
	}

	if v := command.String("irc-token"); v != "" {
		creds.IRCToken = v
	}

	return environment{
		fs:          fs,
		settings:    settings,
		credentials: creds,
	}, nil
}

func newHelixAPI(env environment, logger zerolog.Logger) (*twitch.API, error) {
	if env.settings.Helix.ClientID == "" {
		return nil, fmt.Errorf("no Helix client id configured, set helix.client_id or --client-id")
	}

	client := &http.Client{
		Transport: httputil.NewLoggingRoundTrip(http.DefaultTransport, logger, Version, env.settings.Debug.TracePayloads),
	}

	return twitch.NewAPI(env.settings.Helix.ClientID,
		twitch.WithHTTPClient(client),
		twitch.WithClientSecret(env.credentials.ClientSecret),
		twitch.WithBaseURL(env.settings.Helix.BaseURL),
		twitch.WithTokenURL(env.settings.Helix.TokenURL),
		twitch.WithLogger(logger),
	)
}

func newDialer(settings save.IRCSettings) twitchirc.Dialer {
	if settings.Transport == save.TransportWebSocket {
		return twitchirc.WebSocketDialer{URL: settings.WebSocketURL}
	}

	return twitchirc.TCPDialer{Address: settings.Address}
}
