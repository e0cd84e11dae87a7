package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/julez-dev/chatbridge/save"
)

func credentialStore(command *cli.Command) (*save.CredentialStore, bool) {
	k, secure := save.NewKeyring(afero.NewOsFs(), command.String("config-dir"))
	return save.NewCredentialStore(k), secure
}

var credentialsCMD = &cli.Command{
	Name:        "credentials",
	Usage:       "Manage the stored IRC token and Helix client secret",
	Description: "Credentials are kept in the OS keyring, or in a plain file in the config directory when no keyring is available",
	Commands: []*cli.Command{
		{
			Name:  "set",
			Usage: "Store credentials, only the given values are replaced",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "irc-token", Usage: "IRC OAuth token"},
				&cli.StringFlag{Name: "client-secret", Usage: "Helix Client-Secret"},
			},
			Action: func(ctx context.Context, command *cli.Command) error {
				store, secure := credentialStore(command)

				creds, err := store.Load()
				if err != nil {
					return err
				}

				if command.IsSet("irc-token") {
					creds.IRCToken = command.String("irc-token")
				}

				if command.IsSet("client-secret") {
					creds.ClientSecret = command.String("client-secret")
				}

				if err := store.Save(creds); err != nil {
					return fmt.Errorf("failed to save credentials: %w", err)
				}

				if !secure {
					fmt.Println("no OS keyring available, credentials were stored unencrypted in the config directory")
				}

				return nil
			},
		},
		{
			Name:  "show",
			Usage: "Print the stored credentials masked",
			Action: func(ctx context.Context, command *cli.Command) error {
				store, _ := credentialStore(command)

				creds, err := store.Load()
				if err != nil {
					return err
				}

				return printCredentials(os.Stdout, creds)
			},
		},
		{
			Name:  "delete",
			Usage: "Delete the stored credentials",
			Action: func(ctx context.Context, command *cli.Command) error {
				store, _ := credentialStore(command)
				return store.Delete()
			},
		},
	},
}

func printCredentials(w io.Writer, creds save.Credentials) error {
	_, err := fmt.Fprintf(w, "irc token: %s\nclient secret: %s\n", maskSecret(creds.IRCToken), maskSecret(creds.ClientSecret))
	return err
}

// maskSecret keeps the last four characters of longer secrets.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}

	if len(s) <= 8 {
		return "****"
	}

	return "****" + s[len(s)-4:]
}
