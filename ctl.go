package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/julez-dev/chatbridge/server"
)

var ctlCMD = &cli.Command{
	Name:        "ctl",
	Usage:       "Control a running bridge through its HTTP API",
	Description: "Requires server.enabled in the settings of the running bridge",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "Address of the control API",
			Value:   "127.0.0.1:8080",
			Sources: cli.EnvVars("CHATBRIDGE_ADDR"),
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "channels",
			Usage: "List joined channels",
			Action: func(ctx context.Context, command *cli.Command) error {
				resp, err := server.NewClient(command.String("addr"), nil).Channels(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("nickname: %s\nconnected: %t\n", resp.Nickname, resp.Alive)
				for _, channel := range resp.Channels {
					fmt.Printf("#%s\n", channel)
				}

				return nil
			},
		},
		{
			Name:      "join",
			Usage:     "Join a channel",
			ArgsUsage: "<channel>",
			Action: func(ctx context.Context, command *cli.Command) error {
				channel, err := singleArg(command, "channel")
				if err != nil {
					return err
				}

				return server.NewClient(command.String("addr"), nil).Join(ctx, channel)
			},
		},
		{
			Name:      "part",
			Usage:     "Leave a channel",
			ArgsUsage: "<channel>",
			Action: func(ctx context.Context, command *cli.Command) error {
				channel, err := singleArg(command, "channel")
				if err != nil {
					return err
				}

				return server.NewClient(command.String("addr"), nil).Part(ctx, channel)
			},
		},
		{
			Name:      "send",
			Usage:     "Send a message to a joined channel",
			ArgsUsage: "<channel> <message...>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "reply-to", Usage: "ID of the message to reply to"},
			},
			Action: func(ctx context.Context, command *cli.Command) error {
				if command.Args().Len() < 2 {
					return fmt.Errorf("expected <channel> and a message")
				}

				args := command.Args().Slice()
				msg, err := server.NewClient(command.String("addr"), nil).
					SendMessage(ctx, args[0], strings.Join(args[1:], " "), command.String("reply-to"))
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(os.Stdout, "sent to %s (nonce %s)\n", msg.Channel.IRCName(), msg.ID)
				return err
			},
		},
		{
			Name:      "log",
			Usage:     "Print the logged messages of a user in a channel",
			ArgsUsage: "<channel> <user>",
			Action: func(ctx context.Context, command *cli.Command) error {
				if command.Args().Len() != 2 {
					return fmt.Errorf("expected <channel> and <user>")
				}

				entries, err := server.NewClient(command.String("addr"), nil).ChatLog(ctx, command.Args().Get(0), command.Args().Get(1))
				if err != nil {
					return err
				}

				return printLogEntries(os.Stdout, entries)
			},
		},
	},
}
