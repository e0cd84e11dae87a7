package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/julez-dev/chatbridge/twitch/entity"
)

func newResolver(command *cli.Command) (*entity.HelixResolver, error) {
	env, err := loadEnvironment(command)
	if err != nil {
		return nil, err
	}

	api, err := newHelixAPI(env, log.Logger)
	if err != nil {
		return nil, err
	}

	return entity.NewHelixResolver(api, nil), nil
}

func singleArg(command *cli.Command, name string) (string, error) {
	if command.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one argument <%s>", name)
	}

	return command.Args().First(), nil
}

var fetchCMD = &cli.Command{
	Name:  "fetch",
	Usage: "Look up Twitch entities through Helix",
	Flags: twitchFlags,
	Commands: []*cli.Command{
		{
			Name:      "user",
			Usage:     "Print a user",
			ArgsUsage: "<id or login>",
			Action: func(ctx context.Context, command *cli.Command) error {
				arg, err := singleArg(command, "id or login")
				if err != nil {
					return err
				}

				resolver, err := newResolver(command)
				if err != nil {
					return err
				}

				user, err := resolver.FetchUser(ctx, arg)
				if err != nil {
					return err
				}

				return printUser(os.Stdout, user)
			},
		},
		{
			Name:      "channel",
			Usage:     "Print a channel",
			ArgsUsage: "<broadcaster id>",
			Action: func(ctx context.Context, command *cli.Command) error {
				arg, err := singleArg(command, "broadcaster id")
				if err != nil {
					return err
				}

				resolver, err := newResolver(command)
				if err != nil {
					return err
				}

				channel, err := resolver.FetchChannel(ctx, arg)
				if err != nil {
					return err
				}

				return printChannel(os.Stdout, channel)
			},
		},
		{
			Name:      "stream",
			Usage:     "Print the live stream of a user",
			ArgsUsage: "<id or login>",
			Action: func(ctx context.Context, command *cli.Command) error {
				arg, err := singleArg(command, "id or login")
				if err != nil {
					return err
				}

				resolver, err := newResolver(command)
				if err != nil {
					return err
				}

				stream, err := resolver.FetchStream(ctx, arg)
				if err != nil {
					return err
				}

				return printStream(os.Stdout, stream)
			},
		},
	},
}

func printUser(w io.Writer, user entity.User) error {
	kind := user.BroadcasterType
	if kind == "" {
		kind = "regular"
	}

	_, err := fmt.Fprintf(w, "%s (%s)\n"+
		"id: %s\n"+
		"broadcaster type: %s\n"+
		"created: %s\n"+
		"description: %s\n",
		user.DisplayName, user.Login, user.ID, kind, humanize.Time(user.CreatedAt), user.Description,
	)
	return err
}

func printChannel(w io.Writer, channel entity.Channel) error {
	_, err := fmt.Fprintf(w, "%s (%s)\n"+
		"id: %s\n"+
		"title: %s\n"+
		"game: %s\n"+
		"language: %s\n",
		channel.DisplayName, channel.IRCName(), channel.ID, channel.Title, channel.Game.Name, channel.Language,
	)
	return err
}

func printStream(w io.Writer, stream entity.Stream) error {
	_, err := fmt.Fprintf(w, "%s is %s\n"+
		"title: %s\n"+
		"viewers: %s\n"+
		"started: %s\n"+
		"thumbnail: %s\n",
		stream.Channel.DisplayName, stream.Type, stream.Title,
		humanize.Comma(int64(stream.ViewerCount)), humanize.Time(stream.CreatedAt),
		stream.ThumbnailURLFor(1280, 720),
	)
	return err
}
