package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	_ "modernc.org/sqlite"

	"github.com/julez-dev/chatbridge/save/messagelog"
)

func openDB(path string, readOnly bool) (*sql.DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
	if readOnly {
		dsn += "&mode=ro"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	if !readOnly {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

func chatLogPath(command *cli.Command) string {
	return filepath.Join(command.String("data-dir"), messagelog.DatabaseFileName)
}

var chatLogCMD = &cli.Command{
	Name:        "chatlog",
	Usage:       "Inspect the chat log database",
	Description: "Prints statistics about the messages stored by the chat log",
	Commands: []*cli.Command{
		{
			Name:        "clear",
			Usage:       "Delete the chat log database",
			Description: "Removes the database file including its WAL files",
			Action: func(ctx context.Context, command *cli.Command) error {
				path := chatLogPath(command)

				for _, file := range []string{path, path + "-wal", path + "-shm"} {
					if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
						return fmt.Errorf("failed to delete %s: %w", file, err)
					}
				}

				fmt.Print("database file deleted\n")
				return nil
			},
		},
		{
			Name:      "user",
			Usage:     "Print the messages of a user in a channel",
			ArgsUsage: "<channel> <user>",
			Action: func(ctx context.Context, command *cli.Command) error {
				if command.Args().Len() != 2 {
					return fmt.Errorf("expected <channel> and <user>")
				}

				db, err := openDB(chatLogPath(command), true)
				if err != nil {
					return fmt.Errorf("failed to open chat log database: %w", err)
				}
				defer db.Close()

				messageLogger := messagelog.NewBatchedMessageLogger(log.Logger, db, db, nil, nil)
				entries, err := messageLogger.MessagesFromUserInChannel(command.Args().Get(1), command.Args().Get(0))
				if err != nil {
					return err
				}

				return printLogEntries(os.Stdout, entries)
			},
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		path := chatLogPath(command)

		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Printf("No chat log at %s\n", path)
				return nil
			}
			return err
		}

		db, err := openDB(path, true)
		if err != nil {
			return fmt.Errorf("failed to open chat log database: %w", err)
		}
		defer db.Close()

		fmt.Printf("Chat log database size: %s\n\n", humanize.Bytes(uint64(info.Size())))

		rows, err := db.QueryContext(ctx, "SELECT broadcast_channel, COUNT(*) as count FROM messages GROUP BY broadcast_channel ORDER BY count DESC")
		if err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
		defer rows.Close()

		var stats []channelCount
		for rows.Next() {
			var row channelCount
			if err := rows.Scan(&row.Channel, &row.Count); err != nil {
				return fmt.Errorf("failed to scan row: %w", err)
			}

			stats = append(stats, row)
		}

		if err := rows.Err(); err != nil {
			return err
		}

		return printChannelCounts(os.Stdout, stats)
	},
}

type channelCount struct {
	Channel string
	Count   int64
}

func printChannelCounts(w io.Writer, counts []channelCount) error {
	var total int64
	for _, c := range counts {
		total += c.Count
	}

	if _, err := fmt.Fprintf(w, "Total number of messages in database: %s\n", humanize.Comma(total)); err != nil {
		return err
	}

	for _, c := range counts {
		if _, err := fmt.Fprintf(w, "Number of messages for %s: %s\n", c.Channel, humanize.Comma(c.Count)); err != nil {
			return err
		}
	}

	return nil
}

func printLogEntries(w io.Writer, entries []messagelog.LogEntry) error {
	for _, e := range entries {
		content := ""
		if e.Payload != nil {
			content = e.Payload.Content
		}

		if _, err := fmt.Fprintf(w, "[%s] #%s %s: %s\n", e.SentAt.Local().Format("2006-01-02 15:04:05"), e.BroadcastChannel, e.SenderDisplay, content); err != nil {
			return err
		}
	}

	return nil
}
