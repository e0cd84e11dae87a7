// Package messagelog persists chat messages into SQLite in batches.
package messagelog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mailru/easyjson"
	"github.com/rs/zerolog"

	"github.com/julez-dev/chatbridge/eventbus"
	"github.com/julez-dev/chatbridge/twitch/entity"
	"github.com/julez-dev/chatbridge/twitch/twitchirc"
)

// DatabaseFileName is the SQLite file created in the data directory.
const DatabaseFileName = "messages.db"

type LogEntry struct {
	ID               string    `json:"id"`
	BroadcastID      string    `json:"broadcast_id"`
	UserID           string    `json:"user_id"`
	BroadcastChannel string    `json:"broadcast_channel"`
	SentAt           time.Time `json:"sent_at"`
	SenderDisplay    string    `json:"sender_display"`
	Payload          *Payload  `json:"payload"`
}

const sqlMigration = `BEGIN;
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	broadcast_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	broadcast_channel TEXT NOT NULL collate nocase,
	sent_at TEXT NOT NULL,
	sender_display TEXT NOT NULL collate nocase,
	payload JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS user_in_broadcast_channel_idx ON messages (broadcast_channel, sender_display);
CREATE INDEX IF NOT EXISTS user_in_room_idx ON messages (broadcast_id, sender_display);
CREATE INDEX IF NOT EXISTS user_idx ON messages (user_id);
COMMIT;`

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

const (
	maxBatchWait  = time.Second * 5
	maxBatchItems = 20
)

type BatchedMessageLogger struct {
	logger zerolog.Logger
	db     DB
	roDB   DB

	includeChannels []string
	excludeChannels []string

	batchWait time.Duration
}

func NewBatchedMessageLogger(logger zerolog.Logger, db DB, roDB DB, includeChannels []string, excludeChannels []string) *BatchedMessageLogger {
	return &BatchedMessageLogger{
		logger:          logger.With().Str("component", "messagelog").Logger(),
		db:              db,
		roDB:            roDB,
		includeChannels: includeChannels,
		excludeChannels: excludeChannels,
		batchWait:       maxBatchWait,
	}
}

func (b *BatchedMessageLogger) PrepareDatabase() error {
	queries := [...]string{
		"pragma journal_mode = WAL;",
		"pragma synchronous = normal;",
		"pragma temp_store = memory;",
	}

	for _, query := range queries {
		if _, err := b.db.Exec(query); err != nil {
			return fmt.Errorf("failed running prepare query: %w", err)
		}
	}

	if _, err := b.db.Exec(sqlMigration); err != nil {
		return fmt.Errorf("failed running migration: %w", err)
	}

	return nil
}

// Run logs every MessageCreate event of bus until ctx is done. Messages still
// in the batch are written before Run returns.
func (b *BatchedMessageLogger) Run(ctx context.Context, bus *eventbus.Bus) error {
	events, cancel := eventbus.Subscribe[twitchirc.MessageCreateEvent](bus, eventbus.DefaultBufferSize)
	defer cancel()

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return b.LogMessages(events)
}

// LogMessages batches messages until the channel is closed. A batch is written
// when it is full or when it was not written for the batch wait time.
func (b *BatchedMessageLogger) LogMessages(events <-chan twitchirc.MessageCreateEvent) error {
	defer b.logger.Info().Msg("batched logger done")

	var batch []entity.Message

	timer := time.NewTimer(b.batchWait)
	defer timer.Stop()

SELECT_LOOP:
	for {
		select {
		case ev, ok := <-events:
			// when channel is closed write all items currently in batch
			if !ok {
				if len(batch) == 0 {
					break SELECT_LOOP
				}

				b.logger.Info().Int("len-batch", len(batch)).Msg("message channel closed; batching open entries")

				if err := b.createLogEntries(slices.Clone(batch)); err != nil {
					return fmt.Errorf("failed to batch insert %d messages after channel was closed: %w", len(batch), err)
				}

				break SELECT_LOOP
			}

			if !b.isChannelRelevant(ev.Message.Channel.Username) {
				continue SELECT_LOOP
			}

			batch = append(batch, ev.Message)

			if len(batch) != maxBatchItems {
				continue SELECT_LOOP
			}

			if err := b.createLogEntries(slices.Clone(batch)); err != nil {
				return fmt.Errorf("failed to batch insert %d messages after max entries was reached: %w", len(batch), err)
			}

			batch = batch[:0]
			timer.Reset(b.batchWait)
		case <-timer.C:
			if len(batch) == 0 {
				timer.Reset(b.batchWait)
				continue
			}

			if err := b.createLogEntries(slices.Clone(batch)); err != nil {
				return fmt.Errorf("failed to batch insert %d messages after max wait time was reached: %w", len(batch), err)
			}

			batch = batch[:0]
			timer.Reset(b.batchWait)
		}
	}

	return nil
}

func (b *BatchedMessageLogger) MessagesFromUserInChannel(username string, broadcasterChannel string) ([]LogEntry, error) {
	query := `SELECT id, broadcast_id, user_id, broadcast_channel, sent_at, sender_display, payload FROM messages WHERE sender_display = ? AND broadcast_channel = ? ORDER BY sent_at`
	rows, err := b.roDB.Query(query, username, broadcasterChannel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []LogEntry{}, nil
		}

		return nil, err
	}

	return b.scanRows(rows)
}

func (b *BatchedMessageLogger) scanRows(rows *sql.Rows) ([]LogEntry, error) {
	defer rows.Close()

	logEntries := []LogEntry{}

	for rows.Next() {
		var entry LogEntry
		var rawPayload []byte
		var rawSentAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.BroadcastID,
			&entry.UserID,
			&entry.BroadcastChannel,
			&rawSentAt,
			&entry.SenderDisplay,
			&rawPayload,
		); err != nil {
			return logEntries, err
		}

		var err error
		entry.SentAt, err = time.Parse("2006-01-02 15:04:05-07:00", rawSentAt)
		if err != nil {
			return logEntries, err
		}

		entry.Payload = &Payload{}
		if err := easyjson.Unmarshal(rawPayload, entry.Payload); err != nil {
			return logEntries, err
		}

		logEntries = append(logEntries, entry)
	}

	if err := rows.Err(); err != nil {
		return logEntries, err
	}

	return logEntries, nil
}

func (b *BatchedMessageLogger) createLogEntries(msgs []entity.Message) error {
	if len(msgs) == 0 {
		return fmt.Errorf("expected at least 1 element, got %d", len(msgs))
	}

	query := `INSERT INTO messages (id, broadcast_id, broadcast_channel, sent_at, sender_display, payload, user_id) VALUES %s`

	valueStrings := make([]string, 0, len(msgs))
	valueArgs := make([]any, 0, len(msgs)*7) // 7 args per row
	for _, msg := range msgs {
		payload := PayloadFromMessage(msg)
		payloadJSON, err := easyjson.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON payload for message %s: %w", msg.ID, err)
		}

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			msg.ID,
			msg.Channel.ID,
			msg.Channel.Username,
			msg.CreatedAt,
			msg.Author.DisplayName,
			payloadJSON,
			msg.Author.ID,
		)
	}

	query = fmt.Sprintf(query, strings.Join(valueStrings, ","))

	if _, err := b.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("failed inserting data: %w", err)
	}

	b.logger.Debug().Int("len-batch", len(msgs)).Msg("batch written")

	return nil
}

func (b *BatchedMessageLogger) isChannelRelevant(channel string) bool {
	if len(b.includeChannels) == 0 && len(b.excludeChannels) == 0 {
		return true
	}

	// When include channels set, only save messages when channel is in list
	if len(b.includeChannels) > 0 {
		return slices.ContainsFunc(b.includeChannels, func(s string) bool { return strings.EqualFold(s, channel) })
	}

	// When exclude channels set, don't save messages, when channel in list
	return !slices.ContainsFunc(b.excludeChannels, func(s string) bool { return strings.EqualFold(s, channel) })
}
