package storage

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// lookupChunkSize keeps IN lists below SQLite's bound-parameter limit.
const lookupChunkSize = 500

// SaveMessage upserts a message row and stamps created_at with the store clock.
// A second save with the same channel_id and message_id replaces the previous row.
func (s *Store) SaveMessage(message StoredMessage) error {
	if message.MessageID == 0 {
		return errors.New("message_id is required")
	}

	var media any
	if len(message.Media) > 0 {
		media = message.Media
	}

	_, err := s.db.Exec(
		`INSERT INTO messages (
			channel_id,
			message_id,
			sender_id,
			text,
			media,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, message_id) DO UPDATE SET
			sender_id = excluded.sender_id,
			text = excluded.text,
			media = excluded.media,
			created_at = excluded.created_at`,
		message.ChannelID,
		message.MessageID,
		nullInt64(message.SenderID),
		nullString(message.Text),
		media,
		s.nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert message %d/%d: %w", message.ChannelID, message.MessageID, err)
	}

	return nil
}

// LookupMany returns the rows of channelID whose message_id is in ids, ordered
// by message_id. Unknown identifiers are omitted.
func (s *Store) LookupMany(channelID int64, ids []int64) ([]StoredMessage, error) {
	messages := make([]StoredMessage, 0, len(ids))
	for _, chunk := range lo.Chunk(lo.Uniq(ids), lookupChunkSize) {
		found, err := s.lookupChunk(channelID, chunk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, found...)
	}
	slices.SortFunc(messages, func(a, b StoredMessage) int {
		return cmp.Compare(a.MessageID, b.MessageID)
	})

	return messages, nil
}

func (s *Store) lookupChunk(channelID int64, ids []int64) ([]StoredMessage, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := append([]any{channelID}, lo.Map(ids, func(id int64, _ int) any { return id })...)

	rows, err := s.db.Query(
		`SELECT
			channel_id,
			message_id,
			sender_id,
			text,
			media,
			created_at
		FROM messages
		WHERE channel_id = ? AND message_id IN (`+placeholders+`)
		ORDER BY message_id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup %d messages: %w", len(ids), err)
	}
	defer rows.Close()

	messages := make([]StoredMessage, 0, len(ids))
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		messages = append(messages, *message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}

// PurgeBefore deletes every message created strictly before cutoff and
// returns the number of rows removed.
func (s *Store) PurgeBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM messages WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge messages before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for message purge: %w", err)
	}

	return rowsAffected, nil
}

// PurgeOlderThan deletes every message older than ttl relative to the store
// clock. It returns the number of rows removed and the cutoff used.
func (s *Store) PurgeOlderThan(ttl time.Duration) (int64, time.Time, error) {
	if ttl <= 0 {
		return 0, time.Time{}, errors.New("ttl must be > 0")
	}
	cutoff := s.now().Add(-ttl)
	removed, err := s.PurgeBefore(cutoff)
	return removed, cutoff, err
}

func scanMessage(row scanner) (*StoredMessage, error) {
	var (
		message   StoredMessage
		senderID  sql.NullInt64
		text      sql.NullString
		media     []byte
		createdAt int64
	)

	if err := row.Scan(
		&message.ChannelID,
		&message.MessageID,
		&senderID,
		&text,
		&media,
		&createdAt,
	); err != nil {
		return nil, err
	}

	message.SenderID = int64Ptr(senderID)
	if text.Valid {
		message.Text = text.String
	}
	if len(media) > 0 {
		message.Media = media
	}
	message.CreatedAt = time.UnixMilli(createdAt)

	return &message, nil
}
