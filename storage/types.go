package storage

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested row does not exist.
	ErrNotFound = errors.New("storage: record not found")
)

// StoredMessage is the SQLite representation of one observed chat message.
type StoredMessage struct {
	ChannelID int64
	MessageID int64
	SenderID  *int64
	Text      string
	Media     []byte
	CreatedAt time.Time
}

// Peer is a cached user profile, kept so senders can be resolved after a restart.
type Peer struct {
	UserID     int64
	AccessHash int64
	FirstName  string
	LastName   string
	Username   string
	Phone      string
	UpdatedAt  time.Time
}

type scanner interface {
	Scan(dest ...any) error
}

func nullInt64(ptr *int64) sql.NullInt64 {
	if ptr == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *ptr, Valid: true}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func (s *Store) nowUnixMilli() int64 {
	return s.now().UnixMilli()
}
