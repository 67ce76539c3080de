package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertPeer inserts or refreshes a cached user profile.
func (s *Store) UpsertPeer(peer Peer) error {
	if peer.UserID == 0 {
		return errors.New("user_id is required")
	}

	_, err := s.db.Exec(
		`INSERT INTO peers (
			user_id,
			access_hash,
			first_name,
			last_name,
			username,
			phone,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_hash = CASE WHEN excluded.access_hash != 0 THEN excluded.access_hash ELSE peers.access_hash END,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username,
			phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE peers.phone END,
			updated_at = excluded.updated_at`,
		peer.UserID,
		peer.AccessHash,
		peer.FirstName,
		peer.LastName,
		peer.Username,
		peer.Phone,
		s.nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert peer %d: %w", peer.UserID, err)
	}

	return nil
}

// GetPeer fetches a cached profile by user ID.
func (s *Store) GetPeer(userID int64) (*Peer, error) {
	row := s.db.QueryRow(
		`SELECT
			user_id,
			access_hash,
			first_name,
			last_name,
			username,
			phone,
			updated_at
		FROM peers
		WHERE user_id = ?`,
		userID,
	)

	peer, err := scanPeer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get peer %d: %w", userID, err)
	}

	return peer, nil
}

func scanPeer(row scanner) (*Peer, error) {
	var (
		peer      Peer
		updatedAt int64
	)

	if err := row.Scan(
		&peer.UserID,
		&peer.AccessHash,
		&peer.FirstName,
		&peer.LastName,
		&peer.Username,
		&peer.Phone,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	peer.UpdatedAt = time.UnixMilli(updatedAt)

	return &peer, nil
}
