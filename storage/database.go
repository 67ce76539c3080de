// Package storage keeps recently observed messages and cached sender
// profiles in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DefaultDBFileName is the database file created under the data dir.
	DefaultDBFileName = "messages.db"
	// DefaultWALCheckpointInterval is how often the WAL file is truncated.
	DefaultWALCheckpointInterval = 24 * time.Hour
)

// schema holds one statement per schema version; PRAGMA user_version records
// how many have been applied.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		channel_id  INTEGER NOT NULL DEFAULT 0,
		message_id  INTEGER NOT NULL,
		sender_id   INTEGER,
		text        TEXT,
		media       BLOB,
		created_at  INTEGER NOT NULL,
		PRIMARY KEY (channel_id, message_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS peers (
		user_id      INTEGER PRIMARY KEY,
		access_hash  INTEGER NOT NULL DEFAULT 0,
		first_name   TEXT NOT NULL DEFAULT '',
		last_name    TEXT NOT NULL DEFAULT '',
		username     TEXT NOT NULL DEFAULT '',
		phone        TEXT NOT NULL DEFAULT '',
		updated_at   INTEGER NOT NULL
	)`,
}

// Store owns the message database.
type Store struct {
	db  *sql.DB
	now func() time.Time

	checkpointEvery time.Duration
	stopCheckpoints context.CancelFunc
	checkpoints     sync.WaitGroup
	closed          sync.Once
	closeErr        error
}

// Option customizes a Store at open time.
type Option func(*Store)

// WithClock overrides the wall clock used to stamp and expire rows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCheckpointInterval overrides DefaultWALCheckpointInterval. Zero
// disables periodic checkpoints.
func WithCheckpointInterval(d time.Duration) Option {
	return func(s *Store) {
		s.checkpointEvery = d
	}
}

// Open creates dataDir if needed and opens messages.db inside it. The
// database path is returned alongside the store.
func Open(dataDir string, opts ...Option) (*Store, string, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create data directory %q: %w", dataDir, err)
	}

	path := filepath.Join(dataDir, DefaultDBFileName)
	store, err := OpenPath(path, opts...)
	if err != nil {
		return nil, "", err
	}
	return store, path, nil
}

// OpenPath opens the database at path and brings its schema up to date.
func OpenPath(path string, opts ...Option) (*Store, error) {
	dsn := "file:" + filepath.ToSlash(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=FULL"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:              db,
		now:             time.Now,
		checkpointEvery: DefaultWALCheckpointInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.runCheckpoints()

	return s, nil
}

func (s *Store) init() error {
	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	var mode string
	if err := s.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		return fmt.Errorf("read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		return fmt.Errorf("journal mode is %q, want wal", mode)
	}

	if err := s.migrate(); err != nil {
		return err
	}
	return s.checkpoint()
}

// migrate applies every schema statement past the stored version, each in
// its own transaction.
func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for ; version < len(schema); version++ {
		if err := s.step(version); err != nil {
			return fmt.Errorf("migrate to version %d: %w", version+1, err)
		}
	}
	return nil
}

func (s *Store) step(from int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schema[from]); err != nil {
		return err
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, from+1)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) checkpoint() error {
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint wal: %w", err)
	}
	return nil
}

func (s *Store) runCheckpoints() {
	if s.checkpointEvery <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopCheckpoints = cancel
	s.checkpoints.Add(1)
	go func() {
		defer s.checkpoints.Done()
		ticker := time.NewTicker(s.checkpointEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.checkpoint()
			}
		}
	}()
}

// Close stops background checkpoints and closes the database. Calling it
// more than once is safe.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.closed.Do(func() {
		if s.stopCheckpoints != nil {
			s.stopCheckpoints()
			s.checkpoints.Wait()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
