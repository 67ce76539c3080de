package telegram

import (
	"context"
	"errors"

	"github.com/gotd/td/session"

	"tgmonitor/crypto"
)

// SessionStorage stores the client session in a file, sealed with a
// passphrase when one is configured.
type SessionStorage struct {
	file       *session.FileStorage
	passphrase string
}

// NewSessionStorage returns storage backed by path.
func NewSessionStorage(path, passphrase string) *SessionStorage {
	return &SessionStorage{file: &session.FileStorage{Path: path}, passphrase: passphrase}
}

// LoadSession implements session.Storage. A plaintext session is accepted
// and sealed on the next store.
func (s *SessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := s.file.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if !crypto.IsSealed(data) {
		return data, nil
	}
	if s.passphrase == "" {
		return nil, errors.New("session file is sealed; set SESSION_PASSPHRASE")
	}
	return crypto.Open(s.passphrase, data)
}

// StoreSession implements session.Storage.
func (s *SessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s.passphrase != "" {
		sealed, err := crypto.Seal(s.passphrase, data)
		if err != nil {
			return err
		}
		data = sealed
	}
	return s.file.StoreSession(ctx, data)
}
