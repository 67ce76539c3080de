//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=mocks/mock_chat.go -package=mocks

// Package monitor records incoming chat messages and re-announces the ones
// that get deleted while they are still inside the retention window.
package monitor

import (
	"context"
	"time"

	"tgmonitor/models"
	"tgmonitor/storage"
)

// ChatService is the subset of the chat client the monitor needs.
type ChatService interface {
	// Resolve returns the profile of a user by numeric identifier.
	Resolve(ctx context.Context, senderID int64) (models.Sender, error)
	// SendToSelf posts a notice to the saved messages chat.
	SendToSelf(ctx context.Context, notice models.Notice) error
}

// MessageStore persists recently observed messages.
type MessageStore interface {
	SaveMessage(message storage.StoredMessage) error
	LookupMany(channelID int64, ids []int64) ([]storage.StoredMessage, error)
	PurgeOlderThan(ttl time.Duration) (int64, time.Time, error)
}
