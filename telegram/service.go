package telegram

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gotd/td/tg"

	"tgmonitor/models"
	"tgmonitor/storage"
)

// API is the slice of the raw Telegram API used by Service. *tg.Client
// satisfies it.
type API interface {
	UsersGetUsers(ctx context.Context, id []tg.InputUserClass) ([]tg.UserClass, error)
	MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error)
	MessagesSendMedia(ctx context.Context, request *tg.MessagesSendMediaRequest) (tg.UpdatesClass, error)
}

// PeerCache keeps user profiles seen in updates.
type PeerCache interface {
	UpsertPeer(peer storage.Peer) error
	GetPeer(userID int64) (*storage.Peer, error)
}

// Service resolves senders and posts notices to the saved messages chat.
type Service struct {
	api    API
	peers  PeerCache
	log    *slog.Logger
	selfID atomic.Int64
}

// NewService returns a Service.
func NewService(api API, peers PeerCache, log *slog.Logger) *Service {
	return &Service{api: api, peers: peers, log: log}
}

// SetSelf records the id of the logged in account.
func (s *Service) SetSelf(id int64) {
	s.selfID.Store(id)
}

// SelfID returns the id of the logged in account, or 0 before login.
func (s *Service) SelfID() int64 {
	return s.selfID.Load()
}

// Resolve fetches a fresh profile for senderID, falling back to the cached
// profile when the API call fails.
func (s *Service) Resolve(ctx context.Context, senderID int64) (models.Sender, error) {
	var input tg.InputUserClass
	cached, err := s.peers.GetPeer(senderID)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		cached = nil
	default:
		return models.Sender{}, err
	}

	if self := s.SelfID(); self != 0 && senderID == self {
		input = &tg.InputUserSelf{}
	} else {
		user := &tg.InputUser{UserID: senderID}
		if cached != nil {
			user.AccessHash = cached.AccessHash
		}
		input = user
	}

	users, err := s.api.UsersGetUsers(ctx, []tg.InputUserClass{input})
	if err == nil {
		for _, u := range users {
			if user, ok := u.(*tg.User); ok {
				s.Remember(user)
				return senderFromUser(user), nil
			}
		}
		err = fmt.Errorf("user %d not returned", senderID)
	}

	if cached != nil {
		s.log.Debug("Using cached profile", "user", senderID, "err", err)
		return senderFromPeer(cached), nil
	}
	return models.Sender{}, fmt.Errorf("resolve user %d: %w", senderID, err)
}

// Remember caches a user profile. Cache failures are logged, not returned.
func (s *Service) Remember(user *tg.User) {
	peer := storage.Peer{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Phone:     user.Phone,
	}
	// Access hashes of min constructors are not valid for API calls.
	if !user.Min {
		peer.AccessHash = user.AccessHash
	}
	if err := s.peers.UpsertPeer(peer); err != nil {
		s.log.Warn("Failed to cache user profile", "user", user.ID, "err", err)
	}
}

// SendToSelf posts a notice to the saved messages chat. When the attached
// media cannot be re-sent, the text is sent alone.
func (s *Service) SendToSelf(ctx context.Context, notice models.Notice) error {
	entities := toEntities(notice.Entities)

	if len(notice.Media) > 0 {
		sent, err := s.sendMedia(ctx, notice, entities)
		if sent {
			return nil
		}
		s.log.Warn("Sending notice without media", "err", err)
	}

	randomID, err := newRandomID()
	if err != nil {
		return err
	}
	request := &tg.MessagesSendMessageRequest{
		Peer:     &tg.InputPeerSelf{},
		Message:  notice.Text,
		RandomID: randomID,
	}
	if len(entities) > 0 {
		request.SetEntities(entities)
	}
	if _, err := s.api.MessagesSendMessage(ctx, request); err != nil {
		return fmt.Errorf("send message to self: %w", err)
	}
	return nil
}

func (s *Service) sendMedia(ctx context.Context, notice models.Notice, entities []tg.MessageEntityClass) (bool, error) {
	media, err := DecodeMedia(notice.Media)
	if err != nil {
		return false, err
	}
	input, ok := InputMedia(media)
	if !ok {
		return false, fmt.Errorf("media %s cannot be re-sent", media.TypeName())
	}

	randomID, err := newRandomID()
	if err != nil {
		return false, err
	}
	request := &tg.MessagesSendMediaRequest{
		Peer:     &tg.InputPeerSelf{},
		Media:    input,
		Message:  notice.Text,
		RandomID: randomID,
	}
	if len(entities) > 0 {
		request.SetEntities(entities)
	}
	if _, err := s.api.MessagesSendMedia(ctx, request); err != nil {
		return false, fmt.Errorf("send media to self: %w", err)
	}
	return true, nil
}

func toEntities(entities []models.Entity) []tg.MessageEntityClass {
	out := make([]tg.MessageEntityClass, 0, len(entities))
	for _, e := range entities {
		switch e.Kind {
		case models.EntityBold:
			out = append(out, &tg.MessageEntityBold{Offset: e.Offset, Length: e.Length})
		case models.EntityTextURL:
			out = append(out, &tg.MessageEntityTextURL{Offset: e.Offset, Length: e.Length, URL: e.URL})
		}
	}
	return out
}

func senderFromUser(user *tg.User) models.Sender {
	return models.Sender{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Phone:     user.Phone,
	}
}

func senderFromPeer(peer *storage.Peer) models.Sender {
	return models.Sender{
		ID:        peer.UserID,
		FirstName: peer.FirstName,
		LastName:  peer.LastName,
		Username:  peer.Username,
		Phone:     peer.Phone,
	}
}

func newRandomID() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generate random id: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
