package telegram

import (
	"context"

	"github.com/gotd/td/tg"
	"github.com/samber/lo"

	"tgmonitor/models"
)

// Handler converts dispatcher updates into monitor events.
type Handler struct {
	service *Service
	events  chan models.Event
}

// NewHandler returns a Handler publishing onto a channel of the given capacity.
func NewHandler(service *Service, buffer int) *Handler {
	return &Handler{service: service, events: make(chan models.Event, buffer)}
}

// Events returns the stream of converted events.
func (h *Handler) Events() <-chan models.Event {
	return h.events
}

// Register subscribes the handler to a dispatcher.
func (h *Handler) Register(d tg.UpdateDispatcher) {
	d.OnNewMessage(h.OnNewMessage)
	d.OnDeleteMessages(h.OnDeleteMessages)
	d.OnNewChannelMessage(h.OnNewChannelMessage)
	d.OnDeleteChannelMessages(h.OnDeleteChannelMessages)
}

// OnNewMessage handles new private and basic group messages.
func (h *Handler) OnNewMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	h.remember(e)
	return h.onMessage(ctx, update.Message)
}

// OnNewChannelMessage handles new supergroup and channel messages.
func (h *Handler) OnNewChannelMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
	h.remember(e)
	return h.onMessage(ctx, update.Message)
}

func (h *Handler) onMessage(ctx context.Context, m tg.MessageClass) error {
	msg, ok := m.(*tg.Message)
	if !ok {
		return nil
	}
	selfID := h.service.SelfID()
	if isSavedMessages(msg, selfID) {
		return nil
	}

	event := models.ArrivalEvent{
		ChannelID: channelOf(msg),
		MessageID: int64(msg.ID),
		SenderID:  senderOf(msg, selfID),
		Text:      msg.Message,
		Outgoing:  msg.Out,
	}
	if media, ok := msg.GetMedia(); ok {
		if _, empty := media.(*tg.MessageMediaEmpty); !empty {
			blob, err := EncodeMedia(media)
			if err != nil {
				h.service.log.Warn("Failed to serialize media", "id", msg.ID, "err", err)
			} else {
				event.Media = blob
			}
		}
	}

	return h.publish(ctx, models.Event{Arrival: &event})
}

// OnDeleteMessages handles deletions in private chats and basic groups.
func (h *Handler) OnDeleteMessages(ctx context.Context, e tg.Entities, update *tg.UpdateDeleteMessages) error {
	h.remember(e)
	if len(update.Messages) == 0 {
		return nil
	}

	return h.publishDeletion(ctx, 0, update.Messages)
}

// OnDeleteChannelMessages handles deletions in supergroups and channels.
func (h *Handler) OnDeleteChannelMessages(ctx context.Context, e tg.Entities, update *tg.UpdateDeleteChannelMessages) error {
	h.remember(e)
	if len(update.Messages) == 0 {
		return nil
	}
	return h.publishDeletion(ctx, update.ChannelID, update.Messages)
}

func (h *Handler) publishDeletion(ctx context.Context, channelID int64, messages []int) error {
	ids := lo.Map(messages, func(id int, _ int) int64 { return int64(id) })
	return h.publish(ctx, models.Event{Deletion: &models.DeletionBatch{ChannelID: channelID, IDs: ids}})
}

func (h *Handler) publish(ctx context.Context, event models.Event) error {
	select {
	case h.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) remember(e tg.Entities) {
	for _, user := range e.Users {
		h.service.Remember(user)
	}
}

// channelOf returns the channel that scopes the id of msg, or 0 for private
// chats and basic groups.
func channelOf(msg *tg.Message) int64 {
	if peer, ok := msg.PeerID.(*tg.PeerChannel); ok {
		return peer.ChannelID
	}
	return 0
}

// isSavedMessages reports whether msg was posted in the account's own chat.
func isSavedMessages(msg *tg.Message, selfID int64) bool {
	peer, ok := msg.PeerID.(*tg.PeerUser)
	return ok && selfID != 0 && peer.UserID == selfID
}

// senderOf returns the author of msg. Private incoming messages carry no
// from_id, so the chat peer is the author.
func senderOf(msg *tg.Message, selfID int64) *int64 {
	if from, ok := msg.GetFromID(); ok {
		if user, ok := from.(*tg.PeerUser); ok {
			return lo.ToPtr(user.UserID)
		}
		return nil
	}
	if msg.Out {
		if selfID == 0 {
			return nil
		}
		return lo.ToPtr(selfID)
	}
	if user, ok := msg.PeerID.(*tg.PeerUser); ok {
		return lo.ToPtr(user.UserID)
	}
	return nil
}
