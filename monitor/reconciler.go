package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"tgmonitor/models"
	"tgmonitor/storage"
)

// Summary describes the outcome of one deletion batch.
type Summary struct {
	Total   int
	Found   int
	Sent    int
	Senders []string
	Missing []int64
}

// Reconciler turns deletion batches into notices for the saved messages chat.
type Reconciler struct {
	store MessageStore
	chat  ChatService
	log   *slog.Logger
}

// NewReconciler returns a Reconciler.
func NewReconciler(store MessageStore, chat ChatService, log *slog.Logger) *Reconciler {
	return &Reconciler{store: store, chat: chat, log: log}
}

// OnDeletion looks up a batch and builds one send request per stored message.
// Messages whose sender cannot be resolved are logged and left out. Only
// storage failures are returned.
func (r *Reconciler) OnDeletion(ctx context.Context, batch models.DeletionBatch) ([]models.SendRequest, Summary, error) {
	summary := Summary{Total: len(batch.IDs)}

	found, err := r.store.LookupMany(batch.ChannelID, batch.IDs)
	if err != nil {
		return nil, summary, fmt.Errorf("lookup deleted messages: %w", err)
	}
	summary.Found = len(found)

	if len(found) < len(lo.Uniq(batch.IDs)) {
		stored := lo.SliceToMap(found, func(m storage.StoredMessage) (int64, struct{}) {
			return m.MessageID, struct{}{}
		})
		summary.Missing = lo.Filter(lo.Uniq(batch.IDs), func(id int64, _ int) bool {
			_, ok := stored[id]
			return !ok
		})
	}

	requests := make([]models.SendRequest, 0, len(found))
	for _, message := range found {
		request, err := r.prepare(ctx, message)
		if err != nil {
			r.log.Warn("Failed to resolve sender of deleted message", "channel", message.ChannelID, "id", message.MessageID, "err", err)
			continue
		}
		if message.SenderID != nil {
			summary.Senders = append(summary.Senders, fmt.Sprintf("%s (%d)", DisplayName(request.Sender), request.Sender.ID))
		}
		requests = append(requests, request)
	}

	return requests, summary, nil
}

func (r *Reconciler) prepare(ctx context.Context, message storage.StoredMessage) (models.SendRequest, error) {
	if message.SenderID == nil {
		return models.SendRequest{
			MessageID: message.MessageID,
			Notice:    BuildNotice(nil, message.Text, message.Media),
		}, nil
	}

	sender, err := r.chat.Resolve(ctx, *message.SenderID)
	if err != nil {
		return models.SendRequest{}, err
	}
	if sender.ID == 0 {
		sender.ID = *message.SenderID
	}

	return models.SendRequest{
		MessageID: message.MessageID,
		Sender:    sender,
		Notice:    BuildNotice(&sender, message.Text, message.Media),
	}, nil
}

// Reconcile processes one deletion batch end to end and logs a summary line.
func (r *Reconciler) Reconcile(ctx context.Context, batch models.DeletionBatch) (Summary, error) {
	requests, summary, err := r.OnDeletion(ctx, batch)
	if err != nil {
		return summary, err
	}

	for _, request := range requests {
		if err := r.chat.SendToSelf(ctx, request.Notice); err != nil {
			r.log.Warn("Failed to send deleted message notice", "id", request.MessageID, "err", err)
			continue
		}
		summary.Sent++
	}

	r.log.Info("Processed deleted messages",
		"channel", batch.ChannelID,
		"total", summary.Total,
		"found", summary.Found,
		"sent", summary.Sent,
		"senders", strings.Join(summary.Senders, ", "),
	)
	if len(summary.Missing) > 0 {
		r.log.Debug("Deleted messages not in store", "channel", batch.ChannelID, "missing", summary.Missing)
	}

	return summary, nil
}
