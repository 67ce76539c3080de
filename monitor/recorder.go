package monitor

import (
	"log/slog"

	"tgmonitor/models"
	"tgmonitor/storage"
)

// Recorder writes arrivals into the message store.
type Recorder struct {
	store          MessageStore
	log            *slog.Logger
	recordOutgoing bool
}

// NewRecorder returns a Recorder. When recordOutgoing is false, self-authored
// messages are ignored.
func NewRecorder(store MessageStore, log *slog.Logger, recordOutgoing bool) *Recorder {
	return &Recorder{store: store, log: log, recordOutgoing: recordOutgoing}
}

// OnArrival maps an arrival onto the row that represents it. Content is
// copied as-is.
func OnArrival(event models.ArrivalEvent) storage.StoredMessage {
	return storage.StoredMessage{
		ChannelID: event.ChannelID,
		MessageID: event.MessageID,
		SenderID:  event.SenderID,
		Text:      event.Text,
		Media:     event.Media,
	}
}

// Accepts reports whether the event qualifies for recording.
func (r *Recorder) Accepts(event models.ArrivalEvent) bool {
	return r.recordOutgoing || !event.Outgoing
}

// Record stores a qualifying event. It returns false when the event was
// filtered out. Storage errors are returned unchanged.
func (r *Recorder) Record(event models.ArrivalEvent) (bool, error) {
	if !r.Accepts(event) {
		return false, nil
	}
	if err := r.store.SaveMessage(OnArrival(event)); err != nil {
		return false, err
	}
	r.log.Debug("Recorded message", "channel", event.ChannelID, "id", event.MessageID, "outgoing", event.Outgoing, "media", len(event.Media) > 0)
	return true, nil
}
