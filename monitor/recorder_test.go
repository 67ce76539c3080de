package monitor

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"tgmonitor/models"
	"tgmonitor/storage"
)

func TestOnArrivalCopiesContent(t *testing.T) {
	sender := int64(7)
	event := models.ArrivalEvent{ChannelID: 9, MessageID: 100, SenderID: &sender, Text: "hi", Media: []byte{9}, Outgoing: true}

	row := OnArrival(event)

	require.Equal(t, storage.StoredMessage{ChannelID: 9, MessageID: 100, SenderID: &sender, Text: "hi", Media: []byte{9}}, row)
}

func TestRecorderFiltersOutgoingWhenDisabled(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	recorder := NewRecorder(store, slog.Default(), false)

	recorded, err := recorder.Record(models.ArrivalEvent{MessageID: 1, Text: "mine", Outgoing: true})
	req.NoError(err)
	req.False(recorded)

	recorded, err = recorder.Record(models.ArrivalEvent{MessageID: 2, Text: "theirs"})
	req.NoError(err)
	req.True(recorded)

	found, err := store.LookupMany(0, []int64{1, 2})
	req.NoError(err)
	req.Len(found, 1)
	req.Equal(int64(2), found[0].MessageID)
}

func TestRecorderKeepsOutgoingByDefault(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	recorder := NewRecorder(store, slog.Default(), true)

	recorded, err := recorder.Record(models.ArrivalEvent{MessageID: 3, Text: "mine", Outgoing: true})
	req.NoError(err)
	req.True(recorded)
}
