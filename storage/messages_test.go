package storage

import (
	"bytes"
	"testing"
	"time"
)

func TestSaveAndLookupRoundTrip(t *testing.T) {
	store, clock := newTestStore(t)

	media := []byte{0x01, 0x02, 0x00, 0xff}
	if err := store.SaveMessage(StoredMessage{
		MessageID: 100,
		SenderID:  int64p(7),
		Text:      "hi",
		Media:     media,
	}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	found, err := store.LookupMany(0, []int64{100})
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 row, got %d", len(found))
	}
	got := found[0]
	if got.MessageID != 100 || got.SenderID == nil || *got.SenderID != 7 || got.Text != "hi" {
		t.Fatalf("unexpected row %+v", got)
	}
	if !bytes.Equal(got.Media, media) {
		t.Fatalf("media changed: got %x want %x", got.Media, media)
	}
	if !got.CreatedAt.Equal(clock.Now()) {
		t.Fatalf("expected created_at %s, got %s", clock.Now(), got.CreatedAt)
	}
}

func TestSaveWithoutSenderTextOrMedia(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveMessage(StoredMessage{MessageID: 5}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	found, err := store.LookupMany(0, []int64{5})
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 row, got %d", len(found))
	}
	if found[0].SenderID != nil || found[0].Text != "" || found[0].Media != nil {
		t.Fatalf("expected empty optional fields, got %+v", found[0])
	}
}

func TestSaveRejectsZeroMessageID(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.SaveMessage(StoredMessage{Text: "no id"}); err == nil {
		t.Fatalf("expected error for zero message_id")
	}
}

func TestSaveOverwritesDuplicateMessageID(t *testing.T) {
	store, clock := newTestStore(t)

	if err := store.SaveMessage(StoredMessage{MessageID: 9, SenderID: int64p(1), Text: "first"}); err != nil {
		t.Fatalf("SaveMessage first failed: %v", err)
	}
	clock.Advance(time.Minute)
	if err := store.SaveMessage(StoredMessage{MessageID: 9, SenderID: int64p(2), Text: "second"}); err != nil {
		t.Fatalf("SaveMessage second failed: %v", err)
	}

	found, err := store.LookupMany(0, []int64{9})
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected one row after duplicate insert, got %d", len(found))
	}
	if found[0].Text != "second" || *found[0].SenderID != 2 {
		t.Fatalf("expected overwritten row, got %+v", found[0])
	}
	if !found[0].CreatedAt.Equal(clock.Now()) {
		t.Fatalf("expected refreshed created_at, got %s", found[0].CreatedAt)
	}
}

func TestLookupManyOmitsUnknownIdentifiers(t *testing.T) {
	store, _ := newTestStore(t)

	for _, id := range []int64{3, 1, 2} {
		if err := store.SaveMessage(StoredMessage{MessageID: id, Text: "m"}); err != nil {
			t.Fatalf("SaveMessage %d failed: %v", id, err)
		}
	}

	found, err := store.LookupMany(0, []int64{2, 404, 3, 3, 500})
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(found))
	}
	if found[0].MessageID != 2 || found[1].MessageID != 3 {
		t.Fatalf("expected rows ordered by id, got %d then %d", found[0].MessageID, found[1].MessageID)
	}

	empty, err := store.LookupMany(0, nil)
	if err != nil {
		t.Fatalf("LookupMany nil failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no rows for empty id set, got %d", len(empty))
	}
}

func TestLookupManySpansChunks(t *testing.T) {
	store, _ := newTestStore(t)

	ids := make([]int64, 0, lookupChunkSize*2+10)
	for i := int64(1); i <= lookupChunkSize*2+10; i++ {
		ids = append(ids, i)
		if i%2 == 0 {
			continue
		}
		if err := store.SaveMessage(StoredMessage{MessageID: i}); err != nil {
			t.Fatalf("SaveMessage %d failed: %v", i, err)
		}
	}

	found, err := store.LookupMany(0, ids)
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != lookupChunkSize+5 {
		t.Fatalf("expected %d rows, got %d", lookupChunkSize+5, len(found))
	}
	for i := 1; i < len(found); i++ {
		if found[i-1].MessageID >= found[i].MessageID {
			t.Fatalf("rows not ordered at %d: %d >= %d", i, found[i-1].MessageID, found[i].MessageID)
		}
	}
}

func TestPurgeOlderThanRemovesOnlyExpiredRows(t *testing.T) {
	store, clock := newTestStore(t)
	ttl := 14 * 24 * time.Hour

	if err := store.SaveMessage(StoredMessage{MessageID: 1, Text: "old"}); err != nil {
		t.Fatalf("SaveMessage old failed: %v", err)
	}
	clock.Advance(ttl)
	if err := store.SaveMessage(StoredMessage{MessageID: 2, Text: "boundary"}); err != nil {
		t.Fatalf("SaveMessage boundary failed: %v", err)
	}
	clock.Advance(time.Millisecond)

	purged, cutoff, err := store.PurgeOlderThan(ttl)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged row, got %d", purged)
	}
	if want := clock.Now().Add(-ttl); !cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, cutoff)
	}

	found, err := store.LookupMany(0, []int64{1, 2})
	if err != nil {
		t.Fatalf("LookupMany failed: %v", err)
	}
	if len(found) != 1 || found[0].MessageID != 2 {
		t.Fatalf("expected only message 2 to survive, got %+v", found)
	}

	again, _, err := store.PurgeOlderThan(ttl)
	if err != nil {
		t.Fatalf("second PurgeOlderThan failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected idempotent purge to remove 0 rows, got %d", again)
	}
}

func TestPurgeBeforeKeepsRowsAtCutoff(t *testing.T) {
	store, clock := newTestStore(t)

	if err := store.SaveMessage(StoredMessage{MessageID: 100, SenderID: int64p(7), Text: "hi"}); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	purged, err := store.PurgeBefore(clock.Now())
	if err != nil {
		t.Fatalf("PurgeBefore failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("expected row created at cutoff to survive, purged %d", purged)
	}

	if count := countMessages(t, store); count != 1 {
		t.Fatalf("expected 1 stored row, got %d", count)
	}
}

func TestPurgeOlderThanRejectsNonPositiveTTL(t *testing.T) {
	store, _ := newTestStore(t)

	if _, _, err := store.PurgeOlderThan(0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestChannelScopesMessageIdentifiers(t *testing.T) {
	store, _ := newTestStore(t)

	rows := []StoredMessage{
		{MessageID: 5, Text: "private"},
		{ChannelID: 9, MessageID: 5, Text: "channel 9"},
		{ChannelID: 10, MessageID: 5, Text: "channel 10"},
	}
	for _, row := range rows {
		if err := store.SaveMessage(row); err != nil {
			t.Fatalf("SaveMessage %d/%d failed: %v", row.ChannelID, row.MessageID, err)
		}
	}
	if count := countMessages(t, store); count != 3 {
		t.Fatalf("expected 3 rows sharing message_id 5, got %d", count)
	}

	for _, row := range rows {
		found, err := store.LookupMany(row.ChannelID, []int64{5})
		if err != nil {
			t.Fatalf("LookupMany %d failed: %v", row.ChannelID, err)
		}
		if len(found) != 1 || found[0].Text != row.Text || found[0].ChannelID != row.ChannelID {
			t.Fatalf("channel %d: expected %q, got %+v", row.ChannelID, row.Text, found)
		}
	}

	found, err := store.LookupMany(11, []int64{5})
	if err != nil {
		t.Fatalf("LookupMany unknown channel failed: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected no rows for unknown channel, got %+v", found)
	}
}
