package storage

import (
	"errors"
	"testing"
)

func TestPeerUpsertAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.GetPeer(7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown peer, got %v", err)
	}

	if err := store.UpsertPeer(Peer{
		UserID:     7,
		AccessHash: 1234,
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Username:   "ada",
		Phone:      "15550100",
	}); err != nil {
		t.Fatalf("UpsertPeer failed: %v", err)
	}

	// Min profiles arrive without access hash or phone; those must not be erased.
	if err := store.UpsertPeer(Peer{UserID: 7, FirstName: "Ada", Username: "ada_l"}); err != nil {
		t.Fatalf("UpsertPeer refresh failed: %v", err)
	}

	peer, err := store.GetPeer(7)
	if err != nil {
		t.Fatalf("GetPeer failed: %v", err)
	}
	if peer.AccessHash != 1234 {
		t.Fatalf("expected access hash to be kept, got %d", peer.AccessHash)
	}
	if peer.Phone != "15550100" {
		t.Fatalf("expected phone to be kept, got %q", peer.Phone)
	}
	if peer.LastName != "" || peer.Username != "ada_l" {
		t.Fatalf("expected refreshed profile fields, got %+v", peer)
	}
}

func TestUpsertPeerRequiresUserID(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.UpsertPeer(Peer{FirstName: "nobody"}); err == nil {
		t.Fatalf("expected error for zero user_id")
	}
}
