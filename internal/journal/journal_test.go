package journal

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRecords(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	entry := Entry{
		CampaignID:   "0xabc",
		Action:       "discard",
		TransitionTx: "0x1",
		TransferTx:   "0x2",
		RecordedAt:   time.Now().UTC(),
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("record: %v", err)
	}

	anomaly := Entry{
		CampaignID: "0xdef",
		Action:     "fulfill_and_pay",
		Anomaly:    true,
		Error:      "transfer reverted",
		RecordedAt: time.Now().UTC(),
	}
	if err := store.Record(ctx, anomaly); err != nil {
		t.Fatalf("record anomaly: %v", err)
	}

	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].CampaignID != "0xabc" || entries[1].Anomaly != true {
		t.Fatalf("entries out of order or wrong: %+v", entries)
	}

	// Entries returns a copy; mutating it must not touch the store.
	entries[0].CampaignID = "mutated"
	if store.Entries()[0].CampaignID != "0xabc" {
		t.Fatalf("Entries leaked internal state")
	}
}
