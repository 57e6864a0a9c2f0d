// Package journal keeps a durable record of executed settlement actions.
// Partial failures (state transition landed, fund transfer did not) cannot be
// rolled back on-chain, so they are flagged as anomalies here for manual
// reconciliation.
package journal

import (
	"context"
	"sync"
	"time"
)

// Entry records one executed (or attempted) settlement action.
type Entry struct {
	CampaignID   string    `json:"campaignId"`
	Action       string    `json:"action"`
	TransitionTx string    `json:"transitionTx,omitempty"`
	TransferTx   string    `json:"transferTx,omitempty"`
	Anomaly      bool      `json:"anomaly"`
	Error        string    `json:"error,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// Store abstracts journal persistence.
type Store interface {
	Record(ctx context.Context, entry Entry) error
}

// MemoryStore is mostly for testing.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Record(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (m *MemoryStore) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
