package settle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
	"kolrails/internal/journal"
	"kolrails/internal/source"
)

// stubSource serves a fixed id list and records status notifications.
type stubSource struct {
	mu       sync.Mutex
	ids      []campaign.ID
	err      error
	notified map[campaign.ID]campaign.Status
}

func (s *stubSource) CampaignIDs(context.Context) ([]campaign.ID, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ids, nil
}

func (s *stubSource) NotifyStatus(_ context.Context, id campaign.ID, status campaign.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notified == nil {
		s.notified = make(map[campaign.ID]campaign.Status)
	}
	s.notified[id] = status
	return nil
}

func newTestEngine(fake *chain.FakeClient, src source.Source, now time.Time) (*Engine, *journal.MemoryStore) {
	store := journal.NewMemoryStore()
	exec := NewExecutor(fake, NewNonceSequencer(fake), store, DefaultShareBps)
	engine := NewEngine(EngineConfig{
		Client:   fake,
		Source:   src,
		Executor: exec,
		Now:      func() time.Time { return now },
	})
	return engine, store
}

func TestRunOnceEmptySourceCompletesCleanly(t *testing.T) {
	fake := chain.NewFakeClient()
	engine, _ := newTestEngine(fake, &stubSource{}, time.Unix(1_700_000_000, 0))

	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("empty pass must not error: %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("empty pass submitted transactions: %+v", fake.Calls())
	}
}

func TestRunOnceSourceFailureFailsPass(t *testing.T) {
	fake := chain.NewFakeClient()
	src := &stubSource{err: fmt.Errorf("%w: boom", source.ErrUnavailable)}
	engine, _ := newTestEngine(fake, src, time.Unix(1_700_000_000, 0))

	err := engine.RunOnce(context.Background())
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}

func TestRunOnceIsolatesFailingCampaign(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := chain.NewFakeClient()

	expired := testCampaign(campaign.StatusOpen, now.Add(-time.Second), now.Add(time.Hour))
	active := testCampaign(campaign.StatusAccepted, now.Add(-time.Hour), now.Add(time.Hour))
	active.ID = campaign.IDFromUint64(3)
	fake.SetCampaign(expired)
	fake.SetCampaign(active)

	// The middle id is unknown to the contract, so its snapshot read fails.
	missing := campaign.IDFromUint64(99)
	src := &stubSource{ids: []campaign.ID{expired.ID, missing, active.ID}}
	engine, _ := newTestEngine(fake, src, now)

	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("a per-campaign failure must not fail the pass: %v", err)
	}

	// Both healthy campaigns were settled: discard+transfer, fulfill+transfer.
	calls := fake.Calls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 calls from the two healthy campaigns, got %d: %+v", len(calls), calls)
	}
}

func TestRunOnceNotifiesRegistryOnSettlement(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := chain.NewFakeClient()
	expired := testCampaign(campaign.StatusOpen, now.Add(-time.Second), now.Add(time.Hour))
	fake.SetCampaign(expired)

	src := &stubSource{ids: []campaign.ID{expired.ID}}
	engine, _ := newTestEngine(fake, src, now)

	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if got := src.notified[expired.ID]; got != campaign.StatusDiscarded {
		t.Fatalf("registry notified with %s, want %s", got, campaign.StatusDiscarded)
	}
}

func TestRunOnceLeavesPendingCampaignsAlone(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fake := chain.NewFakeClient()
	pending := testCampaign(campaign.StatusOpen, now.Add(time.Hour), now.Add(2*time.Hour))
	fake.SetCampaign(pending)

	src := &stubSource{ids: []campaign.ID{pending.ID}}
	engine, _ := newTestEngine(fake, src, now)

	if err := engine.RunOnce(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if len(fake.Calls()) != 0 {
		t.Fatalf("pending campaign should not be touched: %+v", fake.Calls())
	}
	if len(src.notified) != 0 {
		t.Fatalf("no notification expected: %+v", src.notified)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := chain.NewFakeClient()
	engine, _ := newTestEngine(fake, &stubSource{}, time.Unix(1_700_000_000, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("engine did not stop after cancel")
	}
}
