package settle

import (
	"context"
	"errors"
	"log"
	"time"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
	"kolrails/internal/source"
)

// Engine is the polling orchestrator. It owns no global state: every
// collaborator is injected, so tests run isolated instances against fakes.
type Engine struct {
	client   chain.Client
	src      source.Source
	exec     *Executor
	metrics  *Metrics
	interval time.Duration
	shareBps int64
	now      func() time.Time
}

type EngineConfig struct {
	Client       chain.Client
	Source       source.Source
	Executor     *Executor
	Metrics      *Metrics
	PollInterval time.Duration
	ShareBps     int64
	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	shareBps := cfg.ShareBps
	if shareBps <= 0 {
		shareBps = DefaultShareBps
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Engine{
		client:   cfg.Client,
		src:      cfg.Source,
		exec:     cfg.Executor,
		metrics:  metrics,
		interval: interval,
		shareBps: shareBps,
		now:      now,
	}
}

// Metrics exposes the engine's registry for the ops endpoint.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// Run polls until the context is cancelled. Passes never overlap: the sleep
// starts only after the previous batch fully completes. A failed pass
// (source unavailable) is retried on the next interval; nothing short of
// cancellation stops the loop.
func (e *Engine) Run(ctx context.Context) error {
	for {
		if err := e.RunOnce(ctx); err != nil {
			log.Printf("poll pass failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.interval):
		}
	}
}

// RunOnce executes a single poll pass: fetch the id set, then evaluate and
// settle each campaign independently. Per-campaign failures are logged and
// isolated; only a source failure fails the pass itself.
func (e *Engine) RunOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		e.metrics.setPassDuration(time.Since(start).Seconds())
	}()

	ids, err := e.src.CampaignIDs(ctx)
	if err != nil {
		e.metrics.incPass("source_error")
		return err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			e.metrics.incPass("cancelled")
			return ctx.Err()
		}
		e.settleCampaign(ctx, id)
	}

	e.metrics.incPass("ok")
	return nil
}

func (e *Engine) settleCampaign(ctx context.Context, id campaign.ID) {
	e.metrics.incCampaign()

	snapshot, err := e.client.CampaignInfo(ctx, id)
	if err != nil {
		log.Printf("campaign %s: snapshot read failed, skipping until next pass: %v", id, err)
		return
	}

	act := Evaluate(snapshot, e.now(), e.shareBps)
	if act.None() {
		return
	}

	log.Printf("campaign %s: status %s, executing %s (%s -> %s)",
		id, snapshot.Status, act.Kind, act.Amount, act.TransferTo.Hex())

	if err := e.exec.Execute(ctx, act); err != nil {
		e.metrics.incAction(act.Kind.String(), "failed")
		if errors.Is(err, ErrPartialExecution) {
			e.metrics.incAnomaly()
		}
		log.Printf("campaign %s: action %s failed (snapshot: status=%s amount=%s): %v",
			id, act.Kind, snapshot.Status, snapshot.TotalAmount, err)
		return
	}

	e.metrics.incAction(act.Kind.String(), "ok")
	e.notify(ctx, id, act.AfterStatus)
}

// notify pushes the settled status to the registry when the source keeps its
// own mirror. Best-effort: the contract is authoritative either way.
func (e *Engine) notify(ctx context.Context, id campaign.ID, status campaign.Status) {
	notifier, ok := e.src.(source.StatusNotifier)
	if !ok {
		return
	}
	if err := notifier.NotifyStatus(ctx, id, status); err != nil {
		log.Printf("campaign %s: registry status update failed: %v", id, err)
	}
}
