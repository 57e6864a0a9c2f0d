package settle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
	"kolrails/internal/journal"
)

// ErrPartialExecution marks an action whose lifecycle transition was mined
// but whose fund transfer failed. The funds stay with the settlement account
// until someone reconciles the journal entry by hand.
var ErrPartialExecution = errors.New("partial action execution")

// Executor carries out one settlement action as a two-phase, confirmation
// gated transaction sequence. Phase 1 commits the lifecycle transition and
// waits for its receipt; phase 2 re-reads the campaign and re-derives both
// the transfer amount and the nonce from fresh state before paying out.
//
// A phase-2 failure leaves the contract transitioned but the funds unmoved.
// That cannot be rolled back locally, so it is journaled as an anomaly for
// manual reconciliation; the next poll pass sees the authoritative status.
type Executor struct {
	client   chain.Client
	nonces   *NonceSequencer
	journal  journal.Store
	shareBps int64
}

func NewExecutor(client chain.Client, nonces *NonceSequencer, store journal.Store, shareBps int64) *Executor {
	if shareBps <= 0 {
		shareBps = DefaultShareBps
	}
	return &Executor{client: client, nonces: nonces, journal: store, shareBps: shareBps}
}

func (e *Executor) Execute(ctx context.Context, act Action) error {
	if act.None() {
		return nil
	}

	session := e.nonces.Acquire()
	defer session.Release()

	transitionReceipt, err := e.runTransition(ctx, session, act)
	if err != nil {
		e.record(ctx, journal.Entry{
			CampaignID: act.CampaignID.Hex(),
			Action:     act.Kind.String(),
			Error:      err.Error(),
			RecordedAt: time.Now().UTC(),
		})
		return err
	}

	transferReceipt, err := e.runTransfer(ctx, session, act)
	if err != nil {
		log.Printf("ANOMALY campaign %s: %s transition mined (%s) but transfer failed: %v",
			act.CampaignID, act.Kind, transitionReceipt.TxHash, err)
		e.record(ctx, journal.Entry{
			CampaignID:   act.CampaignID.Hex(),
			Action:       act.Kind.String(),
			TransitionTx: transitionReceipt.TxHash,
			Anomaly:      true,
			Error:        err.Error(),
			RecordedAt:   time.Now().UTC(),
		})
		return fmt.Errorf("%w: campaign %s: transfer after %s: %v", ErrPartialExecution, act.CampaignID, act.Kind, err)
	}

	e.record(ctx, journal.Entry{
		CampaignID:   act.CampaignID.Hex(),
		Action:       act.Kind.String(),
		TransitionTx: transitionReceipt.TxHash,
		TransferTx:   transferReceipt.TxHash,
		RecordedAt:   time.Now().UTC(),
	})
	return nil
}

func (e *Executor) runTransition(ctx context.Context, session *NonceSession, act Action) (chain.Receipt, error) {
	nonce, err := session.Next(ctx)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("derive nonce: %w", err)
	}

	switch act.Kind {
	case KindDiscard:
		return e.client.Discard(ctx, act.CampaignID, nonce)
	case KindFulfillAndPay:
		return e.client.Fulfill(ctx, act.CampaignID, nonce)
	case KindMarkUnfulfilled:
		return e.client.Unfulfill(ctx, act.CampaignID, nonce)
	default:
		return chain.Receipt{}, fmt.Errorf("no transition for action %s", act.Kind)
	}
}

// runTransfer pays out from freshly read state. The snapshot the evaluator
// decided on is stale by now (the transition just mutated it), so recipient
// and amount are re-derived instead of trusting values captured before
// phase 1.
func (e *Executor) runTransfer(ctx context.Context, session *NonceSession, act Action) (chain.Receipt, error) {
	fresh, err := e.client.CampaignInfo(ctx, act.CampaignID)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("re-read campaign: %w", err)
	}
	if fresh.Status != act.AfterStatus {
		return chain.Receipt{}, fmt.Errorf("campaign is %s after %s, want %s", fresh.Status, act.Kind, act.AfterStatus)
	}

	to, amount := e.transferTerms(act.Kind, fresh)

	nonce, err := session.Next(ctx)
	if err != nil {
		return chain.Receipt{}, fmt.Errorf("derive nonce: %w", err)
	}
	return e.client.Transfer(ctx, to, amount, nonce)
}

// transferTerms maps an action kind to its payout recipient and amount:
// discard and unfulfil refund the creator in full, fulfilment pays the KOL
// the settlement share.
func (e *Executor) transferTerms(kind Kind, fresh campaign.Campaign) (common.Address, *big.Int) {
	if kind == KindFulfillAndPay {
		return fresh.KOL, SettlementShare(fresh.TotalAmount, e.shareBps)
	}
	return fresh.Creator, new(big.Int).Set(fresh.TotalAmount)
}

func (e *Executor) record(ctx context.Context, entry journal.Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, entry); err != nil {
		log.Printf("journal write failed for campaign %s: %v", entry.CampaignID, err)
	}
}
