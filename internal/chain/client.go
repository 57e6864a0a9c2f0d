// Package chain is the read/write gateway to the marketplace and settlement
// token contracts. Writes are signed by the single settlement account and
// block until the transaction is mined.
package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"kolrails/internal/campaign"
)

// Failure kinds the orchestrator branches on with errors.Is.
var (
	// ErrRead marks a failed contract read (RPC or decode). Per-campaign,
	// retried on the next pass.
	ErrRead = errors.New("chain read failed")
	// ErrSubmission marks a transaction that was rejected, reverted, or timed
	// out waiting for inclusion.
	ErrSubmission = errors.New("transaction submission failed")
)

// Receipt is the confirmation record for a mined transaction.
type Receipt struct {
	TxHash  string
	Nonce   uint64
	GasUsed uint64
}

// Client abstracts the on-chain marketplace interaction. Every write takes an
// explicit nonce supplied by the caller; the client never invents ordering.
type Client interface {
	// CampaignInfo reads one campaign snapshot.
	CampaignInfo(ctx context.Context, id campaign.ID) (campaign.Campaign, error)
	// AllCampaigns enumerates every campaign id the contract knows.
	AllCampaigns(ctx context.Context) ([]campaign.ID, error)

	// PendingNonce returns the settlement account's next usable nonce,
	// queried fresh from the node.
	PendingNonce(ctx context.Context) (uint64, error)

	Accept(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error)
	Fulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error)
	Discard(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error)
	Unfulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int, nonce uint64) (Receipt, error)
}

// HealthChecker is implemented by clients that can probe their RPC endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
