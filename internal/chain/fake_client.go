package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"kolrails/internal/campaign"
)

// FakeCall records one submitted transaction for assertions.
type FakeCall struct {
	Method string
	ID     campaign.ID
	To     common.Address
	Amount *big.Int
	Nonce  uint64
}

// FakeClient emulates the contract pair in memory. It applies lifecycle
// transitions to its campaign map, hands out nonces like a node would, and
// rejects reused or stale nonces so sequencing bugs surface in tests.
type FakeClient struct {
	mu        sync.Mutex
	campaigns map[campaign.ID]campaign.Campaign
	nonce     uint64
	calls     []FakeCall

	// FailMethod makes the named write fail before any state change.
	FailMethod string
	// FailReads makes every read fail.
	FailReads bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{campaigns: make(map[campaign.ID]campaign.Campaign)}
}

// SetCampaign seeds or replaces a campaign snapshot.
func (f *FakeClient) SetCampaign(c campaign.Campaign) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.campaigns[c.ID] = c
}

// Calls returns the submitted transactions in order.
func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeClient) CampaignInfo(_ context.Context, id campaign.ID) (campaign.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return campaign.Campaign{}, fmt.Errorf("%w: fake read failure", ErrRead)
	}
	c, ok := f.campaigns[id]
	if !ok {
		return campaign.Campaign{}, fmt.Errorf("%w: unknown campaign %s", ErrRead, id)
	}
	return c, nil
}

func (f *FakeClient) AllCampaigns(_ context.Context) ([]campaign.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads {
		return nil, fmt.Errorf("%w: fake read failure", ErrRead)
	}
	ids := make([]campaign.ID, 0, len(f.campaigns))
	for id := range f.campaigns {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *FakeClient) PendingNonce(_ context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *FakeClient) Accept(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return f.transition(ctx, "acceptProjectCampaign", id, nonce, campaign.StatusOpen, campaign.StatusAccepted)
}

func (f *FakeClient) Fulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return f.transition(ctx, "fulfilProjectCampaign", id, nonce, campaign.StatusAccepted, campaign.StatusFulfilled)
}

func (f *FakeClient) Discard(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return f.transition(ctx, "discardCampaign", id, nonce, campaign.StatusOpen, campaign.StatusDiscarded)
}

func (f *FakeClient) Unfulfill(ctx context.Context, id campaign.ID, nonce uint64) (Receipt, error) {
	return f.transition(ctx, "unfulfillCampaign", id, nonce, campaign.StatusAccepted, campaign.StatusUnfulfilled)
}

func (f *FakeClient) transition(_ context.Context, method string, id campaign.ID, nonce uint64, from, to campaign.Status) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMethod == method {
		return Receipt{}, fmt.Errorf("%w: fake %s failure", ErrSubmission, method)
	}
	if err := f.consumeNonce(method, nonce); err != nil {
		return Receipt{}, err
	}
	c, ok := f.campaigns[id]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s: unknown campaign %s", ErrSubmission, method, id)
	}
	if c.Status != from {
		return Receipt{}, fmt.Errorf("%w: %s: campaign %s is %s", ErrSubmission, method, id, c.Status)
	}
	c.Status = to
	f.campaigns[id] = c
	f.calls = append(f.calls, FakeCall{Method: method, ID: id, Nonce: nonce})
	return Receipt{TxHash: fmt.Sprintf("0xfake%d", nonce), Nonce: nonce}, nil
}

func (f *FakeClient) Transfer(_ context.Context, to common.Address, amount *big.Int, nonce uint64) (Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMethod == "transfer" {
		return Receipt{}, fmt.Errorf("%w: fake transfer failure", ErrSubmission)
	}
	if err := f.consumeNonce("transfer", nonce); err != nil {
		return Receipt{}, err
	}
	f.calls = append(f.calls, FakeCall{Method: "transfer", To: to, Amount: new(big.Int).Set(amount), Nonce: nonce})
	return Receipt{TxHash: fmt.Sprintf("0xfake%d", nonce), Nonce: nonce}, nil
}

// consumeNonce enforces the node's ordering rule: each submission must carry
// exactly the next unused nonce.
func (f *FakeClient) consumeNonce(method string, nonce uint64) error {
	if nonce != f.nonce {
		return fmt.Errorf("%w: %s: nonce %d, want %d", ErrSubmission, method, nonce, f.nonce)
	}
	f.nonce++
	return nil
}
