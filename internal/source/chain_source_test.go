package source

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
)

func TestChainSourceEnumerates(t *testing.T) {
	fake := chain.NewFakeClient()
	fake.SetCampaign(campaign.Campaign{
		ID:            campaign.IDFromUint64(1),
		TotalAmount:   big.NewInt(1),
		Status:        campaign.StatusOpen,
		OfferDeadline: time.Unix(0, 0),
	})

	src := NewChainSource(fake)
	ids, err := src.CampaignIDs(context.Background())
	if err != nil {
		t.Fatalf("enumerate: %v", err)
	}
	if len(ids) != 1 || ids[0] != campaign.IDFromUint64(1) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestChainSourceReadFailureIsUnavailable(t *testing.T) {
	fake := chain.NewFakeClient()
	fake.FailReads = true

	src := NewChainSource(fake)
	_, err := src.CampaignIDs(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
