package source

import (
	"context"
	"fmt"

	"kolrails/internal/campaign"
	"kolrails/internal/chain"
)

// ChainSource enumerates campaigns straight from the marketplace contract.
type ChainSource struct {
	client chain.Client
}

func NewChainSource(client chain.Client) *ChainSource {
	return &ChainSource{client: client}
}

func (s *ChainSource) CampaignIDs(ctx context.Context) ([]campaign.ID, error) {
	ids, err := s.client.AllCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}
