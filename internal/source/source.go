// Package source supplies the set of campaign ids the oracle evaluates each
// pass, either by contract enumeration or from the external registry API.
package source

import (
	"context"
	"errors"

	"kolrails/internal/campaign"
)

// ErrUnavailable marks a failed id fetch. It fails the whole poll pass: an
// unreachable source must not masquerade as "no campaigns".
var ErrUnavailable = errors.New("campaign source unavailable")

// Source produces the campaign id set for one poll pass.
type Source interface {
	CampaignIDs(ctx context.Context) ([]campaign.ID, error)
}

// StatusNotifier is implemented by sources that want to hear about settled
// campaigns (the registry keeps its own mirror of campaign status).
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, id campaign.ID, status campaign.Status) error
}
