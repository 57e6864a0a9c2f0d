package settle

import (
	"time"

	"kolrails/internal/campaign"
)

// Evaluate maps one campaign snapshot and the current time to the action the
// oracle must take. Pure: no clocks, no I/O, no mutation. The contract is
// authoritative, so a decision that turns out stale simply fails on-chain and
// gets re-derived from fresh state on the next pass.
//
// Expiry is checked before fulfilment: an ACCEPTED campaign whose promotion
// deadline has passed is refunded, never paid. Deadline boundaries are
// inclusive for the waiting side (now == deadline means not yet expired).
func Evaluate(c campaign.Campaign, now time.Time, shareBps int64) Action {
	if c.Status.Terminal() {
		return Action{Kind: KindNone, CampaignID: c.ID}
	}

	switch c.Status {
	case campaign.StatusOpen:
		if now.After(c.OfferDeadline) {
			return Action{
				Kind:        KindDiscard,
				CampaignID:  c.ID,
				TransferTo:  c.Creator,
				Amount:      c.TotalAmount,
				AfterStatus: campaign.StatusDiscarded,
			}
		}
		return Action{Kind: KindNone, CampaignID: c.ID}

	case campaign.StatusAccepted:
		if now.After(c.PromotionDeadline) {
			return Action{
				Kind:        KindMarkUnfulfilled,
				CampaignID:  c.ID,
				TransferTo:  c.Creator,
				Amount:      c.TotalAmount,
				AfterStatus: campaign.StatusUnfulfilled,
			}
		}
		return Action{
			Kind:        KindFulfillAndPay,
			CampaignID:  c.ID,
			TransferTo:  c.KOL,
			Amount:      SettlementShare(c.TotalAmount, shareBps),
			AfterStatus: campaign.StatusFulfilled,
		}
	}

	return Action{Kind: KindNone, CampaignID: c.ID}
}
