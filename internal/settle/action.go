// Package settle contains the settlement decision-and-execution engine: the
// pure evaluator, the nonce sequencer, the two-phase executor, and the
// polling orchestrator.
package settle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"kolrails/internal/campaign"
)

// Kind tags the evaluator's decision.
type Kind int

const (
	KindNone Kind = iota
	KindDiscard
	KindFulfillAndPay
	KindMarkUnfulfilled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDiscard:
		return "discard"
	case KindFulfillAndPay:
		return "fulfill_and_pay"
	case KindMarkUnfulfilled:
		return "mark_unfulfilled"
	default:
		return "unknown"
	}
}

// Action is the evaluator's output: at most one lifecycle transition plus its
// fund-transfer side effect. Created, executed, and discarded within a single
// orchestration pass.
type Action struct {
	Kind       Kind
	CampaignID campaign.ID
	TransferTo common.Address
	Amount     *big.Int
	// AfterStatus is the status the contract reaches once the transition
	// lands; used for registry notifications.
	AfterStatus campaign.Status
}

// None reports whether the action requires no work.
func (a Action) None() bool { return a.Kind == KindNone }

// shareDenomBps is the basis-point denominator for the settlement share.
const shareDenomBps = 10_000

// DefaultShareBps is the settlement fraction paid to the KOL on fulfilment.
const DefaultShareBps = 9_000

// SettlementShare computes the KOL's cut of an escrowed amount. The amount is
// already in token base units; the share stays in the same unit (no
// re-scaling) and rounds half up.
func SettlementShare(amount *big.Int, shareBps int64) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(shareBps))
	out.Add(out, big.NewInt(shareDenomBps/2))
	return out.Quo(out, big.NewInt(shareDenomBps))
}
