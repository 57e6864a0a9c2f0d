// Package campaign defines the marketplace campaign snapshot the oracle
// evaluates. A snapshot is read fresh from the contract on every poll pass and
// never cached across passes; the contract owns the status lifecycle.
package campaign

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status mirrors the contract's campaign status enum.
type Status uint8

const (
	StatusOpen Status = iota
	StatusAccepted
	StatusFulfilled
	StatusDiscarded
	StatusUnfulfilled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusAccepted:
		return "accepted"
	case StatusFulfilled:
		return "fulfilled"
	case StatusDiscarded:
		return "discarded"
	case StatusUnfulfilled:
		return "unfulfilled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Terminal reports whether the contract can no longer move the campaign.
func (s Status) Terminal() bool {
	return s == StatusFulfilled || s == StatusDiscarded || s == StatusUnfulfilled
}

// ID is the 32-byte campaign identifier. The contract keys campaigns by
// bytes32; the external registry hands out either hex strings or plain
// integer handles, so both JSON forms decode into the same value.
type ID [32]byte

// IDFromUint64 builds an ID from an integer handle, big-endian in the low
// eight bytes to match the contract's uint-to-bytes32 widening.
func IDFromUint64(n uint64) ID {
	var id ID
	binary.BigEndian.PutUint64(id[24:], n)
	return id
}

// ParseID decodes a 0x-prefixed (or bare) hex identifier.
func ParseID(s string) (ID, error) {
	var id ID
	s = strings.TrimPrefix(s, "0x")
	b := common.FromHex("0x" + s)
	if len(b) == 0 || len(b) > 32 {
		return id, fmt.Errorf("invalid campaign id %q", s)
	}
	copy(id[32-len(b):], b)
	return id, nil
}

func (id ID) Hex() string {
	return "0x" + common.Bytes2Hex(id[:])
}

func (id ID) String() string { return id.Hex() }

// UnmarshalJSON accepts either a hex string or an integer handle.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("campaign id must be a hex string or integer: %s", string(data))
	}
	*id = IDFromUint64(n)
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// Campaign is a read-only snapshot of one escrow agreement.
type Campaign struct {
	ID                ID
	Creator           common.Address
	KOL               common.Address
	OfferDeadline     time.Time
	PromotionDeadline time.Time
	TotalAmount       *big.Int // token base units, already decimal-scaled
	Status            Status
}

// NormalizeDeadline converts an on-chain deadline to a time.Time. Deployments
// disagree on the stored unit: some contracts write unix seconds, others
// milliseconds. Values at or above 1e12 can only be milliseconds (1e12
// seconds is past year 33000, 1e12 ms is 2001), so the magnitude decides.
func NormalizeDeadline(raw *big.Int) time.Time {
	if raw == nil {
		return time.Time{}
	}
	v := raw.Int64()
	if v >= 1_000_000_000_000 {
		return time.UnixMilli(v)
	}
	return time.Unix(v, 0)
}
