package settle

import (
	"context"
	"sync"

	"kolrails/internal/chain"
)

// NonceSequencer serializes transaction submission for the single settlement
// account. One session spans one campaign action, so the two transactions of
// a transition-plus-transfer pair can never interleave with another
// campaign's submissions.
//
// Nonces are never pre-computed: each Next call re-derives the value from the
// node's pending count, so the second transaction of a pair picks up the
// confirmed nonce of the first rather than a guess made before either landed.
type NonceSequencer struct {
	mu     sync.Mutex
	client chain.Client
}

func NewNonceSequencer(client chain.Client) *NonceSequencer {
	return &NonceSequencer{client: client}
}

// Acquire takes the account-wide submission lock and returns the session.
func (s *NonceSequencer) Acquire() *NonceSession {
	s.mu.Lock()
	return &NonceSession{seq: s}
}

// NonceSession holds the submission lock for one campaign action.
type NonceSession struct {
	seq      *NonceSequencer
	released bool
}

// Next returns the account's next usable nonce, queried fresh. Call it only
// after the previous transaction in this session has been confirmed.
func (s *NonceSession) Next(ctx context.Context) (uint64, error) {
	return s.seq.client.PendingNonce(ctx)
}

// Release unlocks the sequencer. Safe to call more than once.
func (s *NonceSession) Release() {
	if s.released {
		return
	}
	s.released = true
	s.seq.mu.Unlock()
}
