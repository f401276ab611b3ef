package protoarray

import (
	"context"

	"go.opencensus.io/trace"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// VoteTracker records the latest attestation a single validator index has
// cast: the root it last contributed weight to (CurrentRoot), the root its
// most recent attestation targets (NextRoot), and the epoch that
// attestation targets (NextEpoch). CurrentRoot trails NextRoot by one
// ApplyVotes call — the "aging" step described in the specification.
type VoteTracker struct {
	CurrentRoot primitives.Root
	NextRoot    primitives.Root
	NextEpoch   primitives.Epoch
}

// ProcessAttestation extends votes (growing it with zero-value trackers if
// validatorIndex is new) and, if targetEpoch is strictly newer than the
// tracker's current NextEpoch, replaces NextRoot/NextEpoch. Older or
// repeated attestations are silently dropped: this is not an error
// condition, it is the expected steady-state behavior of a gossiping
// network where duplicate and out-of-order attestations are routine.
func ProcessAttestation(votes []VoteTracker, validatorIndex uint64, blockRoot primitives.Root, targetEpoch primitives.Epoch) []VoteTracker {
	processedAttestationCount.Inc()

	for uint64(len(votes)) <= validatorIndex {
		votes = append(votes, VoteTracker{})
	}
	if targetEpoch > votes[validatorIndex].NextEpoch {
		votes[validatorIndex].NextRoot = blockRoot
		votes[validatorIndex].NextEpoch = targetEpoch
	}
	return votes
}

// computeDeltas folds votes into one weight delta per currently live arena
// node. For each validator whose vote has moved (CurrentRoot != NextRoot)
// or whose balance has changed, it subtracts the validator's old balance
// from its old root and adds its new balance to its new root, then ages
// the tracker by setting CurrentRoot = NextRoot. Balances are indexed by
// validator index directly (oldBalances[v], newBalances[v]) — not by a
// fixed index — since every validator's weight contribution is independent
// of every other's.
//
// votes is mutated in place (the aging step). A validator index beyond the
// bounds of oldBalances or newBalances is treated as having balance zero on
// that side, covering validator-set growth between calls.
func computeDeltas[T any](indices map[primitives.Root]uint64, indexOffset uint64, arenaLen int, votes []VoteTracker, oldBalances, newBalances []primitives.Gwei) []int64 {
	deltas := make([]int64, arenaLen)

	for v := range votes {
		vote := &votes[v]
		if vote.CurrentRoot == primitives.ZeroRoot && vote.NextRoot == primitives.ZeroRoot {
			continue
		}

		var oldBalance, newBalance primitives.Gwei
		if v < len(oldBalances) {
			oldBalance = oldBalances[v]
		}
		if v < len(newBalances) {
			newBalance = newBalances[v]
		}

		if vote.CurrentRoot != vote.NextRoot || oldBalance != newBalance {
			if g, ok := indices[vote.CurrentRoot]; ok && g >= indexOffset {
				deltas[g-indexOffset] -= int64(oldBalance)
			}
			if g, ok := indices[vote.NextRoot]; ok && g >= indexOffset {
				deltas[g-indexOffset] += int64(newBalance)
			}
			vote.CurrentRoot = vote.NextRoot
		}
	}
	return deltas
}

// ApplyVotes is the single entry point that turns accumulated votes and a
// new balance vector into weight changes on the tree: it computes deltas
// under the arena's own lock, ages votes, and applies the resulting deltas
// via ApplyScoreChanges, all as one atomic step. justifiedEpoch and
// finalizedEpoch become the arena's new viability epochs.
func (s *Store[T]) ApplyVotes(ctx context.Context, votes []VoteTracker, oldBalances, newBalances []primitives.Gwei, justifiedEpoch, finalizedEpoch primitives.Epoch) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.ApplyVotes")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	deltas := computeDeltas[T](s.nodeIndices, s.indexOffset, len(s.nodes), votes, oldBalances, newBalances)
	return s.applyScoreChangesLocked(deltas, justifiedEpoch, finalizedEpoch)
}
