package protoarray

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

func TestProcessAttestation_NewVoteIsRecorded(t *testing.T) {
	var votes []VoteTracker
	votes = ProcessAttestation(votes, 3, indexToHash(0), 5)
	require.Len(t, votes, 4)
	require.Equal(t, indexToHash(0), votes[3].NextRoot)
	require.Equal(t, primitives.Epoch(5), votes[3].NextEpoch)
}

func TestProcessAttestation_OlderAttestationDropped(t *testing.T) {
	var votes []VoteTracker
	votes = ProcessAttestation(votes, 0, indexToHash(1), 5)
	votes = ProcessAttestation(votes, 0, indexToHash(2), 4)
	require.Equal(t, indexToHash(1), votes[0].NextRoot)
	require.Equal(t, primitives.Epoch(5), votes[0].NextEpoch)
}

func TestProcessAttestation_NewerAttestationReplaces(t *testing.T) {
	var votes []VoteTracker
	votes = ProcessAttestation(votes, 0, indexToHash(1), 5)
	votes = ProcessAttestation(votes, 0, indexToHash(2), 6)
	require.Equal(t, indexToHash(2), votes[0].NextRoot)
	require.Equal(t, primitives.Epoch(6), votes[0].NextEpoch)
}

func TestComputeDeltas_ZeroHashVotesIgnored(t *testing.T) {
	votes := []VoteTracker{{}}
	deltas := computeDeltas[int](map[primitives.Root]uint64{}, 0, 0, votes, nil, nil)
	require.Empty(t, deltas)
}

func TestComputeDeltas_AllVoteTheSame(t *testing.T) {
	indices := map[primitives.Root]uint64{indexToHash(0): 0}
	votes := []VoteTracker{
		{CurrentRoot: primitives.ZeroRoot, NextRoot: indexToHash(0)},
		{CurrentRoot: primitives.ZeroRoot, NextRoot: indexToHash(0)},
	}
	oldBalances := []primitives.Gwei{10, 10}
	newBalances := []primitives.Gwei{10, 10}

	deltas := computeDeltas[int](indices, 0, 1, votes, oldBalances, newBalances)
	require.Equal(t, []int64{20}, deltas)
	require.Equal(t, indexToHash(0), votes[0].CurrentRoot)
	require.Equal(t, indexToHash(0), votes[1].CurrentRoot)
}

func TestComputeDeltas_DifferentVotesMoveWeight(t *testing.T) {
	indices := map[primitives.Root]uint64{
		indexToHash(0): 0,
		indexToHash(1): 1,
	}
	votes := []VoteTracker{
		{CurrentRoot: indexToHash(0), NextRoot: indexToHash(1)},
	}
	oldBalances := []primitives.Gwei{10}
	newBalances := []primitives.Gwei{10}

	deltas := computeDeltas[int](indices, 0, 2, votes, oldBalances, newBalances)
	require.Equal(t, []int64{-10, 10}, deltas)
}

func TestComputeDeltas_GrowingValidatorSet(t *testing.T) {
	indices := map[primitives.Root]uint64{indexToHash(0): 0}
	votes := []VoteTracker{
		{CurrentRoot: primitives.ZeroRoot, NextRoot: indexToHash(0)},
	}
	// The validator's balance is only present in newBalances, simulating a
	// validator that joined between the old and new balance snapshots.
	deltas := computeDeltas[int](indices, 0, 1, votes, nil, []primitives.Gwei{32})
	require.Equal(t, []int64{32}, deltas)
}

func TestStore_ApplyVotes_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s := NewStore[int](1, 1, nil)
	require.NoError(t, s.Insert(ctx, 0, indexToHash(0), primitives.ZeroRoot, 1, 1, 0))
	require.NoError(t, s.Insert(ctx, 1, indexToHash(1), indexToHash(0), 1, 1, 0))
	require.NoError(t, s.Insert(ctx, 1, indexToHash(2), indexToHash(0), 1, 1, 0))

	var votes []VoteTracker
	votes = ProcessAttestation(votes, 0, indexToHash(1), 1)
	votes = ProcessAttestation(votes, 1, indexToHash(2), 1)

	balances := []primitives.Gwei{10, 20}
	require.NoError(t, s.ApplyVotes(ctx, votes, nil, balances, 1, 1))

	head, err := s.FindHead(ctx, indexToHash(0))
	require.NoError(t, err)
	require.Equal(t, indexToHash(2), head)
}
