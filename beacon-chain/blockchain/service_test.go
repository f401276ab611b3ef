package blockchain

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice/types"
	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

func indexToHash(i uint64) primitives.Root {
	var r primitives.Root
	binary.LittleEndian.PutUint64(r[:8], i+1)
	return r
}

func TestService_GenesisToHead(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	require.NoError(t, s.Genesis(ctx, indexToHash(0), BlockHeader{ProposerIndex: 0}))
	require.NoError(t, s.OnBlock(ctx, 1, indexToHash(1), indexToHash(0), 0, 0, BlockHeader{ProposerIndex: 1}))
	require.NoError(t, s.OnBlock(ctx, 1, indexToHash(2), indexToHash(0), 0, 0, BlockHeader{ProposerIndex: 2}))

	require.NoError(t, s.OnAttestation(ctx, 0, indexToHash(1), 1))
	require.NoError(t, s.OnAttestation(ctx, 1, indexToHash(2), 1))

	genesis := types.Checkpoint{Epoch: 0, Root: indexToHash(0)}
	require.NoError(t, s.UpdateJustified(ctx, genesis, genesis, []primitives.Gwei{5, 50}))

	head, err := s.HeadReport(ctx)
	require.NoError(t, err)
	require.Equal(t, indexToHash(2), head)
}

func TestService_HeadReportBeforeGenesis(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	_, err := s.HeadReport(ctx)
	require.Error(t, err)
}
