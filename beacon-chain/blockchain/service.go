// Package blockchain is a thin example host for the fork-choice engine: it
// wires a ForkChoice instance to logging and metrics the way a real beacon
// node would, and translates the engine's sentinel errors into
// diagnostics. None of this package's logic is part of the engine itself —
// the engine (beacon-chain/forkchoice, beacon-chain/forkchoice/protoarray)
// neither logs nor reads global configuration on its own.
package blockchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice"
	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice/protoarray"
	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice/types"
	"github.com/eth2-clients/forkchoice-engine/config/params"
	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

var log = logrus.WithField("prefix", "blockchain")

// BlockHeader is an example payload: the minimum a host needs to recognize
// a block beyond its tree position. Real callers would carry their own,
// richer block type as the engine's type parameter instead.
type BlockHeader struct {
	ProposerIndex uint64
	StateRoot     primitives.Root
}

// Service owns a ForkChoice instance and implements BlockSink to log every
// pruned block, distinguishing canonical history from abandoned forks.
type Service struct {
	fc *forkchoice.ForkChoice[BlockHeader]
}

// NewService constructs a Service with its own fork-choice engine,
// registered as its own BlockSink.
func NewService() *Service {
	s := &Service{}
	s.fc = forkchoice.New[BlockHeader](s)
	return s
}

// OnPruned implements protoarray.BlockSink.
func (s *Service) OnPruned(node *protoarray.Node[BlockHeader], canonical bool) {
	if canonical {
		log.WithField("root", node.Root()).WithField("slot", node.Slot()).Debug("finalized canonical block")
		return
	}
	log.WithField("root", node.Root()).WithField("slot", node.Slot()).Info("pruned non-canonical block")
}

// Genesis initializes the engine at a genesis block.
func (s *Service) Genesis(ctx context.Context, root primitives.Root, payload BlockHeader) error {
	genesis := types.Checkpoint{Epoch: 0, Root: root}
	if err := s.fc.Init(ctx, 0, root, genesis, genesis, payload); err != nil {
		return errors.Wrap(err, "could not initialize fork choice at genesis")
	}
	beaconCurrentJustifiedEpoch.Set(0)
	beaconFinalizedEpoch.Set(0)
	return nil
}

// OnBlock inserts an incoming block into the tree.
func (s *Service) OnBlock(ctx context.Context, slot primitives.Slot, root, parentRoot primitives.Root, justifiedEpoch, finalizedEpoch primitives.Epoch, payload BlockHeader) error {
	if err := s.fc.ProcessBlock(ctx, slot, root, parentRoot, justifiedEpoch, finalizedEpoch, payload); err != nil {
		return errors.Wrapf(err, "could not process block at slot %d", slot)
	}
	return nil
}

// OnAttestation folds a validator's attestation into the vote tracker.
func (s *Service) OnAttestation(ctx context.Context, validatorIndex uint64, blockRoot primitives.Root, targetEpoch primitives.Epoch) error {
	if err := s.fc.ProcessAttestation(ctx, validatorIndex, blockRoot, targetEpoch); err != nil {
		return errors.Wrap(err, "could not process attestation")
	}
	return nil
}

// UpdateJustified folds accumulated votes and a new balance vector into
// tree weights, updates the justified/finalized metrics, and prunes the
// tree to the new finalized root once it is confirmed.
func (s *Service) UpdateJustified(ctx context.Context, justified, finalized types.Checkpoint, balances []primitives.Gwei) error {
	if err := s.fc.UpdateJustified(ctx, justified, finalized, balances); err != nil {
		return errors.Wrap(err, "could not update justified checkpoint")
	}
	beaconCurrentJustifiedEpoch.Set(float64(justified.Epoch))
	beaconFinalizedEpoch.Set(float64(finalized.Epoch))

	if err := s.fc.Prune(ctx, finalized.Root); err != nil {
		log.WithError(err).Debug("skipping prune for this finalized root")
	}
	return nil
}

// HeadReport resolves the current head. On failure it logs a warning for
// an unknown anchor root or a resolved head that fails viability, logs any
// other error (such as ErrNotInitialized) as unexpected, and returns the
// engine's error unchanged.
func (s *Service) HeadReport(ctx context.Context) (primitives.Root, error) {
	head, err := s.fc.FindHead(ctx)
	if err != nil {
		if errors.Is(err, protoarray.ErrUnknownRoot) {
			log.WithError(err).Warn("head requested before justified checkpoint root is known")
		} else if errors.Is(err, protoarray.ErrUnviableHead) {
			log.WithError(err).Warn("current best chain is not viable under justified/finalized epochs")
		} else {
			log.WithError(err).Error("unexpected fork choice error")
		}
		return primitives.Root{}, err
	}
	return head, nil
}

// SlotsPerEpoch returns the active configuration's SlotsPerEpoch. The
// engine takes epochs as arguments and reads no configuration, so turning
// slots into epochs is left to the caller.
func SlotsPerEpoch() primitives.Slot {
	return params.BeaconConfig().SlotsPerEpoch
}
