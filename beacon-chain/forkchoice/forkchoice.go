// Package forkchoice implements the vote-weight accounting layer that sits
// on top of protoarray's block tree: it tracks validator votes and
// balances, folds them into tree weight deltas, and answers "what is the
// current head" against the justified/finalized checkpoints it is told
// about. The package itself performs no I/O and emits no logs — callers
// (see beacon-chain/blockchain for a worked example) are responsible for
// translating its errors into diagnostics.
package forkchoice

import (
	"context"
	"sync"

	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice/protoarray"
	"github.com/eth2-clients/forkchoice-engine/beacon-chain/forkchoice/types"
	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// ForkChoice is the top-level engine: one block tree plus the vote
// accounting needed to weigh it. T is the caller's block payload type,
// threaded through unchanged (the engine never inspects it).
type ForkChoice[T any] struct {
	mu sync.Mutex

	store *protoarray.Store[T]
	sink  protoarray.BlockSink[T]

	votes    []protoarray.VoteTracker
	balances []primitives.Gwei

	justified types.Checkpoint
	finalized types.Checkpoint

	initialized bool
}

// New constructs a ForkChoice with no genesis block yet. Call Init before
// any other method.
func New[T any](sink protoarray.BlockSink[T]) *ForkChoice[T] {
	return &ForkChoice[T]{
		store: protoarray.NewStore[T](0, 0, sink),
		sink:  sink,
	}
}

// Init seeds the tree with a genesis block and the justified/finalized
// checkpoints to use until the first UpdateJustified call. Both checkpoints
// are set here, rather than leaving finalized at its zero value, so that
// viability checks before the first justification update behave correctly.
func (fc *ForkChoice[T]) Init(ctx context.Context, genesisSlot primitives.Slot, genesisRoot primitives.Root, justified, finalized types.Checkpoint, payload T) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.initialized {
		return ErrAlreadyInitialized
	}
	fc.store = protoarray.NewStore[T](justified.Epoch, finalized.Epoch, fc.sink)
	if err := fc.store.Insert(ctx, genesisSlot, genesisRoot, primitives.ZeroRoot, justified.Epoch, finalized.Epoch, payload); err != nil {
		return err
	}
	fc.justified = justified
	fc.finalized = finalized
	fc.initialized = true
	return nil
}

// ProcessBlock inserts a new block into the tree. It may be called before
// the block's parent is known; the block is then stored as orphaned, with
// no parent link, and stays so even if its parent is inserted later.
func (fc *ForkChoice[T]) ProcessBlock(ctx context.Context, slot primitives.Slot, root, parentRoot primitives.Root, justifiedEpoch, finalizedEpoch primitives.Epoch, payload T) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.initialized {
		return ErrNotInitialized
	}
	return fc.store.Insert(ctx, slot, root, parentRoot, justifiedEpoch, finalizedEpoch, payload)
}

// ProcessAttestation folds one validator's vote into the tracker. The vote
// does not move any tree weight until the next UpdateJustified call.
func (fc *ForkChoice[T]) ProcessAttestation(ctx context.Context, validatorIndex uint64, blockRoot primitives.Root, targetEpoch primitives.Epoch) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.initialized {
		return ErrNotInitialized
	}
	fc.votes = protoarray.ProcessAttestation(fc.votes, validatorIndex, blockRoot, targetEpoch)
	return nil
}

// UpdateJustified folds the accumulated votes and a new balance vector into
// tree weight changes, and latches in the given justified/finalized
// checkpoints for future viability checks. newBalances replaces the
// balance vector used on the next call.
func (fc *ForkChoice[T]) UpdateJustified(ctx context.Context, justified, finalized types.Checkpoint, newBalances []primitives.Gwei) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.initialized {
		return ErrNotInitialized
	}
	if err := fc.store.ApplyVotes(ctx, fc.votes, fc.balances, newBalances, justified.Epoch, finalized.Epoch); err != nil {
		return err
	}
	fc.balances = newBalances
	fc.justified = justified
	fc.finalized = finalized
	return nil
}

// FindHead returns the current head, walking from the justified
// checkpoint's root.
func (fc *ForkChoice[T]) FindHead(ctx context.Context) (primitives.Root, error) {
	fc.mu.Lock()
	anchor := fc.justified.Root
	initialized := fc.initialized
	fc.mu.Unlock()

	if !initialized {
		return primitives.Root{}, ErrNotInitialized
	}
	return fc.store.FindHead(ctx, anchor)
}

// CanonicalChain returns a lazy iterator over the chain from the current
// head back to the finalized checkpoint's root.
func (fc *ForkChoice[T]) CanonicalChain(ctx context.Context) (*protoarray.ChainIter[T], error) {
	fc.mu.Lock()
	anchor := fc.finalized.Root
	initialized := fc.initialized
	fc.mu.Unlock()

	if !initialized {
		return nil, ErrNotInitialized
	}
	return fc.store.CanonicalChain(ctx, anchor)
}

// Prune discards every node older than finalizedRoot, advancing the
// arena's pruning boundary. It is the caller's responsibility to invoke
// this once a new finalized checkpoint is confirmed; the engine does not
// prune automatically.
func (fc *ForkChoice[T]) Prune(ctx context.Context, finalizedRoot primitives.Root) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if !fc.initialized {
		return ErrNotInitialized
	}
	return fc.store.Prune(ctx, finalizedRoot)
}

// HasBlock reports whether root is currently tracked by the tree.
func (fc *ForkChoice[T]) HasBlock(root primitives.Root) bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.initialized && fc.store.HasBlock(root)
}

// Snapshot returns a read-only dump of the tree's live nodes.
func (fc *ForkChoice[T]) Snapshot() []protoarray.NodeView {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.store.Snapshot()
}
