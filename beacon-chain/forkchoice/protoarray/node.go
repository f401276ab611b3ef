package protoarray

import "github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"

// NonExistentNode is the sentinel arena index used for "no parent", "no
// best child", and "no best descendant".
const NonExistentNode = ^uint64(0)

// Node is one vertex of the proto-array arena: a block, its cached weight,
// and the cached best-child/best-descendant pointers used to answer
// find_head in O(depth) rather than O(n). Parent, BestChild, and
// BestDescendant are arena-global indices (stable for the node's lifetime,
// per the arena's indexing invariant), not slice offsets.
type Node[T any] struct {
	slot           primitives.Slot
	root           primitives.Root
	payload        T
	parent         uint64
	justifiedEpoch primitives.Epoch
	finalizedEpoch primitives.Epoch
	weight         int64
	bestChild      uint64
	bestDescendant uint64
}

func (n *Node[T]) Slot() primitives.Slot             { return n.slot }
func (n *Node[T]) Root() primitives.Root             { return n.root }
func (n *Node[T]) Payload() T                        { return n.payload }
func (n *Node[T]) Parent() uint64                    { return n.parent }
func (n *Node[T]) JustifiedEpoch() primitives.Epoch  { return n.justifiedEpoch }
func (n *Node[T]) FinalizedEpoch() primitives.Epoch  { return n.finalizedEpoch }
func (n *Node[T]) Weight() int64                     { return n.weight }
func (n *Node[T]) BestChild() uint64                 { return n.bestChild }
func (n *Node[T]) BestDescendant() uint64            { return n.bestDescendant }

// viableForHead reports whether n may serve as (or be descended to from) a
// head under the tree's currently tracked justified/finalized epochs. Epoch
// zero is the genesis bypass: while the tree's justified (or finalized)
// epoch is zero, every node passes that half of the check; once the tree's
// epoch is non-zero, the node's recorded epoch must equal it, even if the
// node's own epoch is zero.
func (n *Node[T]) viableForHead(justifiedEpoch, finalizedEpoch primitives.Epoch) bool {
	justifiedOK := justifiedEpoch == 0 || n.justifiedEpoch == justifiedEpoch
	finalizedOK := finalizedEpoch == 0 || n.finalizedEpoch == finalizedEpoch
	return justifiedOK && finalizedOK
}

// BlockNode is the immutable, caller-facing view of a tree node returned by
// FindHead and CanonicalChain. Unlike Node it carries no arena-internal
// bookkeeping and is safe to retain after the node it describes is pruned.
type BlockNode[T any] struct {
	Slot    primitives.Slot
	Root    primitives.Root
	Payload T
}

// NodeView is a read-only snapshot of one live node, returned in bulk by
// Store.Snapshot for introspection and diffing tools.
type NodeView struct {
	Root               primitives.Root
	ParentRoot         primitives.Root
	Slot               primitives.Slot
	Weight             int64
	JustifiedEpoch     primitives.Epoch
	FinalizedEpoch     primitives.Epoch
	BestChildRoot      primitives.Root
	BestDescendantRoot primitives.Root
}

// BlockSink receives one notification per node evicted by Prune, in
// arena order (oldest first). OnPruned is invoked synchronously from
// inside Prune and must not call back into the Store that invoked it; it
// is the capability-interface rendering of the spec's "Callback
// (BlockSink)" design note.
type BlockSink[T any] interface {
	OnPruned(node *Node[T], canonical bool)
}
