// Package protoarray implements the arena-backed block tree ("proto-array")
// that underlies the fork-choice engine: an append-only slice of Node
// arranged so that a parent always precedes its children, with cached
// best-child/best-descendant pointers so find_head resolves in time
// proportional to tree depth rather than tree size.
package protoarray

import (
	"bytes"
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// Store is the arena itself. The zero value is not usable; construct one
// with NewStore. All exported methods are safe for concurrent use: mutators
// take an exclusive lock, queries take a shared one, matching the single
// reader/single-writer-equivalent concurrency model described in the
// specification's Concurrency Model section.
type Store[T any] struct {
	mu sync.RWMutex

	nodes       []*Node[T]
	nodeIndices map[primitives.Root]uint64
	indexOffset uint64

	justifiedEpoch primitives.Epoch
	finalizedEpoch primitives.Epoch

	sink BlockSink[T]
}

// NewStore constructs an empty arena, already primed with the justified and
// finalized epochs it should use to judge viability until the first call to
// ApplyVotes. Initializing both epochs here (rather than leaving finalized
// at its zero value until the first justification update) is one of the
// corrected behaviors the specification calls out explicitly.
func NewStore[T any](justifiedEpoch, finalizedEpoch primitives.Epoch, sink BlockSink[T]) *Store[T] {
	return &Store[T]{
		nodes:          make([]*Node[T], 0),
		nodeIndices:    make(map[primitives.Root]uint64),
		justifiedEpoch: justifiedEpoch,
		finalizedEpoch: finalizedEpoch,
		sink:           sink,
	}
}

// localIndex converts an arena-global index into a slice offset into
// s.nodes, assuming s.mu is already held by the caller.
func (s *Store[T]) localIndex(global uint64) (int, error) {
	if global < s.indexOffset {
		return 0, errors.Wrap(ErrStaleIndex, "localIndex")
	}
	local := global - s.indexOffset
	if local >= uint64(len(s.nodes)) {
		return 0, errors.Wrap(ErrOutOfRange, "localIndex")
	}
	return int(local), nil
}

// nodeAtGlobal resolves a global arena index to its node, assuming s.mu is
// already held.
func (s *Store[T]) nodeAtGlobal(global uint64) (*Node[T], error) {
	local, err := s.localIndex(global)
	if err != nil {
		return nil, err
	}
	return s.nodes[local], nil
}

// HasBlock reports whether root is currently tracked by the arena.
func (s *Store[T]) HasBlock(root primitives.Root) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodeIndices[root]
	return ok
}

// Len returns the number of currently live nodes in the arena.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Insert adds a new block to the arena. If root is already known, Insert is
// a no-op and returns nil: re-processing the same block is not an error. If
// parentRoot is not known, the node is stored as a root of its own
// (orphaned) rather than rejected — the arena tolerates blocks arriving
// out of parent order.
func (s *Store[T]) Insert(ctx context.Context, slot primitives.Slot, root, parentRoot primitives.Root, justifiedEpoch, finalizedEpoch primitives.Epoch, payload T) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.Insert")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodeIndices[root]; ok {
		return nil
	}

	parentGlobal := NonExistentNode
	if pg, ok := s.nodeIndices[parentRoot]; ok {
		parentGlobal = pg
	}

	global := s.indexOffset + uint64(len(s.nodes))
	node := &Node[T]{
		slot:           slot,
		root:           root,
		payload:        payload,
		parent:         parentGlobal,
		justifiedEpoch: justifiedEpoch,
		finalizedEpoch: finalizedEpoch,
		bestChild:      NonExistentNode,
		bestDescendant: NonExistentNode,
	}
	s.nodes = append(s.nodes, node)
	s.nodeIndices[root] = global
	arenaLiveNodes.Set(float64(len(s.nodes)))

	if parentGlobal != NonExistentNode {
		parentLocal, err := s.localIndex(parentGlobal)
		if err != nil {
			// Parent root resolved but its index is already stale; treat
			// as orphaned rather than failing the insert.
			return nil
		}
		childLocal, err := s.localIndex(global)
		if err != nil {
			return err
		}
		if err := s.updateBestChildAndDescendant(parentLocal, childLocal); err != nil {
			return err
		}
	}
	return nil
}

// leadsToViableHead reports whether node's best descendant (or node itself,
// if it has none) is viable under the arena's current justified/finalized
// epochs. Assumes s.mu is held.
func (s *Store[T]) leadsToViableHead(node *Node[T]) (bool, error) {
	if node.bestDescendant == NonExistentNode {
		return node.viableForHead(s.justifiedEpoch, s.finalizedEpoch), nil
	}
	descendant, err := s.nodeAtGlobal(node.bestDescendant)
	if err != nil {
		return false, err
	}
	return descendant.viableForHead(s.justifiedEpoch, s.finalizedEpoch), nil
}

func (s *Store[T]) setBestChild(parent, child *Node[T], childGlobal uint64) {
	parent.bestChild = childGlobal
	if child.bestDescendant == NonExistentNode {
		parent.bestDescendant = childGlobal
	} else {
		parent.bestDescendant = child.bestDescendant
	}
}

// updateBestChildAndDescendant reconsiders parent's best-child pointer in
// light of one of its children, childLocal, possibly having changed weight
// or viability. Assumes s.mu is held. Both arguments are slice-local
// indices into s.nodes.
func (s *Store[T]) updateBestChildAndDescendant(parentLocal, childLocal int) error {
	parent := s.nodes[parentLocal]
	child := s.nodes[childLocal]
	childGlobal := s.indexOffset + uint64(childLocal)

	childViable, err := s.leadsToViableHead(child)
	if err != nil {
		return err
	}

	if parent.bestChild == NonExistentNode {
		if childViable {
			s.setBestChild(parent, child, childGlobal)
		}
		return nil
	}

	if parent.bestChild == childGlobal {
		if childViable {
			s.setBestChild(parent, child, childGlobal)
		} else {
			parent.bestChild = NonExistentNode
			parent.bestDescendant = NonExistentNode
		}
		return nil
	}

	current, err := s.nodeAtGlobal(parent.bestChild)
	if err != nil {
		return err
	}
	currentViable, err := s.leadsToViableHead(current)
	if err != nil {
		return err
	}

	switch {
	case childViable && !currentViable:
		s.setBestChild(parent, child, childGlobal)
	case childViable && currentViable:
		if child.weight == current.weight {
			if bytes.Compare(child.root[:], current.root[:]) >= 0 {
				s.setBestChild(parent, child, childGlobal)
			}
		} else if child.weight > current.weight {
			s.setBestChild(parent, child, childGlobal)
		}
	}
	return nil
}

// ApplyScoreChanges applies deltas (one entry per currently live node, in
// arena order) to every node's cached weight, propagates each delta to its
// parent's running total, and refreshes every touched best-child/
// best-descendant pointer in a single backward pass. justifiedEpoch and
// finalizedEpoch are latched onto the store so later viability checks (and
// FindHead) use them.
func (s *Store[T]) ApplyScoreChanges(ctx context.Context, deltas []int64, justifiedEpoch, finalizedEpoch primitives.Epoch) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.ApplyScoreChanges")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyScoreChangesLocked(deltas, justifiedEpoch, finalizedEpoch)
}

// applyScoreChangesLocked is ApplyScoreChanges' body, factored out so
// ApplyVotes can compute deltas and apply them inside one critical section
// instead of releasing the lock between the two steps.
func (s *Store[T]) applyScoreChangesLocked(deltas []int64, justifiedEpoch, finalizedEpoch primitives.Epoch) error {
	if len(deltas) != len(s.nodes) {
		return errors.Wrapf(ErrInvalidDeltaLength, "got %d, want %d", len(deltas), len(s.nodes))
	}

	s.justifiedEpoch = justifiedEpoch
	s.finalizedEpoch = finalizedEpoch

	for i := len(s.nodes) - 1; i >= 0; i-- {
		node := s.nodes[i]
		node.weight += deltas[i]

		// Reconsideration of the parent's best-child/best-descendant must
		// run even when deltas[i] is zero: a child can become viable (or
		// stop being viable) purely from the epoch change just above,
		// with no weight change at all.
		if node.parent == NonExistentNode || node.parent < s.indexOffset {
			continue
		}
		parentLocal, err := s.localIndex(node.parent)
		if err != nil {
			return err
		}
		deltas[parentLocal] += deltas[i]
		if err := s.updateBestChildAndDescendant(parentLocal, i); err != nil {
			return err
		}
	}
	return nil
}

// resolveHeadLocked walks from anchorGlobal's cached best descendant (or
// anchorGlobal itself, if it has none), asserts the resolved node is
// viable under the arena's current justified/finalized epochs, and returns
// it. Assumes s.mu is already held (shared or exclusive) by the caller —
// this is the shared body behind both FindHead and Prune, which cannot
// call FindHead directly since Prune already holds the exclusive lock
// FindHead would try to re-acquire.
func (s *Store[T]) resolveHeadLocked(anchorGlobal uint64) (*Node[T], error) {
	anchor, err := s.nodeAtGlobal(anchorGlobal)
	if err != nil {
		return nil, err
	}

	best := anchor
	if anchor.bestDescendant != NonExistentNode {
		best, err = s.nodeAtGlobal(anchor.bestDescendant)
		if err != nil {
			return nil, err
		}
	}
	if !best.viableForHead(s.justifiedEpoch, s.finalizedEpoch) {
		return nil, errors.Wrapf(ErrUnviableHead, "root=%x", best.root)
	}
	return best, nil
}

// FindHead walks from anchorRoot's cached best descendant (or anchorRoot
// itself, if it has none) and returns that node's root. It fails if
// anchorRoot is unknown or if the resolved head is not viable under the
// arena's current justified/finalized epochs. Insert refreshes only the new
// block's parent, so until the next ApplyScoreChanges or ApplyVotes call an
// older ancestor's cached best descendant can lag behind newly inserted
// blocks, and the head returned from it is stale accordingly.
func (s *Store[T]) FindHead(ctx context.Context, anchorRoot primitives.Root) (primitives.Root, error) {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.FindHead")
	defer span.End()
	calledHeadCount.Inc()

	s.mu.RLock()
	defer s.mu.RUnlock()

	anchorGlobal, ok := s.nodeIndices[anchorRoot]
	if !ok {
		return primitives.Root{}, errors.Wrap(ErrUnknownRoot, "FindHead")
	}
	best, err := s.resolveHeadLocked(anchorGlobal)
	if err != nil {
		return primitives.Root{}, err
	}
	return best.root, nil
}

// Prune discards every node strictly older than anchorRoot (that is, every
// node whose global index is less than anchorRoot's), advancing
// index_offset to anchorRoot's index. Each discarded node is reported to
// the configured BlockSink, marked canonical iff its cached best descendant
// is the head computed from anchorRoot. Pruning to the
// current anchor, or to anchorRoot's own position, is a no-op. The head
// used for canonical-marking is resolved the same viability-checked way
// FindHead resolves it: if anchorRoot's best descendant (or anchorRoot
// itself, when it has none) is not viable under the tree's current
// epochs, Prune fails with ErrUnviableHead and leaves the arena
// unchanged, rather than pruning against a stale, not-yet-reconciled
// head.
func (s *Store[T]) Prune(ctx context.Context, anchorRoot primitives.Root) error {
	_, span := trace.StartSpan(ctx, "protoArrayForkChoice.Prune")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	anchorGlobal, ok := s.nodeIndices[anchorRoot]
	if !ok {
		return errors.Wrap(ErrUnknownRoot, "Prune")
	}
	if anchorGlobal < s.indexOffset {
		return errors.Wrap(ErrInvalidPruneRoot, "Prune")
	}
	anchorLocal, err := s.localIndex(anchorGlobal)
	if err != nil {
		return err
	}
	if anchorLocal == 0 {
		return nil
	}

	head, err := s.resolveHeadLocked(anchorGlobal)
	if err != nil {
		return err
	}
	headGlobal := s.nodeIndices[head.root]

	if s.sink != nil {
		for i := 0; i < anchorLocal; i++ {
			node := s.nodes[i]
			// Literal source definition (preserved per the design note):
			// canonical iff this node's cached best_descendant equals the
			// head computed at prune time.
			canonical := node.bestDescendant == headGlobal
			s.sink.OnPruned(node, canonical)
		}
	}
	for i := 0; i < anchorLocal; i++ {
		delete(s.nodeIndices, s.nodes[i].root)
	}

	remaining := make([]*Node[T], len(s.nodes)-anchorLocal)
	copy(remaining, s.nodes[anchorLocal:])
	s.nodes = remaining
	s.indexOffset = anchorGlobal
	arenaLiveNodes.Set(float64(len(s.nodes)))

	return nil
}

// Snapshot returns a read-only dump of every live node, in arena order.
// This is the supplemented introspection feature (§11.5): it exists for
// tests and debugging tools, not for the core algorithms.
func (s *Store[T]) Snapshot() []NodeView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]NodeView, len(s.nodes))
	for i, n := range s.nodes {
		var parentRoot, bestChildRoot, bestDescendantRoot primitives.Root
		if n.parent != NonExistentNode {
			if p, err := s.nodeAtGlobal(n.parent); err == nil {
				parentRoot = p.root
			}
		}
		if n.bestChild != NonExistentNode {
			if c, err := s.nodeAtGlobal(n.bestChild); err == nil {
				bestChildRoot = c.root
			}
		}
		if n.bestDescendant != NonExistentNode {
			if d, err := s.nodeAtGlobal(n.bestDescendant); err == nil {
				bestDescendantRoot = d.root
			}
		}
		views[i] = NodeView{
			Root:               n.root,
			ParentRoot:         parentRoot,
			Slot:               n.slot,
			Weight:             n.weight,
			JustifiedEpoch:     n.justifiedEpoch,
			FinalizedEpoch:     n.finalizedEpoch,
			BestChildRoot:      bestChildRoot,
			BestDescendantRoot: bestDescendantRoot,
		}
	}
	return views
}

// ChainIter is a pull-based, restartable iterator over the canonical chain
// from a head back to an anchor, returned by CanonicalChain.
type ChainIter[T any] struct {
	store        *Store[T]
	anchorGlobal uint64
	current      uint64
	done         bool
}

// CanonicalChain returns an iterator that walks the canonical chain from
// the current head of anchorRoot back to anchorRoot itself, inclusive of
// both endpoints. The chain is not materialized eagerly: each call to
// Next() resolves exactly one node.
func (s *Store[T]) CanonicalChain(ctx context.Context, anchorRoot primitives.Root) (*ChainIter[T], error) {
	head, err := s.FindHead(ctx, anchorRoot)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	anchorGlobal := s.nodeIndices[anchorRoot]
	headGlobal := s.nodeIndices[head]
	s.mu.RUnlock()
	return &ChainIter[T]{store: s, anchorGlobal: anchorGlobal, current: headGlobal}, nil
}

// Next resolves the next node in the chain, walking from head to anchor. It
// returns (nil, false) once the anchor has been yielded or the iterator has
// hit an error (e.g. the chain was pruned out from under it).
func (it *ChainIter[T]) Next() (*BlockNode[T], bool) {
	if it.done {
		return nil, false
	}
	it.store.mu.RLock()
	defer it.store.mu.RUnlock()

	node, err := it.store.nodeAtGlobal(it.current)
	if err != nil {
		it.done = true
		return nil, false
	}
	result := &BlockNode[T]{Slot: node.slot, Root: node.root, Payload: node.payload}

	if it.current == it.anchorGlobal || node.parent == NonExistentNode || node.parent < it.store.indexOffset {
		it.done = true
	} else {
		it.current = node.parent
	}
	return result, true
}
