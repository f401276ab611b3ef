package protoarray

import "github.com/pkg/errors"

// Error kinds from §7 of the specification. These are sentinel values so
// callers can compare with errors.Is after a Wrap.
var (
	// ErrUnknownRoot is returned by any lookup, prune, or head query for a
	// root that is not currently tracked by the arena.
	ErrUnknownRoot = errors.New("unknown root")

	// ErrStaleIndex is returned when an arena index refers to a node that
	// has already been pruned away.
	ErrStaleIndex = errors.New("index is below the current arena offset")

	// ErrOutOfRange is returned when an arena index is beyond the live
	// range of the arena.
	ErrOutOfRange = errors.New("index is out of the live arena range")

	// ErrInvalidDeltaLength is a PreconditionViolated error: the caller
	// passed a delta slice whose length does not match the arena length.
	ErrInvalidDeltaLength = errors.New("delta slice length does not match arena length")

	// ErrInvalidPruneRoot is a PreconditionViolated error: prune was asked
	// to move the anchor backwards.
	ErrInvalidPruneRoot = errors.New("cannot prune to an index below the current arena offset")

	// ErrUnviableHead is returned when the computed head (or the node
	// find_head was asked to start from) fails the viability predicate.
	ErrUnviableHead = errors.New("head is not viable under the current justified/finalized epochs")
)
