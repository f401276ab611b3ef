// Package types defines the small value types shared between the
// fork-choice engine and its callers, distinct from the arena-internal
// protoarray package.
package types

import "github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"

// Checkpoint is an (epoch, root) pair: the FFG justified or finalized
// checkpoint a fork-choice instance is currently tracking.
type Checkpoint struct {
	Epoch primitives.Epoch
	Root  primitives.Root
}
