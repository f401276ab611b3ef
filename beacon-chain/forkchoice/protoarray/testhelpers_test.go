package protoarray

import (
	"encoding/binary"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// indexToHash deterministically derives a root from a small integer, the
// way beacon-chain/forkchoice/protoarray/*_test.go fixtures in the
// retrieval pack build readable test roots.
func indexToHash(i uint64) primitives.Root {
	var r primitives.Root
	binary.LittleEndian.PutUint64(r[:8], i+1)
	return r
}
