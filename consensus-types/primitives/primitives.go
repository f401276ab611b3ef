// Package primitives defines the small scalar types shared across the
// fork-choice engine: slots, epochs, and balance units. They are distinct
// types rather than bare uint64 so that a slot can never be passed where
// an epoch is expected by the compiler.
package primitives

// Slot is a monotonically increasing time unit of the chain.
type Slot uint64

// Epoch groups a contiguous run of slots.
type Epoch uint64

// Gwei is a validator balance or weight unit.
type Gwei uint64

// Root is a 32-byte block identifier, totally ordered by unsigned bytewise
// comparison.
type Root [32]byte

// ZeroRoot is the sentinel "no block" root, used by vote trackers before a
// validator has attested to anything.
var ZeroRoot = Root{}
