// Package params exposes chain-wide configuration, chiefly SLOTS_PER_EPOCH
// and the EpochOf slot-to-epoch helper. The fork-choice engine packages
// (beacon-chain/forkchoice, beacon-chain/forkchoice/protoarray) do not read
// it: they take epochs as arguments and are constructed without any
// configuration. BeaconChainConfig gives the host layer
// (beacon-chain/blockchain) and tests a realistic network config to load,
// in the shape of Prysm's beacon-chain/params package.
package params

import (
	"sync"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// BeaconChainConfig holds chain-wide constants. The fork-choice engine
// itself reads none of them; they are ambient configuration for a host
// node.
type BeaconChainConfig struct {
	SlotsPerEpoch primitives.Slot
	SecondsPerSlot uint64
	GenesisEpoch  primitives.Epoch
}

// EpochOf converts a slot to the epoch it belongs to using this config's
// SlotsPerEpoch. This is the "Clock/Epoch helper" collaborator from §6 of
// the specification.
func (c *BeaconChainConfig) EpochOf(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(uint64(slot) / uint64(c.SlotsPerEpoch))
}

func mainnetConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SlotsPerEpoch:  32,
		SecondsPerSlot: 12,
		GenesisEpoch:   0,
	}
}

var (
	beaconConfig     = mainnetConfig()
	beaconConfigLock sync.RWMutex
)

// BeaconConfig returns the currently active chain configuration.
func BeaconConfig() *BeaconChainConfig {
	beaconConfigLock.RLock()
	defer beaconConfigLock.RUnlock()
	return beaconConfig
}

// OverrideBeaconConfig replaces the active configuration. Intended for test
// setup and for hosts that load a network config file at boot.
func OverrideBeaconConfig(cfg *BeaconChainConfig) {
	beaconConfigLock.Lock()
	defer beaconConfigLock.Unlock()
	beaconConfig = cfg
}

// UseMainnetConfig resets the active configuration to mainnet defaults.
func UseMainnetConfig() {
	OverrideBeaconConfig(mainnetConfig())
}

// UseMinimalConfig installs the reduced constants used by spec tests and
// local testnets, where SLOTS_PER_EPOCH is small enough to exercise epoch
// boundaries without constructing thousands of blocks.
func UseMinimalConfig() {
	OverrideBeaconConfig(&BeaconChainConfig{
		SlotsPerEpoch:  8,
		SecondsPerSlot: 6,
		GenesisEpoch:   0,
	})
}
