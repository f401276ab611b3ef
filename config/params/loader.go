package params

import (
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

// configYAML mirrors the subset of a network config file this engine
// cares about. Real Prysm config files carry dozens of additional fields
// (fork versions, deposit contract address, gossip parameters); this repo
// only loads what the fork-choice engine and its host consume.
type configYAML struct {
	SlotsPerEpoch  uint64 `json:"SLOTS_PER_EPOCH"`
	SecondsPerSlot uint64 `json:"SECONDS_PER_SLOT"`
}

// LoadChainConfigFile reads a yaml network config file (in the style of
// Prysm's --chain-config-file flag) and overrides the active
// BeaconChainConfig with its contents. Fields absent from the file keep
// their mainnet default.
func LoadChainConfigFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "could not read chain config file")
	}
	parsed := configYAML{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return errors.Wrap(err, "could not parse chain config file")
	}
	cfg := mainnetConfig()
	if parsed.SlotsPerEpoch != 0 {
		cfg.SlotsPerEpoch = primitives.Slot(parsed.SlotsPerEpoch)
	}
	if parsed.SecondsPerSlot != 0 {
		cfg.SecondsPerSlot = parsed.SecondsPerSlot
	}
	OverrideBeaconConfig(cfg)
	return nil
}
