package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2-clients/forkchoice-engine/consensus-types/primitives"
)

func TestBeaconConfig_MainnetDefault(t *testing.T) {
	UseMainnetConfig()
	require.Equal(t, primitives.Slot(32), BeaconConfig().SlotsPerEpoch)
}

func TestEpochOf(t *testing.T) {
	UseMainnetConfig()
	cfg := BeaconConfig()
	require.Equal(t, primitives.Epoch(0), cfg.EpochOf(0))
	require.Equal(t, primitives.Epoch(0), cfg.EpochOf(31))
	require.Equal(t, primitives.Epoch(1), cfg.EpochOf(32))
}

func TestUseMinimalConfig(t *testing.T) {
	UseMinimalConfig()
	defer UseMainnetConfig()
	require.Equal(t, primitives.Slot(8), BeaconConfig().SlotsPerEpoch)
}

func TestLoadChainConfigFile_OverridesOnlyPresentFields(t *testing.T) {
	UseMainnetConfig()
	defer UseMainnetConfig()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("SLOTS_PER_EPOCH: 16\n"), 0o644))

	require.NoError(t, LoadChainConfigFile(path))
	cfg := BeaconConfig()
	require.Equal(t, primitives.Slot(16), cfg.SlotsPerEpoch)
	require.Equal(t, uint64(12), cfg.SecondsPerSlot)
}

func TestLoadChainConfigFile_MissingFile(t *testing.T) {
	require.Error(t, LoadChainConfigFile("/nonexistent/path/config.yaml"))
}
