package netconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/tada/internal/netconfig"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultProfiles(t *testing.T) {
	t.Parallel()

	cfg := netconfig.Default()
	require.Equal(t, []string{"hardhat", "mainnet", "mumbai"}, cfg.Names())

	n, err := cfg.Resolve("hardhat", env(nil))
	require.NoError(t, err)
	require.Equal(t, 1337, n.ChainID)
	require.Empty(t, n.URL)
}

func TestResolveExpandsVariables(t *testing.T) {
	t.Parallel()

	n, err := netconfig.Default().Resolve("mumbai", env(map[string]string{
		"TESTNET_NODE_RPC_URL": "https://polygon-mumbai.example/v3",
		"INFURA_API_KEY":       "abc123",
		"WALLET_PRIVATE_KEY":   "0xdeadbeef",
	}))
	require.NoError(t, err)
	want := netconfig.Network{
		URL:      "https://polygon-mumbai.example/v3/abc123",
		Accounts: []string{"0xdeadbeef"},
	}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Fatalf("resolved network mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveReportsUnsetVariables(t *testing.T) {
	t.Parallel()

	_, err := netconfig.Default().Resolve("mainnet", env(map[string]string{"INFURA_API_KEY": "k"}))
	require.ErrorIs(t, err, netconfig.ErrUnsetVariable)
	require.Contains(t, err.Error(), "MAINNET_NODE_RPC_URL")
	require.Contains(t, err.Error(), "WALLET_PRIVATE_KEY")

	_, err = netconfig.Default().Resolve("ropsten", env(nil))
	require.ErrorIs(t, err, netconfig.ErrUnknownNetwork)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "networks.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
compiler: 0.8.20
networks:
  local:
    chainId: 31337
  sepolia:
    url: https://rpc.example/${KEY}
    accounts: ["${PK}"]
`), 0o644))

	cfg, err := netconfig.Load(p)
	require.NoError(t, err)
	require.Equal(t, "0.8.20", cfg.Compiler)
	require.Equal(t, []string{"local", "sepolia"}, cfg.Names())
	require.Equal(t, 31337, cfg.Networks["local"].ChainID)

	n, err := cfg.Resolve("sepolia", env(map[string]string{"KEY": "k1", "PK": "p1"}))
	require.NoError(t, err)
	require.Equal(t, "https://rpc.example/k1", n.URL)

	_, err = netconfig.Parse([]byte("compiler: 1\n"))
	require.Error(t, err)
}

func TestMask(t *testing.T) {
	t.Parallel()

	require.Equal(t, "******beef", netconfig.Mask("0xdeadbeef"))
	require.Equal(t, "***", netconfig.Mask("abc"))
	require.Equal(t, "", netconfig.Mask(""))
}
