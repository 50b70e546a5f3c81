package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baseddev11/basedRewarder/config"
	"github.com/baseddev11/basedRewarder/crypto"
	"github.com/baseddev11/basedRewarder/native/rewarder"
)

func testAddress(b byte) string {
	raw := make([]byte, 20)
	raw[19] = b
	return crypto.NewAddress(crypto.BSDPrefix, raw).String()
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8645", cfg.ListenRPC)
	require.Equal(t, "memory", cfg.DB.Backend)
	require.Equal(t, 120, cfg.RPC.RateLimitPerMin)

	threshold, err := cfg.ActivationThreshold()
	require.NoError(t, err)
	require.Equal(t, "10", threshold.String())

	mode, err := cfg.ClaimKeyMode()
	require.NoError(t, err)
	require.Equal(t, rewarder.ClaimKeyIdentity, mode)
}

func TestLoadOverridesFromFile(t *testing.T) {
	admin := testAddress(0x01)
	signer := testAddress(0x02)
	path := writeConfig(t, fmt.Sprintf(`
ListenRPC = ":9999"

[DB]
Backend = "bolt"
Path = "/var/lib/basedd/state.db"

[Referral]
CollateralToken = "based"
ActivationThreshold = "2500"

[Rewarder]
RewardToken = "BASED"
ClaimKey = "address"
OracleSigner = %q
AttestationTTLSeconds = 300

[Genesis]
Admins = [%q]
`, signer, admin))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.ListenRPC)
	require.Equal(t, "bolt", cfg.DB.Backend)
	require.Equal(t, signer, cfg.Rewarder.OracleSigner)
	require.Equal(t, []string{admin}, cfg.Genesis.Admins)

	mode, err := cfg.ClaimKeyMode()
	require.NoError(t, err)
	require.Equal(t, rewarder.ClaimKeyAddress, mode)

	threshold, err := cfg.ActivationThreshold()
	require.NoError(t, err)
	require.Equal(t, "2500", threshold.String())
}

func TestLoadAcceptsKnownPausedModules(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `PausedModules = ["referral", "Rewarder"]`))
	require.NoError(t, err)
	require.Equal(t, []string{"referral", "Rewarder"}, cfg.PausedModules)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown backend": `
[DB]
Backend = "postgres"
`,
		"persistent backend without path": `
[DB]
Backend = "leveldb"
`,
		"malformed threshold": `
[Referral]
ActivationThreshold = "lots"
`,
		"unknown claim key": `
[Rewarder]
ClaimKey = "nft"
`,
		"negative ttl": `
[Rewarder]
AttestationTTLSeconds = -1
`,
		"malformed oracle signer": `
[Rewarder]
OracleSigner = "0xdeadbeef"
`,
		"unknown paused module": `
PausedModules = ["lending"]
`,
		"malformed genesis admin": `
[Genesis]
Admins = ["not-bech32"]
`,
		"malformed genesis amount": `
[Genesis]
Balances = [{Address = "` + testAddress(0x03) + `", Token = "BASED", Amount = "1.5"}]
`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, contents))
			require.Error(t, err)
		})
	}
}
