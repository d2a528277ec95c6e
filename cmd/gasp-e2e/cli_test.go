package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b-harvest/gasp-e2e/internal/domain/chain"
	"github.com/b-harvest/gasp-e2e/internal/infrastructure/keyring"
)

// runCLI executes the root command against a dev chain in home.
func runCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--sim", "--no-color", "--home", home}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v
}

func addressOf(t *testing.T, uri string) chain.Address {
	t.Helper()
	kp, err := keyring.FromURI(uri)
	require.NoError(t, err)
	return kp.Address()
}

func TestCLI_Version(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	out, _, err = runCLI(t, t.TempDir(), "version", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)), out)
}

func TestCLI_Balance(t *testing.T) {
	home := t.TempDir()

	out, _, err := runCLI(t, home, "balance", "//Alice", "--json")
	require.NoError(t, err)
	report := decode[BalanceReport](t, out)
	assert.Equal(t, addressOf(t, "//Alice"), report.Account)
	require.Len(t, report.Balances, 1)
	assert.Equal(t, simSudoEndowment.String(), report.Balances[0].Free)
	assert.Equal(t, "0", report.Balances[0].Reserved)

	out, _, err = runCLI(t, home, "balance", "//Alice", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "CURRENCY")
	assert.Contains(t, out, simSudoEndowment.String())
}

func TestCLI_Mint(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "mint", "0", "//Bob", "1_000", "--json")
	require.NoError(t, err)

	res := decode[MintResult](t, out)
	assert.Equal(t, chain.NativeCurrency, res.Currency)
	assert.Equal(t, addressOf(t, "//Bob"), res.Account)
	assert.Equal(t, "0", res.Before)
	assert.Equal(t, "1000", res.After)
}

func TestCLI_MintInvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad currency", []string{"mint", "abc", "//Bob", "1"}},
		{"bad amount", []string{"mint", "0", "//Bob", "1.5"}},
		{"unknown currency", []string{"mint", "42", "//Bob", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := runCLI(t, t.TempDir(), tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, errAlreadyReported)
			assert.NotEmpty(t, stderr)
		})
	}
}

func TestCLI_PoolCreateWithNewToken(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "pool", "create", "0", "1000", "new", "5000", "--fund", "--json")
	require.NoError(t, err)

	res := decode[PoolResult](t, out)
	assert.Equal(t, addressOf(t, "//Alice"), res.User)
	assert.Equal(t, chain.NativeCurrency, res.First)
	assert.False(t, res.Second.Equal(res.First))
	require.Len(t, res.Changes, 2)

	spent := map[string]string{"0": "1000", res.Second.String(): "5000"}
	for _, c := range res.Changes {
		before, ok := math.NewIntFromString(c.Before)
		require.True(t, ok)
		after, ok := math.NewIntFromString(c.After)
		require.True(t, ok)
		assert.Equal(t, spent[c.Currency.String()], before.Sub(after).String(), "currency %s", c.Currency)
	}
}

func TestCLI_PoolMultiswapWithoutPools(t *testing.T) {
	_, stderr, err := runCLI(t, t.TempDir(), "pool", "multiswap", "1000", "0", "4", "--fund", "--json")
	assert.ErrorIs(t, err, errAlreadyReported)
	assert.Contains(t, stderr, "NoSuchPool")

	_, _, err = runCLI(t, t.TempDir(), "pool", "multiswap", "1000", "0")
	assert.Error(t, err)
}

func TestCLI_WaitBlocks(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "wait", "blocks", "2", "--json")
	require.NoError(t, err)

	res := decode[WaitResult](t, out)
	assert.Equal(t, WaitResult{From: 0, To: 2}, res)

	_, _, err = runCLI(t, t.TempDir(), "wait", "blocks", "x")
	assert.ErrorIs(t, err, errAlreadyReported)
}

func TestCLI_BootstrapPhase(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "bootstrap", "phase", "--json")
	require.NoError(t, err)

	res := decode[PhaseResult](t, out)
	assert.Equal(t, "BeforeStart", string(res.Phase))
	assert.False(t, res.Promote)
}

func TestCLI_RolldownStatus(t *testing.T) {
	out, _, err := runCLI(t, t.TempDir(), "rolldown", "status", "--json")
	require.NoError(t, err)

	res := decode[RolldownStatus](t, out)
	assert.Equal(t, "Ethereum", res.L1)
	assert.Zero(t, res.LastProcessedL1)
}

func TestCLI_Keys(t *testing.T) {
	home := t.TempDir()

	out, _, err := runCLI(t, home, "keys", "export", "//testUser_ci", "--password", "pw", "--json")
	require.NoError(t, err)
	info := decode[KeyInfo](t, out)
	assert.Equal(t, addressOf(t, "//testUser_ci"), info.Address)
	assert.Equal(t, "file", info.Store)

	out, _, err = runCLI(t, home, "keys", "list", "--json")
	require.NoError(t, err)
	infos := decode[[]KeyInfo](t, out)
	require.Len(t, infos, 1)
	assert.Equal(t, info.Address, infos[0].Address)

	_, _, err = runCLI(t, home, "keys", "import", string(info.Address), "--password", "pw")
	require.NoError(t, err)

	_, _, err = runCLI(t, home, "keys", "import", string(info.Address), "--password", "wrong")
	assert.ErrorIs(t, err, errAlreadyReported)

	_, _, err = runCLI(t, home, "keys", "delete", string(info.Address), "-y")
	require.NoError(t, err)

	out, _, err = runCLI(t, home, "keys", "list", "--json")
	require.NoError(t, err)
	assert.Empty(t, decode[[]KeyInfo](t, out))
}

func TestCLI_Config(t *testing.T) {
	home := t.TempDir()

	out, _, err := runCLI(t, home, "config", "show", "--json")
	require.NoError(t, err)
	entries := decode[map[string]ConfigEntry](t, out)
	assert.Equal(t, true, entries["sim"].Value)
	assert.Equal(t, "flag", entries["sim"].Source)
	assert.Equal(t, "default", entries["sidecar_url"].Source)

	_, _, err = runCLI(t, home, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, "config.toml"))

	_, _, err = runCLI(t, home, "config", "init")
	assert.ErrorIs(t, err, errAlreadyReported)

	_, _, err = runCLI(t, home, "config", "init", "--force")
	require.NoError(t, err)

	out, _, err = runCLI(t, home, "config", "show", "--json")
	require.NoError(t, err)
	entries = decode[map[string]ConfigEntry](t, out)
	assert.Equal(t, "config.toml", entries["sidecar_url"].Source)
}

func TestCLI_Logs(t *testing.T) {
	home := t.TempDir()

	_, _, err := runCLI(t, home, "logs")
	assert.ErrorIs(t, err, errAlreadyReported)

	_, _, err = runCLI(t, home, "balance", "//Alice", "--log-file")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, "logs", "gasp-e2e.log"))
	require.NoError(t, err)

	out, _, err := runCLI(t, home, "logs", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "CURRENCY")
}

func TestCLI_MenuRequiresTerminal(t *testing.T) {
	_, stderr, err := runCLI(t, t.TempDir(), "menu")
	assert.ErrorIs(t, err, errAlreadyReported)
	assert.Contains(t, stderr, "not a terminal")
}
