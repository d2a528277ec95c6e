package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testLoader(home, work, explicit string) *ConfigLoader {
	return &ConfigLoader{homeDir: home, workDir: work, configPath: explicit}
}

func TestLoadFileConfig_NoFiles(t *testing.T) {
	cfg, path, err := testLoader(t.TempDir(), t.TempDir(), "").LoadFileConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, cfg.IsEmpty())
}

func TestLoadFileConfig_MergesByPriority(t *testing.T) {
	home, work := t.TempDir(), t.TempDir()
	explicit := filepath.Join(t.TempDir(), "custom.toml")

	writeFile(t, filepath.Join(home, FileName), `
sidecar_url = "http://home:8080"
node_ws = "ws://home:9944"
max_attempts = 5
`)
	writeFile(t, filepath.Join(work, FileName), `
node_ws = "ws://work:9944"
l1 = "Arbitrum"
`)
	writeFile(t, explicit, `
max_attempts = 7
`)

	cfg, path, err := testLoader(home, work, explicit).LoadFileConfig()
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
	assert.Equal(t, "http://home:8080", *cfg.SidecarURL)
	assert.Equal(t, "ws://work:9944", *cfg.NodeWS)
	assert.Equal(t, "Arbitrum", *cfg.L1)
	assert.Equal(t, 7, *cfg.MaxAttempts)
}

func TestLoadFileConfig_Errors(t *testing.T) {
	home := t.TempDir()

	_, _, err := testLoader(home, home, filepath.Join(home, "missing.toml")).LoadFileConfig()
	assert.ErrorContains(t, err, "config file not found")

	writeFile(t, filepath.Join(home, FileName), `l1 = "Solana"`)
	_, _, err = testLoader(home, home, "").LoadFileConfig()
	assert.ErrorContains(t, err, "invalid l1")

	writeFile(t, filepath.Join(home, FileName), `seal_interval = "soon"`)
	_, _, err = testLoader(home, home, "").LoadFileConfig()
	assert.ErrorContains(t, err, "invalid seal_interval")

	writeFile(t, filepath.Join(home, FileName), `sidecar_url = `)
	_, _, err = testLoader(home, home, "").LoadFileConfig()
	assert.ErrorContains(t, err, "failed to parse")
}

func TestLoad_PriorityChain(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, FileName), `
sidecar_url = "http://file:8080"
request_timeout = "10s"
key_store = "redis"
`)

	env := map[string]string{
		EnvSidecarURL:   "http://env:8080",
		EnvMaxAttempts:  "3",
		EnvSim:          "true",
		EnvSealInterval: "250ms",
		EnvNoColor:      "1",
		EnvSudo:         "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg, err := testLoader(home, home, "").Load(lookup)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://env:8080", cfg.SidecarURL.Value)
	assert.Equal(t, SourceEnvironment, cfg.SidecarURL.Source)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout.Value)
	assert.Equal(t, SourceConfigFile, cfg.RequestTimeout.Source)
	assert.Equal(t, "redis", cfg.KeyStore.Value)
	assert.Equal(t, 3, cfg.MaxAttempts.Value)
	assert.True(t, cfg.Sim.Value)
	assert.True(t, cfg.NoColor.Value)
	assert.Equal(t, 250*time.Millisecond, cfg.SealInterval.Value)
	// Empty variables do not override.
	assert.Equal(t, DefaultSudo, cfg.Sudo.Value)
	assert.Equal(t, SourceDefault, cfg.Sudo.Source)
	assert.Equal(t, SourceDefault, cfg.NodeWS.Source)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for key, raw := range map[string]string{
		EnvMaxAttempts:    "many",
		EnvVerbose:        "loud",
		EnvRequestTimeout: "forever",
	} {
		cfg := NewEffectiveConfig(t.TempDir())
		err := cfg.ApplyEnv(func(k string) (string, bool) {
			if k == key {
				return raw, true
			}
			return "", false
		})
		assert.ErrorContains(t, err, key)
	}
}

func TestApplyFlags_OnlyChanged(t *testing.T) {
	var f Flags
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&f.SidecarURL, "sidecar", DefaultSidecarURL, "")
	cmd.Flags().StringVar(&f.NodeWS, "node-ws", DefaultNodeWS, "")
	cmd.Flags().BoolVar(&f.Verbose, "verbose", false, "")
	cmd.Flags().DurationVar(&f.SealInterval, "seal-interval", 0, "")
	require.NoError(t, cmd.ParseFlags([]string{"--sidecar", "https://flag:443", "--verbose", "--seal-interval", "2s"}))

	cfg := NewEffectiveConfig(t.TempDir())
	nodeWS := "ws://file:9944"
	require.NoError(t, cfg.ApplyFile(&FileConfig{NodeWS: &nodeWS}, "config.toml"))
	cfg.ApplyFlags(cmd, &f)

	assert.Equal(t, "https://flag:443", cfg.SidecarURL.Value)
	assert.Equal(t, SourceFlag, cfg.SidecarURL.Source)
	assert.True(t, cfg.Verbose.Value)
	assert.Equal(t, 2*time.Second, cfg.SealInterval.Value)
	assert.Equal(t, "ws://file:9944", cfg.NodeWS.Value)
	assert.Equal(t, SourceConfigFile, cfg.NodeWS.Source)
	// Flags that are not registered are skipped.
	assert.Equal(t, SourceDefault, cfg.Sudo.Source)
}

func TestEffectiveConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *EffectiveConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*EffectiveConfig) {}},
		{name: "bad sidecar scheme", mutate: func(c *EffectiveConfig) { c.SidecarURL.Value = "ws://x:1" }, wantErr: "sidecar_url"},
		{name: "sim skips node urls", mutate: func(c *EffectiveConfig) { c.Sim.Value = true; c.NodeWS.Value = "nope" }},
		{name: "bad l1", mutate: func(c *EffectiveConfig) { c.L1.Value = "Base" }, wantErr: "invalid l1"},
		{name: "empty sudo", mutate: func(c *EffectiveConfig) { c.Sudo.Value = "" }, wantErr: "invalid sudo"},
		{name: "zero timeout", mutate: func(c *EffectiveConfig) { c.RequestTimeout.Value = 0 }, wantErr: "request_timeout"},
		{name: "attempts", mutate: func(c *EffectiveConfig) { c.MaxAttempts.Value = 0 }, wantErr: "max_attempts"},
		{name: "key store", mutate: func(c *EffectiveConfig) { c.KeyStore.Value = "vault" }, wantErr: "key_store"},
		{name: "redis url", mutate: func(c *EffectiveConfig) { c.KeyStore.Value = "redis"; c.RedisURL.Value = "http://x" }, wantErr: "redis_url"},
		{name: "negative seal", mutate: func(c *EffectiveConfig) { c.SealInterval.Value = -time.Second }, wantErr: "seal_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewEffectiveConfig("/tmp/home")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfigWriter_RoundTrip(t *testing.T) {
	home := t.TempDir()
	w := NewConfigWriter(home)
	assert.False(t, w.Exists())

	setup := NewInteractiveSetup(home)
	cfg := setup.RunWithDefaults()
	redis := "redis://cache:6379/1"
	cfg.RedisURL = &redis
	require.NoError(t, setup.WriteConfig(cfg))
	assert.True(t, w.Exists())
	assert.True(t, setup.ConfigExists())

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `# verbose = false`)
	assert.Contains(t, string(data), `redis_url = "redis://cache:6379/1"`)

	loaded, _, err := testLoader(home, home, "").LoadFileConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultSidecarURL, *loaded.SidecarURL)
	assert.Equal(t, redis, *loaded.RedisURL)
	assert.Nil(t, loaded.Verbose)
}

func TestToTable_MasksSeed(t *testing.T) {
	cfg := NewEffectiveConfig("/tmp/home")
	cfg.Sudo = Value[string]{Value: "0x" + strings.Repeat("ab", 32), Source: SourceFlag}

	var out bytes.Buffer
	cfg.ToTable(&out)
	assert.Contains(t, out.String(), "0xabab****abab")
	assert.Contains(t, out.String(), "flag")
	assert.NotContains(t, out.String(), strings.Repeat("ab", 32))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "E2E_TEST_DOTENV_KEY=from-dotenv\n")
	t.Setenv("E2E_TEST_DOTENV_KEY", "")
	require.NoError(t, os.Unsetenv("E2E_TEST_DOTENV_KEY"))

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "from-dotenv", os.Getenv("E2E_TEST_DOTENV_KEY"))
}
