package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/b-harvest/gasp-e2e/internal/paths"
)

// ConfigWriter handles writing configuration to homeDir/config.toml.
type ConfigWriter struct {
	homeDir string
}

// NewConfigWriter creates a new ConfigWriter for the given home directory.
func NewConfigWriter(homeDir string) *ConfigWriter {
	return &ConfigWriter{
		homeDir: homeDir,
	}
}

// Path returns the full path to config.toml in homeDir.
func (w *ConfigWriter) Path() string {
	return paths.ConfigPath(w.homeDir)
}

// Exists returns true if config.toml already exists in homeDir.
func (w *ConfigWriter) Exists() bool {
	return paths.IsFile(w.Path())
}

// Write saves the FileConfig to homeDir/config.toml.
// Creates homeDir if it doesn't exist.
func (w *ConfigWriter) Write(cfg *FileConfig) error {
	if err := os.MkdirAll(w.homeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.homeDir, err)
	}

	// 0600: sudo may hold a raw seed.
	if err := os.WriteFile(w.Path(), []byte(w.render(cfg)), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// render produces TOML with every known key, commenting out the unset ones
// with their default.
func (w *ConfigWriter) render(cfg *FileConfig) string {
	var b strings.Builder

	b.WriteString("# gasp-e2e configuration file\n")
	b.WriteString("# Priority: default < config.toml < environment < CLI flag\n")
	b.WriteString("#\n")
	fmt.Fprintf(&b, "# Location: %s\n", w.Path())
	b.WriteString("# Override with: --config /path/to/config.toml\n")

	section(&b, "Global Settings")
	str(&b, "home", cfg.Home, w.homeDir)
	boolean(&b, "verbose", cfg.Verbose)
	boolean(&b, "json", cfg.JSON)
	boolean(&b, "no_color", cfg.NoColor)
	boolean(&b, "log_file", cfg.LogFile)

	section(&b, "Chain Connection")
	str(&b, "sidecar_url", cfg.SidecarURL, DefaultSidecarURL)
	str(&b, "node_ws", cfg.NodeWS, DefaultNodeWS)
	str(&b, "l1_rpc", cfg.L1RPC, DefaultL1RPC)
	str(&b, "l1", cfg.L1, DefaultL1)
	str(&b, "sudo", cfg.Sudo, DefaultSudo)
	str(&b, "request_timeout", cfg.RequestTimeout, DefaultRequestTimeout.String())
	if cfg.MaxAttempts != nil {
		fmt.Fprintf(&b, "max_attempts = %d\n", *cfg.MaxAttempts)
	} else {
		fmt.Fprintf(&b, "# max_attempts = %d\n", DefaultMaxAttempts)
	}

	section(&b, "Key Storage")
	str(&b, "key_store", cfg.KeyStore, DefaultKeyStore)
	str(&b, "redis_url", cfg.RedisURL, DefaultRedisURL)

	section(&b, "In-Process Dev Chain")
	boolean(&b, "sim", cfg.Sim)
	str(&b, "seal_interval", cfg.SealInterval, "0s")

	return b.String()
}

func section(b *strings.Builder, title string) {
	rule := strings.Repeat("=", 77)
	fmt.Fprintf(b, "\n# %s\n# %s\n# %s\n\n", rule, title, rule)
}

func str(b *strings.Builder, key string, v *string, def string) {
	if v != nil {
		fmt.Fprintf(b, "%s = %q\n", key, *v)
		return
	}
	fmt.Fprintf(b, "# %s = %q\n", key, def)
}

func boolean(b *strings.Builder, key string, v *bool) {
	if v != nil && *v {
		fmt.Fprintf(b, "%s = true\n", key)
		return
	}
	fmt.Fprintf(b, "# %s = false\n", key)
}
