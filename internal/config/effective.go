package config

import (
	"fmt"
	"io"
	"net/url"
	"text/tabwriter"
	"time"
)

// Defaults for a local node with the sidecar and anvil on their usual ports.
const (
	DefaultSidecarURL     = "http://127.0.0.1:8080"
	DefaultNodeWS         = "ws://127.0.0.1:9944"
	DefaultL1RPC          = "http://127.0.0.1:8545"
	DefaultL1             = "Ethereum"
	DefaultSudo           = "//Alice"
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxAttempts    = 20
	DefaultKeyStore       = "file"
	DefaultRedisURL       = "redis://127.0.0.1:6379/0"
)

// EffectiveConfig represents the final merged configuration after applying priority chain.
type EffectiveConfig struct {
	// Global settings
	Home    StringValue
	NoColor BoolValue
	Verbose BoolValue
	JSON    BoolValue
	LogFile BoolValue

	// Chain connection
	SidecarURL     StringValue
	NodeWS         StringValue
	L1RPC          StringValue
	L1             StringValue
	Sudo           StringValue
	RequestTimeout DurationValue
	MaxAttempts    IntValue

	// Key storage
	KeyStore StringValue
	RedisURL StringValue

	// In-process dev chain
	Sim          BoolValue
	SealInterval DurationValue

	// Metadata
	ConfigFilePath string // Path to loaded config file (empty if none)
}

// NewEffectiveConfig creates a new EffectiveConfig with default values.
func NewEffectiveConfig(defaultHomeDir string) *EffectiveConfig {
	return &EffectiveConfig{
		Home:           Default(defaultHomeDir),
		NoColor:        Default(false),
		Verbose:        Default(false),
		JSON:           Default(false),
		LogFile:        Default(false),
		SidecarURL:     Default(DefaultSidecarURL),
		NodeWS:         Default(DefaultNodeWS),
		L1RPC:          Default(DefaultL1RPC),
		L1:             Default(DefaultL1),
		Sudo:           Default(DefaultSudo),
		RequestTimeout: Default(DefaultRequestTimeout),
		MaxAttempts:    Default(DefaultMaxAttempts),
		KeyStore:       Default(DefaultKeyStore),
		RedisURL:       Default(DefaultRedisURL),
		Sim:            Default(false),
		SealInterval:   Default(time.Duration(0)),
	}
}

// ApplyFile overlays the values set in f.
func (c *EffectiveConfig) ApplyFile(f *FileConfig, path string) error {
	if f == nil {
		return nil
	}
	c.ConfigFilePath = path
	c.Home.set(f.Home, SourceConfigFile)
	c.NoColor.set(f.NoColor, SourceConfigFile)
	c.Verbose.set(f.Verbose, SourceConfigFile)
	c.JSON.set(f.JSON, SourceConfigFile)
	c.LogFile.set(f.LogFile, SourceConfigFile)
	c.SidecarURL.set(f.SidecarURL, SourceConfigFile)
	c.NodeWS.set(f.NodeWS, SourceConfigFile)
	c.L1RPC.set(f.L1RPC, SourceConfigFile)
	c.L1.set(f.L1, SourceConfigFile)
	c.Sudo.set(f.Sudo, SourceConfigFile)
	c.MaxAttempts.set(f.MaxAttempts, SourceConfigFile)
	c.KeyStore.set(f.KeyStore, SourceConfigFile)
	c.RedisURL.set(f.RedisURL, SourceConfigFile)
	c.Sim.set(f.Sim, SourceConfigFile)

	if err := setDuration(&c.RequestTimeout, f.RequestTimeout, "request_timeout", SourceConfigFile); err != nil {
		return err
	}
	return setDuration(&c.SealInterval, f.SealInterval, "seal_interval", SourceConfigFile)
}

func setDuration(v *DurationValue, raw *string, key string, source ConfigSource) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, *raw, err)
	}
	v.set(&d, source)
	return nil
}

// Validate validates the EffectiveConfig values against allowed ranges and types.
func (c *EffectiveConfig) Validate() error {
	if !c.Sim.Value {
		if err := validateURL("sidecar_url", c.SidecarURL.Value, "http", "https"); err != nil {
			return err
		}
		if err := validateURL("node_ws", c.NodeWS.Value, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.L1RPC.Value != "" {
		if err := validateURL("l1_rpc", c.L1RPC.Value, "http", "https", "ws", "wss"); err != nil {
			return err
		}
	}
	if err := validateL1(c.L1.Value); err != nil {
		return err
	}
	if c.Sudo.Value == "" {
		return fmt.Errorf("invalid sudo: must not be empty")
	}
	if c.RequestTimeout.Value <= 0 {
		return fmt.Errorf("invalid request_timeout: %s (must be positive)", c.RequestTimeout.Value)
	}
	if err := validateMaxAttempts(c.MaxAttempts.Value); err != nil {
		return err
	}
	if err := validateKeyStore(c.KeyStore.Value); err != nil {
		return err
	}
	if c.KeyStore.Value == "redis" {
		if err := validateURL("redis_url", c.RedisURL.Value, "redis", "rediss"); err != nil {
			return err
		}
	}
	if c.SealInterval.Value < 0 {
		return fmt.Errorf("invalid seal_interval: %s (must not be negative)", c.SealInterval.Value)
	}
	return nil
}

func validateURL(key, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (must be a %v URL)", key, raw, schemes)
}

// ToTable writes the configuration as a formatted table.
func (c *EffectiveConfig) ToTable(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
	fmt.Fprintf(tw, "home\t%s\t%s\n", c.Home.Value, c.Home.Source)
	fmt.Fprintf(tw, "no_color\t%t\t%s\n", c.NoColor.Value, c.NoColor.Source)
	fmt.Fprintf(tw, "verbose\t%t\t%s\n", c.Verbose.Value, c.Verbose.Source)
	fmt.Fprintf(tw, "json\t%t\t%s\n", c.JSON.Value, c.JSON.Source)
	fmt.Fprintf(tw, "log_file\t%t\t%s\n", c.LogFile.Value, c.LogFile.Source)
	fmt.Fprintf(tw, "sidecar_url\t%s\t%s\n", c.SidecarURL.Value, c.SidecarURL.Source)
	fmt.Fprintf(tw, "node_ws\t%s\t%s\n", c.NodeWS.Value, c.NodeWS.Source)
	fmt.Fprintf(tw, "l1_rpc\t%s\t%s\n", c.L1RPC.Value, c.L1RPC.Source)
	fmt.Fprintf(tw, "l1\t%s\t%s\n", c.L1.Value, c.L1.Source)
	fmt.Fprintf(tw, "sudo\t%s\t%s\n", maskSecret(c.Sudo.Value), c.Sudo.Source)
	fmt.Fprintf(tw, "request_timeout\t%s\t%s\n", c.RequestTimeout.Value, c.RequestTimeout.Source)
	fmt.Fprintf(tw, "max_attempts\t%d\t%s\n", c.MaxAttempts.Value, c.MaxAttempts.Source)
	fmt.Fprintf(tw, "key_store\t%s\t%s\n", c.KeyStore.Value, c.KeyStore.Source)
	fmt.Fprintf(tw, "redis_url\t%s\t%s\n", c.RedisURL.Value, c.RedisURL.Source)
	fmt.Fprintf(tw, "sim\t%t\t%s\n", c.Sim.Value, c.Sim.Source)
	fmt.Fprintf(tw, "seal_interval\t%s\t%s\n", c.SealInterval.Value, c.SealInterval.Source)
	tw.Flush()
}

// maskSecret hides raw private keys; dev URIs like //Alice are shown as is.
func maskSecret(s string) string {
	if len(s) != 66 || s[:2] != "0x" {
		return s
	}
	return s[:6] + "****" + s[len(s)-4:]
}
