package config

// FileConfig represents the raw config.toml file contents.
// All fields are pointers to distinguish "not set" from "set to zero/false".
type FileConfig struct {
	// Global settings
	Home    *string `toml:"home"`
	NoColor *bool   `toml:"no_color"`
	Verbose *bool   `toml:"verbose"`
	JSON    *bool   `toml:"json"`
	LogFile *bool   `toml:"log_file"` // Tee CLI output to <home>/logs

	// Chain connection
	SidecarURL     *string `toml:"sidecar_url"`
	NodeWS         *string `toml:"node_ws"`
	L1RPC          *string `toml:"l1_rpc"`
	L1             *string `toml:"l1"` // "Ethereum" or "Arbitrum"
	Sudo           *string `toml:"sudo"`
	RequestTimeout *string `toml:"request_timeout"`
	MaxAttempts    *int    `toml:"max_attempts"` // Poller block budget

	// Key storage
	KeyStore *string `toml:"key_store"` // "file" or "redis"
	RedisURL *string `toml:"redis_url"`

	// In-process dev chain
	Sim          *bool   `toml:"sim"`
	SealInterval *string `toml:"seal_interval"` // "0s" seals on submit
}

// IsEmpty returns true if no configuration values are set.
func (f *FileConfig) IsEmpty() bool {
	return f.Home == nil &&
		f.NoColor == nil &&
		f.Verbose == nil &&
		f.JSON == nil &&
		f.LogFile == nil &&
		f.SidecarURL == nil &&
		f.NodeWS == nil &&
		f.L1RPC == nil &&
		f.L1 == nil &&
		f.Sudo == nil &&
		f.RequestTimeout == nil &&
		f.MaxAttempts == nil &&
		f.KeyStore == nil &&
		f.RedisURL == nil &&
		f.Sim == nil &&
		f.SealInterval == nil
}

// mergeFileConfig merges src into dst. Non-nil values in src overwrite dst.
func mergeFileConfig(dst, src *FileConfig) {
	mergePtr(&dst.Home, src.Home)
	mergePtr(&dst.NoColor, src.NoColor)
	mergePtr(&dst.Verbose, src.Verbose)
	mergePtr(&dst.JSON, src.JSON)
	mergePtr(&dst.LogFile, src.LogFile)
	mergePtr(&dst.SidecarURL, src.SidecarURL)
	mergePtr(&dst.NodeWS, src.NodeWS)
	mergePtr(&dst.L1RPC, src.L1RPC)
	mergePtr(&dst.L1, src.L1)
	mergePtr(&dst.Sudo, src.Sudo)
	mergePtr(&dst.RequestTimeout, src.RequestTimeout)
	mergePtr(&dst.MaxAttempts, src.MaxAttempts)
	mergePtr(&dst.KeyStore, src.KeyStore)
	mergePtr(&dst.RedisURL, src.RedisURL)
	mergePtr(&dst.Sim, src.Sim)
	mergePtr(&dst.SealInterval, src.SealInterval)
}

func mergePtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// knownKeys lists the toml keys FileConfig understands.
var knownKeys = map[string]bool{
	"home":            true,
	"no_color":        true,
	"verbose":         true,
	"json":            true,
	"log_file":        true,
	"sidecar_url":     true,
	"node_ws":         true,
	"l1_rpc":          true,
	"l1":              true,
	"sudo":            true,
	"request_timeout": true,
	"max_attempts":    true,
	"key_store":       true,
	"redis_url":       true,
	"sim":             true,
	"seal_interval":   true,
}
