package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv. NO_COLOR follows no-color.org.
const (
	EnvHome           = "E2E_HOME"
	EnvVerbose        = "E2E_VERBOSE"
	EnvLogFile        = "E2E_LOG_FILE"
	EnvSidecarURL     = "E2E_SIDECAR_URL"
	EnvNodeWS         = "E2E_NODE_WS"
	EnvL1RPC          = "E2E_L1_RPC"
	EnvL1             = "E2E_L1"
	EnvSudo           = "E2E_SUDO"
	EnvRequestTimeout = "E2E_REQUEST_TIMEOUT"
	EnvMaxAttempts    = "E2E_MAX_ATTEMPTS"
	EnvKeyStore       = "E2E_KEY_STORE"
	EnvRedisURL       = "E2E_REDIS_URL"
	EnvSim            = "E2E_SIM"
	EnvSealInterval   = "E2E_SEAL_INTERVAL"
	EnvNoColor        = "NO_COLOR"
)

// LoadDotEnv loads the given .env files into the process environment and
// returns the ones that existed. Variables already set are not replaced.
func LoadDotEnv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// LookupFunc reads an environment variable; os.LookupEnv in production.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays the environment onto c. Empty variables are ignored.
func (c *EffectiveConfig) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) *string {
		if v, ok := lookup(key); ok && v != "" {
			return &v
		}
		return nil
	}

	c.Home.set(get(EnvHome), SourceEnvironment)
	c.SidecarURL.set(get(EnvSidecarURL), SourceEnvironment)
	c.NodeWS.set(get(EnvNodeWS), SourceEnvironment)
	c.L1RPC.set(get(EnvL1RPC), SourceEnvironment)
	c.L1.set(get(EnvL1), SourceEnvironment)
	c.Sudo.set(get(EnvSudo), SourceEnvironment)
	c.KeyStore.set(get(EnvKeyStore), SourceEnvironment)
	c.RedisURL.set(get(EnvRedisURL), SourceEnvironment)

	if get(EnvNoColor) != nil {
		yes := true
		c.NoColor.set(&yes, SourceEnvironment)
	}

	for key, v := range map[string]*BoolValue{
		EnvVerbose: &c.Verbose,
		EnvLogFile: &c.LogFile,
		EnvSim:     &c.Sim,
	} {
		raw := get(key)
		if raw == nil {
			continue
		}
		b, err := strconv.ParseBool(*raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, *raw, err)
		}
		v.set(&b, SourceEnvironment)
	}

	if raw := get(EnvMaxAttempts); raw != nil {
		n, err := strconv.Atoi(*raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxAttempts, *raw, err)
		}
		c.MaxAttempts.set(&n, SourceEnvironment)
	}

	for key, v := range map[string]*DurationValue{
		EnvRequestTimeout: &c.RequestTimeout,
		EnvSealInterval:   &c.SealInterval,
	} {
		raw := get(key)
		if raw == nil {
			continue
		}
		d, err := time.ParseDuration(*raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, *raw, err)
		}
		v.set(&d, SourceEnvironment)
	}
	return nil
}
