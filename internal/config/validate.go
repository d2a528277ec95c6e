package config

import (
	"fmt"
	"time"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
)

func validateL1(s string) error {
	if _, err := calls.ParseL1(s); err != nil {
		return fmt.Errorf("invalid l1: %s (must be 'Ethereum' or 'Arbitrum')", s)
	}
	return nil
}

func validateMaxAttempts(n int) error {
	if n < 1 || n > 10_000 {
		return fmt.Errorf("invalid max_attempts: %d (must be 1-10000)", n)
	}
	return nil
}

func validateKeyStore(s string) error {
	if s != "file" && s != "redis" {
		return fmt.Errorf("invalid key_store: %s (must be 'file' or 'redis')", s)
	}
	return nil
}

// ValidateFileConfig validates the FileConfig values before merging.
// This is called when loading the config file to provide early error messages.
func ValidateFileConfig(cfg *FileConfig) error {
	if cfg == nil {
		return nil
	}

	if cfg.L1 != nil {
		if err := validateL1(*cfg.L1); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}

	if cfg.MaxAttempts != nil {
		if err := validateMaxAttempts(*cfg.MaxAttempts); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}

	if cfg.KeyStore != nil {
		if err := validateKeyStore(*cfg.KeyStore); err != nil {
			return fmt.Errorf("%w in config file", err)
		}
	}

	for key, raw := range map[string]*string{
		"request_timeout": cfg.RequestTimeout,
		"seal_interval":   cfg.SealInterval,
	} {
		if raw == nil {
			continue
		}
		if _, err := time.ParseDuration(*raw); err != nil {
			return fmt.Errorf("invalid %s in config file: %q", key, *raw)
		}
	}

	return nil
}
