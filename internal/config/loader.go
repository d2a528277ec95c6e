package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/b-harvest/gasp-e2e/internal/output"
	"github.com/b-harvest/gasp-e2e/internal/paths"
)

// FileName is the config file looked up in the home and working directories.
const FileName = paths.ConfigFile

// ConfigLoader is responsible for loading and merging configuration.
type ConfigLoader struct {
	homeDir    string
	workDir    string
	configPath string // Explicit --config path
	logger     *output.Logger
}

// NewConfigLoader creates a new ConfigLoader.
func NewConfigLoader(homeDir, configPath string, logger *output.Logger) *ConfigLoader {
	return &ConfigLoader{
		homeDir:    homeDir,
		workDir:    ".",
		configPath: configPath,
		logger:     logger,
	}
}

// candidates returns the config files that exist, lowest priority first:
// <home>/config.toml, ./config.toml, then the --config path.
func (l *ConfigLoader) candidates() ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, p)
	}

	for _, p := range []string{filepath.Join(l.homeDir, FileName), filepath.Join(l.workDir, FileName)} {
		if _, err := os.Stat(p); err == nil {
			add(p)
		}
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", l.configPath)
		}
		add(l.configPath)
	}
	return files, nil
}

// LoadFileConfig loads and parses config files, merging them in priority order.
// Later files override earlier ones. Returns the merged FileConfig and the
// highest priority file that was read, or "" when none exists.
func (l *ConfigLoader) LoadFileConfig() (*FileConfig, string, error) {
	files, err := l.candidates()
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return &FileConfig{}, "", nil
	}

	var merged FileConfig
	var primary string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		var cfg FileConfig
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		mergeFileConfig(&merged, &cfg)
		primary = path
		l.warnUnknownKeys(path, data)

		if l.logger != nil {
			l.logger.Debug("Loaded config file: %s", path)
		}
	}

	if err := ValidateFileConfig(&merged); err != nil {
		return nil, "", fmt.Errorf("config validation failed: %w", err)
	}
	return &merged, primary, nil
}

// Load runs the whole priority chain: defaults, config files, then the
// environment. Flags are applied by the caller through ApplyFlags.
func (l *ConfigLoader) Load(lookup LookupFunc) (*EffectiveConfig, error) {
	fileCfg, path, err := l.LoadFileConfig()
	if err != nil {
		return nil, err
	}

	cfg := NewEffectiveConfig(l.homeDir)
	if err := cfg.ApplyFile(fileCfg, path); err != nil {
		return nil, err
	}
	if lookup != nil {
		if err := cfg.ApplyEnv(lookup); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (l *ConfigLoader) warnUnknownKeys(path string, data []byte) {
	if l.logger == nil {
		return
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return
	}
	for key := range raw {
		if !knownKeys[key] {
			l.logger.Warn("Unknown config key %q in %s", key, path)
		}
	}
}
