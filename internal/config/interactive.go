package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/b-harvest/gasp-e2e/internal/application/calls"
	"github.com/b-harvest/gasp-e2e/internal/output"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("configuration cancelled")

// InteractiveSetup handles interactive configuration prompts.
type InteractiveSetup struct {
	homeDir string
	writer  *ConfigWriter
	out     io.Writer
}

// NewInteractiveSetup creates a new InteractiveSetup for the given home directory.
func NewInteractiveSetup(homeDir string) *InteractiveSetup {
	return &InteractiveSetup{
		homeDir: homeDir,
		writer:  NewConfigWriter(homeDir),
		out:     os.Stdout,
	}
}

// ConfigExists returns true if config.toml exists in homeDir.
func (s *InteractiveSetup) ConfigExists() bool {
	return s.writer.Exists()
}

// loadExisting returns the current home config, or an empty one.
func (s *InteractiveSetup) loadExisting() *FileConfig {
	if !s.writer.Exists() {
		return &FileConfig{}
	}
	loader := &ConfigLoader{homeDir: s.homeDir, workDir: s.homeDir}
	cfg, _, err := loader.LoadFileConfig()
	if err != nil {
		return &FileConfig{}
	}
	return cfg
}

// Run prompts for the connection settings, using any existing values as defaults.
func (s *InteractiveSetup) Run() (*FileConfig, error) {
	if !output.IsInteractive() {
		return nil, output.ErrNotInteractive
	}
	cfg := s.loadExisting()

	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Welcome to gasp-e2e configuration!")
	fmt.Fprintln(s.out, "Press Ctrl+C at any time to cancel.")
	fmt.Fprintln(s.out)

	sidecar, err := promptURL("Sidecar URL", valueOr(cfg.SidecarURL, DefaultSidecarURL), "http", "https")
	if err != nil {
		return nil, err
	}
	cfg.SidecarURL = &sidecar

	ws, err := promptURL("Node websocket URL", valueOr(cfg.NodeWS, DefaultNodeWS), "ws", "wss")
	if err != nil {
		return nil, err
	}
	cfg.NodeWS = &ws

	l1, err := promptSelect("Select L1", []string{calls.Ethereum.String(), calls.Arbitrum.String()}, valueOr(cfg.L1, DefaultL1))
	if err != nil {
		return nil, err
	}
	cfg.L1 = &l1

	l1rpc, err := promptURL("L1 RPC URL", valueOr(cfg.L1RPC, DefaultL1RPC), "http", "https", "ws", "wss")
	if err != nil {
		return nil, err
	}
	cfg.L1RPC = &l1rpc

	sudo, err := promptText("Sudo key (dev URI or 0x seed)", valueOr(cfg.Sudo, DefaultSudo))
	if err != nil {
		return nil, err
	}
	cfg.Sudo = &sudo

	store, err := promptSelect("Select key store", []string{"file", "redis"}, valueOr(cfg.KeyStore, DefaultKeyStore))
	if err != nil {
		return nil, err
	}
	cfg.KeyStore = &store

	if store == "redis" {
		redisURL, err := promptURL("Redis URL", valueOr(cfg.RedisURL, DefaultRedisURL), "redis", "rediss")
		if err != nil {
			return nil, err
		}
		cfg.RedisURL = &redisURL
	}

	return cfg, nil
}

// RunWithDefaults returns a FileConfig with default connection values.
// Used when terminal is non-interactive.
func (s *InteractiveSetup) RunWithDefaults() *FileConfig {
	sidecar, ws, l1, l1rpc, sudo, store := DefaultSidecarURL, DefaultNodeWS, DefaultL1, DefaultL1RPC, DefaultSudo, DefaultKeyStore
	return &FileConfig{
		SidecarURL: &sidecar,
		NodeWS:     &ws,
		L1:         &l1,
		L1RPC:      &l1rpc,
		Sudo:       &sudo,
		KeyStore:   &store,
	}
}

// WriteConfig writes the configuration to homeDir/config.toml.
func (s *InteractiveSetup) WriteConfig(cfg *FileConfig) error {
	return s.writer.Write(cfg)
}

func valueOr(v *string, def string) string {
	if v != nil && *v != "" {
		return *v
	}
	return def
}

func promptSelect(label string, items []string, current string) (string, error) {
	cursor := 0
	for i, item := range items {
		if item == current {
			cursor = i
			break
		}
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✓ {{ . | green }}",
		},
	}

	_, result, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return result, nil
}

func promptText(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(input string) error {
			if input == "" {
				return errors.New("value must not be empty")
			}
			return nil
		},
		Templates: textTemplates(),
	}

	result, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return result, nil
}

func promptURL(label, def string, schemes ...string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(input string) error {
			return validateURL(label, input, schemes...)
		},
		Templates: textTemplates(),
	}

	result, err := prompt.Run()
	if err != nil {
		return "", handlePromptError(err)
	}
	return result, nil
}

func textTemplates() *promptui.PromptTemplates {
	return &promptui.PromptTemplates{
		Prompt:  "{{ . }}: ",
		Valid:   "{{ . | green }}: ",
		Invalid: "{{ . | red }}: ",
		Success: "✓ {{ . }}: ",
	}
}

// handlePromptError converts promptui errors to ErrCancelled.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrCancelled
	}
	return err
}
