// Package paths provides centralized path management for gasp-e2e.
package paths

import (
	"os"
	"path/filepath"
)

// Directory constants relative to home directory.
const (
	KeysDir = "keys"
	LogsDir = "logs"
)

// File name constants.
const (
	ConfigFile = "config.toml"
	LogFile    = "gasp-e2e.log"
)

const DefaultHomeDirName = ".gasp-e2e"

// DefaultHomeDir returns $HOME/.gasp-e2e or falls back to current directory.
func DefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultHomeDirName
	}
	return filepath.Join(home, DefaultHomeDirName)
}

func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, ConfigFile)
}

// KeysPath is the directory of the file key store.
func KeysPath(homeDir string) string {
	return filepath.Join(homeDir, KeysDir)
}

func LogsPath(homeDir string) string {
	return filepath.Join(homeDir, LogsDir)
}

// LogFilePath is the run log written by --log-file and read by "logs".
func LogFilePath(homeDir string) string {
	return filepath.Join(LogsPath(homeDir), LogFile)
}

// Path existence helpers

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
