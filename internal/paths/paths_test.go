package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeLayout(t *testing.T) {
	home := t.TempDir()

	assert.Equal(t, filepath.Join(home, "config.toml"), ConfigPath(home))
	assert.Equal(t, filepath.Join(home, "keys"), KeysPath(home))
	assert.Equal(t, filepath.Join(home, "logs", "gasp-e2e.log"), LogFilePath(home))

	assert.False(t, Exists(LogsPath(home)))
	require.NoError(t, EnsureDir(LogsPath(home)))
	assert.True(t, Exists(LogsPath(home)))
	assert.False(t, IsFile(LogsPath(home)))
}
