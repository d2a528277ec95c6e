package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_Modes(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerWithWriters(&out, &errOut)
	l.SetNoColor(true)

	l.Info("hello %s", "world")
	l.Debug("hidden")
	l.Warn("careful")
	assert.Equal(t, "hello world\n", out.String())
	assert.Equal(t, "Warning: careful\n", errOut.String())

	l.SetVerbose(true)
	l.Debug("shown")
	assert.Contains(t, out.String(), "[DEBUG] shown")

	out.Reset()
	l.SetJSONMode(true)
	l.Info("suppressed")
	l.Success("suppressed")
	assert.Empty(t, out.String())
}

func TestLogger_PrintTxError(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerWithWriters(&out, &errOut)
	l.SetNoColor(true)

	info := &TxErrorInfo{
		Call:     "xyk.sell_asset",
		Signer:   "//Alice",
		Expected: "xyk.AssetsSwapped",
		Reason:   "InsufficientOutputAmount",
		Tree:     "xyk.sell_asset(\n  sold_asset_id: 4\n)",
	}
	l.PrintTxError(info)
	assert.Contains(t, errOut.String(), "Transaction rejected: xyk.sell_asset")
	assert.Contains(t, errOut.String(), "InsufficientOutputAmount")
	assert.NotContains(t, errOut.String(), "sold_asset_id")

	errOut.Reset()
	l.SetVerbose(true)
	l.PrintTxError(info)
	assert.Contains(t, errOut.String(), "sold_asset_id")
}

func TestLogger_TeeToFile(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerWithWriters(&out, &errOut)
	l.SetNoColor(true)

	path, err := l.TeeToFile(t.TempDir())
	require.NoError(t, err)
	l.Info("first")
	l.Error("second")
	require.NoError(t, l.Close())

	assert.Equal(t, "first\n", out.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nError: second\n", string(data))
}

func TestReadLastLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")

	var sb strings.Builder
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))

	lines, err := ReadLastLines(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"line 5", "line 6", "line 7"}, lines)

	lines, err = ReadLastLines(path, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 7)
	assert.Equal(t, "line 1", lines[0])
}

func TestReadLastLines_Errors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.log")
	_, err := ReadLastLines(missing, 5)
	assert.ErrorIs(t, err, ErrNoLogFile)
	var fileErr *LogFileError
	require.True(t, errors.As(err, &fileErr))
	assert.Equal(t, missing, fileErr.Path)

	empty := filepath.Join(dir, "empty.log")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadLastLines(empty, 5)
	assert.ErrorIs(t, err, ErrEmptyLogFile)
}

func TestNewComponentLogger_RespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	quiet := NewComponentLogger(&buf, false, true, true)
	quiet.Debug("not shown")
	assert.Empty(t, buf.String())

	loud := NewComponentLogger(&buf, true, true, true)
	loud.Debug("shown", "height", 7)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"height":7`)
}

func TestProgress_Blocks(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTo(&out, 2)
	p.SetNoColor(true)
	p.Block(7)
	p.Block(8)
	p.Done("waited")
	assert.Equal(t, "[1/2] Block #7\n[2/2] Block #8\n✓ waited\n", out.String())

	out.Reset()
	p.SetJSONMode(true)
	p.Block(9)
	assert.Empty(t, out.String())
}

func TestSpinner_DisabledPrintsOutcome(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinner(&out, true)
	s.Start("waiting for block #3")
	s.Finish("reached block #3", true)
	assert.Contains(t, out.String(), "reached block #3")
	assert.NotContains(t, out.String(), "waiting")
}
