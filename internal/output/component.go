package output

import (
	"io"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// NewComponentLogger returns the structured logger handed to the poller,
// wallets, the sidecar client and the dev chain. Debug records are only
// emitted in verbose mode.
func NewComponentLogger(w io.Writer, verbose, jsonMode, noColor bool) log.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	opts := []log.Option{log.LevelOption(level), log.ColorOption(!noColor)}
	if jsonMode {
		opts = append(opts, log.OutputJSONOption())
	}
	return log.NewLogger(w, opts...)
}

// ComponentLogger builds a component logger on the CLI logger's error
// stream, honoring its verbose and JSON modes.
func (l *Logger) ComponentLogger() log.Logger {
	return NewComponentLogger(l.errOut, l.verbose, l.jsonMode, l.noColor)
}
