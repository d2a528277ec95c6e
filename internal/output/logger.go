package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/b-harvest/gasp-e2e/internal/paths"
)

// Log file rotation limits for --log-file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 5
	logMaxAgeDays = 14
)

var (
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	debugColor   = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

// Logger is the CLI's human-readable channel. Results go to out, problems
// to errOut. Every method is a no-op in JSON mode so that stdout only
// carries the JSON document.
type Logger struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	verbose  bool
	jsonMode bool

	file *lumberjack.Logger
}

// NewLogger writes to the process's stdout and stderr.
func NewLogger() *Logger {
	return NewLoggerWithWriters(os.Stdout, os.Stderr)
}

// NewLoggerWithWriters creates a Logger writing to out and errOut.
func NewLoggerWithWriters(out, errOut io.Writer) *Logger {
	return &Logger{out: out, errOut: errOut}
}

// DefaultLogger is the logger the CLI starts with.
var DefaultLogger = NewLogger()

// SetNoColor disables colored output globally.
func (l *Logger) SetNoColor(noColor bool) {
	l.noColor = noColor
	color.NoColor = noColor
}

func (l *Logger) SetVerbose(verbose bool) { l.verbose = verbose }

func (l *Logger) SetJSONMode(jsonMode bool) { l.jsonMode = jsonMode }

// Writer returns the result stream, including the log file tee. Tables
// are written here.
func (l *Logger) Writer() io.Writer { return l.out }

// ErrWriter returns the diagnostic stream, including the log file tee.
func (l *Logger) ErrWriter() io.Writer { return l.errOut }

// TeeToFile copies both streams into <dir>/logs/gasp-e2e.log, rotated by
// size, and returns the file path.
func (l *Logger) TeeToFile(dir string) (string, error) {
	if err := paths.EnsureDir(paths.LogsPath(dir)); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	l.file = &lumberjack.Logger{
		Filename:   paths.LogFilePath(dir),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}
	l.out = io.MultiWriter(l.out, l.file)
	l.errOut = io.MultiWriter(l.errOut, l.file)
	return l.file.Filename, nil
}

// Close closes the log file opened by TeeToFile.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) emit(w io.Writer, c *color.Color, prefix, format string, args []any) {
	if l.jsonMode {
		return
	}
	line := prefix + fmt.Sprintf(format, args...) + "\n"
	if c == nil {
		io.WriteString(w, line)
		return
	}
	c.Fprint(w, line)
}

func (l *Logger) Info(format string, args ...any) {
	l.emit(l.out, nil, "", format, args)
}

func (l *Logger) Success(format string, args ...any) {
	l.emit(l.out, successColor, "✓ ", format, args)
}

func (l *Logger) Bold(format string, args ...any) {
	l.emit(l.out, boldColor, "", format, args)
}

func (l *Logger) Warn(format string, args ...any) {
	l.emit(l.errOut, warnColor, "Warning: ", format, args)
}

func (l *Logger) Error(format string, args ...any) {
	l.emit(l.errOut, errorColor, "Error: ", format, args)
}

// Debug prints only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.emit(l.out, debugColor, "[DEBUG] ", format, args)
}

// PrintTxError prints a rejected extrinsic between separators. The
// submitted call tree is only shown in verbose mode.
func (l *Logger) PrintTxError(info *TxErrorInfo) {
	if l.jsonMode || info == nil {
		return
	}
	w := l.errOut
	fmt.Fprintln(w, RedSeparator())
	errorColor.Fprintf(w, "Transaction rejected: %s\n", info.Call)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-9s %s\n", name+":", value)
		}
	}
	field("signer", info.Signer)
	field("expected", info.Expected)
	field("reason", info.Reason)
	field("tx hash", info.TxHash)
	if l.verbose && info.Tree != "" {
		fmt.Fprintln(w, "  call:")
		for _, line := range strings.Split(info.Tree, "\n") {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintln(w, RedSeparator())
}
