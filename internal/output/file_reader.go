package output

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DefaultLogLines is how many run log lines `gasp-e2e logs` shows.
const DefaultLogLines = 20

var (
	ErrNoLogFile    = errors.New("no log file; run a command with --log-file first")
	ErrEmptyLogFile = errors.New("log file is empty")
)

// LogFileError ties a log file failure to its path.
type LogFileError struct {
	Path string
	Err  error
}

func (e *LogFileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *LogFileError) Unwrap() error { return e.Err }

// ShouldSilenceUsage implements common.SilenceUsageError.
func (e *LogFileError) ShouldSilenceUsage() bool { return true }

// ReadLastLines returns up to n trailing lines of the log at path, oldest
// first. A non-positive n means DefaultLogLines.
func ReadLastLines(path string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultLogLines
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LogFileError{Path: path, Err: ErrNoLogFile}
	}
	if err != nil {
		return nil, &LogFileError{Path: path, Err: err}
	}
	defer f.Close()

	var tail []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		tail = append(tail, sc.Text())
		if len(tail) > n {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &LogFileError{Path: path, Err: err}
	}
	if len(tail) == 0 {
		return nil, &LogFileError{Path: path, Err: ErrEmptyLogFile}
	}
	return tail, nil
}
