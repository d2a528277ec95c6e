package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const spinnerFrames = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏"

// Spinner animates a status line with the elapsed time while the CLI waits
// on blocks. A disabled spinner only prints the outcome line, which is what
// non-terminal and JSON runs get.
type Spinner struct {
	out      io.Writer
	disabled bool

	mu      sync.Mutex
	message string
	started time.Time
	stop    chan struct{}
	stopped sync.WaitGroup
}

// NewSpinner creates a Spinner writing to out.
func NewSpinner(out io.Writer, disabled bool) *Spinner {
	return &Spinner{out: out, disabled: disabled}
}

// Start shows message until Finish. Calling Start on a running spinner
// only replaces the message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.stop != nil || s.disabled {
		return
	}
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.stopped.Add(1)
	go s.run(s.stop)
}

func (s *Spinner) run(stop <-chan struct{}) {
	defer s.stopped.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frames := []rune(spinnerFrames)
	for i := 0; ; i++ {
		select {
		case <-stop:
			fmt.Fprintf(s.out, "\r%80s\r", "")
			return
		case <-ticker.C:
			s.mu.Lock()
			msg, elapsed := s.message, time.Since(s.started).Truncate(time.Second)
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r%c %s (%s)   ", frames[i%len(frames)], msg, elapsed)
		}
	}
}

// Finish clears the animation and prints message as a success or failure.
func (s *Spinner) Finish(message string, ok bool) {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		s.stopped.Wait()
	}

	if ok {
		successColor.Fprintf(s.out, "✓ %s\n", message)
		return
	}
	errorColor.Fprintf(s.out, "✗ %s\n", message)
}
