// Package spinner draws a one-line progress indicator on stderr while the
// corpus is being searched.
package spinner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"◜", "◠", "◝", "◞", "◡", "◟"}

const delay = 100 * time.Millisecond

// Spinner represents a spinning progress indicator.
type Spinner struct {
	writer  io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	active  bool
	message string
	wg      sync.WaitGroup
}

// New creates a spinner that writes message to writer once started.
// ctx allows for cancellation of the spinner goroutine.
func New(ctx context.Context, writer io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		writer:  writer,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return
	}

	s.active = true
	s.wg.Add(1)
	go s.run()
}

// Stop stops the animation and clears the line. A stopped spinner cannot be
// restarted.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		s.cancel()
		return
	}
	s.active = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()

	// only clear the whole line on a terminal
	if isTerminal(s.writer) {
		fmt.Fprint(s.writer, "\r\033[2K")
	} else {
		fmt.Fprint(s.writer, "\r")
	}
}

// IsActive returns whether the spinner is currently running
func (s *Spinner) IsActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// UpdateMessage replaces the text shown next to the spinner.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Updatef formats and sets the message.
func (s *Spinner) Updatef(format string, args ...any) {
	s.UpdateMessage(fmt.Sprintf(format, args...))
}

// Message returns the current message.
func (s *Spinner) Message() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.message
}

func (s *Spinner) run() {
	defer s.wg.Done()

	frame := 0
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			message := s.Message()
			// pad with a line clear so a shorter message leaves no residue
			fmt.Fprintf(s.writer, "\r%s %s\033[K", frames[frame%len(frames)], message)
			frame++
		}
	}
}

// Enabled reports whether a spinner should be drawn on w: only terminals
// get one, so redirected output stays clean.
func Enabled(w io.Writer) bool {
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
