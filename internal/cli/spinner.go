package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerTick = 80 * time.Millisecond

// Spinner shows which stage is running, e.g. "Scaling badges... 3s", on
// stderr. On a pipe or in CI it draws nothing; the stage's own log lines
// carry the progress instead.
type Spinner struct {
	out     io.Writer
	enabled bool
	start   time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{} // closed by Stop
	exited chan struct{} // closed when the draw loop returns
	once   sync.Once

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for clearing
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext returns a spinner that stops drawing once ctx is
// done, so an interrupted stage does not leave a dangling status line.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		enabled: stderrIsTerminal(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
		message: message,
	}
}

// stderrIsTerminal reports whether stderr can show animated output.
func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start launches the draw loop. Call Stop exactly once per Start.
func (s *Spinner) Start() {
	s.start = time.Now()
	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.exited)
	ticker := time.NewTicker(spinnerTick)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.ctx.Done():
			s.clearLine()
			return
		case <-s.done:
			return
		case <-ticker.C:
			s.draw(frame)
		}
	}
}

// Update replaces the status text, for runs that move through stages.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) draw(frame int) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.message
	if elapsed := time.Since(s.start).Truncate(time.Second); elapsed > 0 {
		status += " " + elapsed.String()
	}
	s.width = max(s.width, utf8.RuneCountInString(status)+2)
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(spinnerFrames[frame%len(spinnerFrames)]), StyleDim.Render(status))
}

// Stop ends the animation and clears the line. Further calls are no-ops.
func (s *Spinner) Stop() {
	s.once.Do(func() { close(s.done) })
	<-s.exited
	s.cancel()
	s.clearLine()
}

func (s *Spinner) clearLine() {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
}

// StopWithSuccess stops and prints msg as a success line.
func (s *Spinner) StopWithSuccess(msg string) {
	s.Stop()
	printSuccess("%s", msg)
}

// StopWithError stops and prints msg as an error line.
func (s *Spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

// Cancelled reports whether the spinner's context is done, either because
// the run was interrupted or because Stop was called.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}
