package progress

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// lineSpinner is a spinner that can be paused around printed lines.
// A nil *lineSpinner is valid and does nothing.
type lineSpinner struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
}

func newLineSpinner(out io.Writer) *lineSpinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false
	return &lineSpinner{spinner: s}
}

// Show starts the spinner, or updates its message when already running
func (l *lineSpinner) Show(message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spinner.Suffix = " " + message
	if !l.spinner.Active() {
		l.spinner.Start()
	}
}

// Stop hides the spinner
func (l *lineSpinner) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.spinner.Active() {
		l.spinner.Stop()
	}
}

// Around stops the spinner while print runs and restarts it afterwards
func (l *lineSpinner) Around(print func()) {
	if l == nil {
		print()
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	wasActive := l.spinner.Active()
	if wasActive {
		l.spinner.Stop()
	}
	print()
	if wasActive {
		l.spinner.Start()
	}
}
