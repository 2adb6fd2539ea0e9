package tui

// Message types for the TUI

// ChangedMsg signals that session state changed and should be re-read
type ChangedMsg struct{}

// OpDoneMsg reports completion of an async session operation. Failures are
// already reflected in the session's notices; Err is kept for logging.
type OpDoneMsg struct {
	Op  string
	Err error
}

// TickMsg drives the spinner animation
type TickMsg struct{}
