package tui

// ChangeNotifier coalesces session change notifications onto a channel for
// Bubble Tea. Notify never blocks, so it is safe to call from Update.
type ChangeNotifier struct {
	ch chan struct{}
}

// NewChangeNotifier creates a notifier with a single pending slot
func NewChangeNotifier() *ChangeNotifier {
	return &ChangeNotifier{ch: make(chan struct{}, 1)}
}

// Notify records a change (drops it if one is already pending)
func (n *ChangeNotifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default: // already pending
	}
}

// C returns the receive side for WaitForChangeCmd
func (n *ChangeNotifier) C() <-chan struct{} {
	return n.ch
}
