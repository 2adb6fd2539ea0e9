package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/reel/internal/domain"
)

const opTimeout = 30 * time.Second

// Command factories for async session operations

// WaitForChangeCmd blocks until the session reports a change
func WaitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return ChangedMsg{}
	}
}

// opCmd runs fn with a timeout and reports completion
func opCmd(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return OpDoneMsg{Op: op, Err: fn(ctx)}
	}
}

// MountCmd checks the credential and loads the initial view
func MountCmd(s Session) tea.Cmd {
	return opCmd("mount", s.Mount)
}

// SelectTabCmd switches the active category
func SelectTabCmd(s Session, tab domain.Category) tea.Cmd {
	return opCmd("select tab", func(ctx context.Context) error {
		return s.SelectTab(ctx, tab)
	})
}

// NextPageCmd advances the active page counter
func NextPageCmd(s Session) tea.Cmd {
	return opCmd("next page", s.NextPage)
}

// PrevPageCmd moves the active page counter back
func PrevPageCmd(s Session) tea.Cmd {
	return opCmd("previous page", s.PrevPage)
}

// SubmitSearchCmd evaluates the search query immediately
func SubmitSearchCmd(s Session) tea.Cmd {
	return opCmd("search", s.Submit)
}

// ClearSearchCmd returns to category mode
func ClearSearchCmd(s Session) tea.Cmd {
	return opCmd("clear search", func(context.Context) error {
		s.ClearSearch()
		return nil
	})
}

// ApplyCmd runs a like/dislike/undislike
func ApplyCmd(s Session, action domain.Action, movie domain.Movie) tea.Cmd {
	return opCmd(string(action), func(ctx context.Context) error {
		return s.Apply(ctx, action, movie)
	})
}

// ReloadCmd re-reads membership and the visible list
func ReloadCmd(s Session) tea.Cmd {
	return opCmd("reload", s.Reload)
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}
