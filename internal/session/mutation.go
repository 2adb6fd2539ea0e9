package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/reel/internal/domain"
)

// refresher re-reads authoritative state after a successful write
type refresher interface {
	refreshMembership(ctx context.Context) error
	refreshView(ctx context.Context) error
}

// identitySource resolves the user a write is made for
type identitySource interface {
	Identity() (string, bool)
}

// MutationCoordinator runs like/dislike/undislike writes followed by an
// authoritative refresh. Local state is never patched.
type MutationCoordinator struct {
	writer    domain.PreferenceWriter
	identity  identitySource
	refresher refresher
	logger    *slog.Logger
}

func newMutationCoordinator(writer domain.PreferenceWriter, identity identitySource, r refresher, logger *slog.Logger) *MutationCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationCoordinator{writer: writer, identity: identity, refresher: r, logger: logger}
}

// Apply writes action for movie, then refreshes membership, then the visible
// list, each step finishing before the next starts. A failed write returns a
// *domain.MutationError and nothing is refreshed. Refresh failures are
// returned joined after both steps have been attempted.
func (c *MutationCoordinator) Apply(ctx context.Context, action domain.Action, movie domain.Movie) error {
	userID, ok := c.identity.Identity()
	if !ok {
		return fmt.Errorf("%w: no user identity for %s", domain.ErrAuth, action)
	}

	id, ok := movie.ID()
	if !ok {
		return &domain.MutationError{
			Action:  action,
			Message: fmt.Sprintf("cannot %s %q: movie has no tmdb id", action, movie.Title),
		}
	}

	pref := domain.Preference{UserID: userID, MovieTitle: movie.Title, TMDBID: id}
	if err := c.writer.Mutate(ctx, action, pref); err != nil {
		c.logger.Warn("mutation failed", "action", action, "tmdbID", id, "error", err)
		if errors.Is(err, domain.ErrAuth) {
			return err
		}
		return domain.NewMutationError(action, err)
	}
	c.logger.Info("mutation applied", "action", action, "tmdbID", id, "title", movie.Title)

	membershipErr := c.refresher.refreshMembership(ctx)
	viewErr := c.refresher.refreshView(ctx)
	return errors.Join(membershipErr, viewErr)
}
