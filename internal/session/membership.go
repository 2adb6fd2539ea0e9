package session

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/reel/internal/domain"
)

// DefaultBulkPageSize covers a whole liked or disliked list in one read
const DefaultBulkPageSize = 1000

// MembershipIndex holds the liked and disliked id sets. Both are rebuilt
// from bulk reads on every refresh; they are never patched.
type MembershipIndex struct {
	catalog  domain.CatalogReader
	bulkSize int
	logger   *slog.Logger

	mu       sync.RWMutex
	liked    map[int64]struct{}
	disliked map[int64]struct{}
}

// NewMembershipIndex creates an empty index
func NewMembershipIndex(catalog domain.CatalogReader, bulkSize int, logger *slog.Logger) *MembershipIndex {
	if logger == nil {
		logger = slog.Default()
	}
	if bulkSize <= 0 {
		bulkSize = DefaultBulkPageSize
	}
	return &MembershipIndex{
		catalog:  catalog,
		bulkSize: bulkSize,
		logger:   logger,
		liked:    map[int64]struct{}{},
		disliked: map[int64]struct{}{},
	}
}

// Refresh reads both lists in parallel and swaps the sets together.
// If either read fails the previous sets are kept.
func (m *MembershipIndex) Refresh(ctx context.Context) error {
	var liked, disliked map[int64]struct{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := m.readIDs(gctx, domain.CategoryLiked)
		liked = ids
		return err
	})
	g.Go(func() error {
		ids, err := m.readIDs(gctx, domain.CategoryDisliked)
		disliked = ids
		return err
	})

	if err := g.Wait(); err != nil {
		m.logger.Warn("membership refresh failed", "error", err)
		return domain.NewFetchError("membership", err)
	}

	m.mu.Lock()
	m.liked = liked
	m.disliked = disliked
	m.mu.Unlock()

	m.logger.Debug("membership refreshed", "liked", len(liked), "disliked", len(disliked))
	return nil
}

func (m *MembershipIndex) readIDs(ctx context.Context, category domain.Category) (map[int64]struct{}, error) {
	page, err := m.catalog.ListCategory(ctx, category, 1, m.bulkSize)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]struct{}, len(page.Movies))
	for _, movie := range page.Movies {
		if id, ok := movie.ID(); ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// IsLiked reports whether id is in the liked set
func (m *MembershipIndex) IsLiked(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.liked[id]
	return ok
}

// IsDisliked reports whether id is in the disliked set
func (m *MembershipIndex) IsDisliked(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.disliked[id]
	return ok
}

// Badge returns the membership of movie for display
func (m *MembershipIndex) Badge(movie domain.Movie) Badge {
	id, ok := movie.ID()
	if !ok {
		return Badge{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, liked := m.liked[id]
	_, disliked := m.disliked[id]
	return Badge{Liked: liked, Disliked: disliked}
}

// Counts returns the sizes of both sets
func (m *MembershipIndex) Counts() (liked, disliked int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.liked), len(m.disliked)
}

// Reset empties both sets
func (m *MembershipIndex) Reset() {
	m.mu.Lock()
	m.liked = map[int64]struct{}{}
	m.disliked = map[int64]struct{}{}
	m.mu.Unlock()
}

// Badge is the per-movie membership shown next to a list row
type Badge struct {
	Liked    bool
	Disliked bool
}
