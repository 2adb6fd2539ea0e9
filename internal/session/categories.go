package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
)

// DefaultPageSize is the list page size for category and search reads
const DefaultPageSize = 10

// CategoryState is the cached page of one category
type CategoryState struct {
	Items      []domain.Movie
	Page       int
	TotalPages int
	Loaded     bool
}

// CategoryStore is the CategoryDataStore: one paginated list per category.
type CategoryStore struct {
	catalog  domain.CatalogReader
	pageSize int
	logger   *slog.Logger

	mu     sync.RWMutex
	states map[domain.Category]CategoryState
}

// NewCategoryStore creates an empty store
func NewCategoryStore(catalog domain.CatalogReader, pageSize int, logger *slog.Logger) *CategoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CategoryStore{
		catalog:  catalog,
		pageSize: pageSize,
		logger:   logger,
		states:   make(map[domain.Category]CategoryState),
	}
}

// Load fetches one page of category and replaces its state on success.
// On failure the previous state is kept and a *domain.FetchError is returned.
func (s *CategoryStore) Load(ctx context.Context, category domain.Category, page, pageSize int) (domain.Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	result, err := s.catalog.ListCategory(ctx, category, page, pageSize)
	if err != nil {
		s.logger.Warn("category load failed", "category", category, "page", page, "error", err)
		return domain.Page{}, domain.NewFetchError(string(category), err)
	}

	totalPages := result.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	s.mu.Lock()
	s.states[category] = CategoryState{
		Items:      result.Movies,
		Page:       page,
		TotalPages: totalPages,
		Loaded:     true,
	}
	s.mu.Unlock()

	s.logger.Debug("category loaded", "category", category, "page", page, "items", len(result.Movies), "totalPages", totalPages)
	return result, nil
}

// State returns the current state of category. Unloaded categories report page 1 of 1.
func (s *CategoryStore) State(category domain.Category) CategoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[category]; ok {
		return st
	}
	return CategoryState{Page: 1, TotalPages: 1}
}

// Reset drops every cached category
func (s *CategoryStore) Reset() {
	s.mu.Lock()
	s.states = make(map[domain.Category]CategoryState)
	s.mu.Unlock()
}
