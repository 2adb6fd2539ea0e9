package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/reel/internal/domain"
)

// Search defaults
const (
	DefaultDebounce       = 500 * time.Millisecond
	DefaultMinQueryLength = 2
)

// SearchPhase is the search state machine position
type SearchPhase int

const (
	SearchIdle SearchPhase = iota
	SearchInvalid
	SearchDebouncing
	SearchSearching
	SearchShowingResults
)

func (p SearchPhase) String() string {
	switch p {
	case SearchIdle:
		return "idle"
	case SearchInvalid:
		return "invalid"
	case SearchDebouncing:
		return "debouncing"
	case SearchSearching:
		return "searching"
	case SearchShowingResults:
		return "showing-results"
	default:
		return fmt.Sprintf("SearchPhase(%d)", int(p))
	}
}

// SearchState is the overlay search. Active (results present) is the only
// signal that search, not the category, governs the displayed list.
type SearchState struct {
	Query      string
	Results    []domain.Movie
	Active     bool
	Page       int
	TotalPages int
	Phase      SearchPhase
}

// SearchOptions configures a SearchController
type SearchOptions struct {
	Debounce  time.Duration
	MinLength int
	PageSize  int
}

// SearchController owns the query text, the debounce timer and the result page.
type SearchController struct {
	catalog   domain.CatalogReader
	debouncer *Debouncer
	minLength int
	pageSize  int
	logger    *slog.Logger

	mu    sync.RWMutex
	state SearchState
	ran   string // last query sent to the catalog
}

// NewSearchController creates an idle controller
func NewSearchController(catalog domain.CatalogReader, opts SearchOptions, logger *slog.Logger) *SearchController {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultMinQueryLength
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &SearchController{
		catalog:   catalog,
		debouncer: NewDebouncer(opts.Debounce),
		minLength: opts.MinLength,
		pageSize:  opts.PageSize,
		logger:    logger,
		state:     SearchState{Page: 1, TotalPages: 1},
	}
}

// Input records query and restarts the debounce timer; fire runs when input settles.
func (c *SearchController) Input(query string, fire func()) {
	c.mu.Lock()
	c.state.Query = query
	c.state.Phase = SearchDebouncing
	c.mu.Unlock()

	c.debouncer.Schedule(fire)
}

// SetQuery records query without scheduling a search
func (c *SearchController) SetQuery(query string) {
	c.mu.Lock()
	c.state.Query = query
	c.mu.Unlock()
}

// CancelPending stops a scheduled debounce fire
func (c *SearchController) CancelPending() {
	if c.debouncer.Cancel() {
		c.mu.Lock()
		if c.state.Phase == SearchDebouncing {
			c.state.Phase = c.restingPhase()
		}
		c.mu.Unlock()
	}
}

// Evaluate applies the query rules to the current query: empty returns to
// idle, too short is a *domain.ValidationError with no remote call, otherwise
// the scoped search runs at the current search page, or at page 1 when the
// query differs from the last one run.
func (c *SearchController) Evaluate(ctx context.Context, scope domain.Category) error {
	c.mu.Lock()
	query := strings.TrimSpace(c.state.Query)
	length := utf8.RuneCountInString(query)

	switch {
	case length == 0:
		c.state.Results = nil
		c.state.Active = false
		c.state.TotalPages = 1
		c.state.Phase = SearchIdle
		c.mu.Unlock()
		return nil

	case length < c.minLength:
		c.state.Results = nil
		c.state.Active = false
		c.state.TotalPages = 1
		c.state.Phase = SearchInvalid
		c.mu.Unlock()
		return &domain.ValidationError{
			Message: fmt.Sprintf("Search query must be at least %d characters", c.minLength),
		}
	}

	if query != c.ran {
		c.state.Page = 1
	}
	c.ran = query
	c.state.Phase = SearchSearching
	page := c.state.Page
	c.mu.Unlock()

	return c.run(ctx, query, scope, page)
}

// Rerun re-issues the current query at the current page. It is a no-op when
// no search is active.
func (c *SearchController) Rerun(ctx context.Context, scope domain.Category) error {
	c.mu.Lock()
	if !c.state.Active {
		c.mu.Unlock()
		return nil
	}
	query := strings.TrimSpace(c.state.Query)
	page := c.state.Page
	c.state.Phase = SearchSearching
	c.mu.Unlock()

	return c.run(ctx, query, scope, page)
}

func (c *SearchController) run(ctx context.Context, query string, scope domain.Category, page int) error {
	c.logger.Debug("search", "query", query, "scope", scope, "page", page)

	result, err := c.catalog.Search(ctx, query, scope, page, c.pageSize)
	if last := max(1, result.TotalPages); err == nil && page > last {
		c.logger.Debug("search page past the end, using last page", "query", query, "page", page, "last", last)
		page = last
		result, err = c.catalog.Search(ctx, query, scope, page, c.pageSize)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// previous results stay on screen
		c.state.Phase = SearchIdle
		c.logger.Warn("search failed", "query", query, "scope", scope, "error", err)
		return domain.NewFetchError("search", err)
	}

	items := result.Movies
	if items == nil {
		items = []domain.Movie{}
	}
	totalPages := result.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	c.state.Results = items
	c.state.Active = true
	c.state.Page = page
	c.state.TotalPages = totalPages
	c.state.Phase = SearchShowingResults
	return nil
}

// SetPage moves the search page counter
func (c *SearchController) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.state.Page = page
	c.mu.Unlock()
}

// Clear resets query, results, total pages and page, returning to category mode
func (c *SearchController) Clear() {
	c.debouncer.Cancel()
	c.mu.Lock()
	c.state = SearchState{Page: 1, TotalPages: 1, Phase: SearchIdle}
	c.ran = ""
	c.mu.Unlock()
}

// State returns a copy of the search state
func (c *SearchController) State() SearchState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// lastRun returns the last query sent to the catalog
func (c *SearchController) lastRun() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ran
}

// Close stops the debounce timer
func (c *SearchController) Close() {
	c.debouncer.Cancel()
}

func (c *SearchController) restingPhase() SearchPhase {
	if c.state.Active {
		return SearchShowingResults
	}
	return SearchIdle
}
