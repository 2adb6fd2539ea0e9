package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// Effect names, in run order
const (
	effectMembership = "membership"
	effectCategory   = "category"
	effectSearch     = "search"
)

// Options configures a Session
type Options struct {
	PageSize       int
	BulkPageSize   int
	Debounce       time.Duration
	MinQueryLength int
	WindowRange    int
	DefaultTab     domain.Category
}

// DefaultOptions returns the stock paging, debounce and validation settings
func DefaultOptions() Options {
	return Options{
		PageSize:       DefaultPageSize,
		BulkPageSize:   DefaultBulkPageSize,
		Debounce:       DefaultDebounce,
		MinQueryLength: DefaultMinQueryLength,
		WindowRange:    DefaultWindowRange,
		DefaultTab:     domain.CategoryAll,
	}
}

// Notices are the three error slots. Each new outcome overwrites its slot.
type Notices struct {
	Load   string // global banner for category and membership reads
	Search string // inline search validation or failure
	Action string // last like/dislike/undislike failure
}

// Row is one rendered list entry
type Row struct {
	Movie domain.Movie
	Key   string
	Badge Badge
}

// Snapshot is the render model of a session
type Snapshot struct {
	Tab          domain.Category
	View         ResolvedView
	Rows         []Row
	Window       []PageButton
	HasPrev      bool
	HasNext      bool
	Query        string
	SearchPhase  SearchPhase
	Loading      bool
	Searching    bool
	Mutating     bool
	Notices      Notices
	AuthRequired bool
	Liked        int
	Disliked     int
}

// Session owns every component of one signed-in browsing session.
type Session struct {
	auth       Authority
	categories *CategoryStore
	membership *MembershipIndex
	search     *SearchController
	mutations  *MutationCoordinator
	effects    scheduler
	opts       Options
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.RWMutex
	tab           domain.Category
	pager         Pager
	epoch         int
	listErr       string
	membershipErr string
	searchErr     string
	actionErr     string
	authRequired  bool
	loading       int
	searching     int
	mutating      int

	listenersMu sync.Mutex
	listeners   []func()
}

// New wires a session over catalog. Nothing is fetched until Mount.
func New(catalog domain.Catalog, auth Authority, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultOptions()
	if opts.PageSize <= 0 {
		opts.PageSize = defaults.PageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.BulkPageSize <= 0 {
		opts.BulkPageSize = defaults.BulkPageSize
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = defaults.MinQueryLength
	}
	if opts.WindowRange < 0 {
		opts.WindowRange = defaults.WindowRange
	}
	if !opts.DefaultTab.Valid() {
		opts.DefaultTab = defaults.DefaultTab
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		auth:       auth,
		categories: NewCategoryStore(catalog, opts.PageSize, logger),
		membership: NewMembershipIndex(catalog, opts.BulkPageSize, logger),
		search: NewSearchController(catalog, SearchOptions{
			Debounce:  opts.Debounce,
			MinLength: opts.MinQueryLength,
			PageSize:  opts.PageSize,
		}, logger),
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		tab:    opts.DefaultTab,
		pager:  NewPager(),
	}
	s.mutations = newMutationCoordinator(catalog, auth, s, logger)

	s.effects.register(effectMembership, func() string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fmt.Sprintf("%s|%d", s.tab, s.epoch)
	}, s.refreshMembership)

	s.effects.register(effectCategory, func() string {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fmt.Sprintf("%s|%d|%d", s.tab, s.pager.Category, s.epoch)
	}, s.loadCategory)

	s.effects.register(effectSearch, func() string {
		query := s.search.lastRun()
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fmt.Sprintf("%d|%d|%s", s.pager.Search, s.epoch, query)
	}, s.rerunSearch)

	return s
}

// Mount checks the credential and loads membership and the active tab.
// Without a usable credential it returns a domain.ErrAuth error and sets
// AuthRequired.
func (s *Session) Mount(ctx context.Context) error {
	if err := s.auth.Check(); err != nil {
		s.mu.Lock()
		s.authRequired = true
		s.mu.Unlock()
		s.emit()
		return err
	}

	s.mu.Lock()
	s.authRequired = false
	s.mu.Unlock()

	s.effects.reset()
	return s.commit(ctx)
}

// SelectTab activates tab, resets its page counter to 1 and clears any search
func (s *Session) SelectTab(ctx context.Context, tab domain.Category) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown category: %q", tab)
	}

	s.search.Clear()
	s.mu.Lock()
	s.tab = tab
	s.pager = NewPager()
	s.searchErr = ""
	s.mu.Unlock()
	s.emit()

	return s.commit(ctx)
}

// SetPage moves the counter of the active mode, clamped to [1, total pages]
func (s *Session) SetPage(ctx context.Context, page int) error {
	view := s.View()
	page = max(1, min(page, view.TotalPages))

	s.mu.Lock()
	s.pager = s.pager.With(view.Mode, page)
	s.mu.Unlock()
	if view.Mode == ModeSearch {
		s.search.SetPage(page)
	}
	s.emit()

	return s.commit(ctx)
}

// NextPage advances the active counter unless it is on the last page
func (s *Session) NextPage(ctx context.Context) error {
	view := s.View()
	if !HasNext(view.Page, view.TotalPages) {
		return nil
	}
	return s.SetPage(ctx, view.Page+1)
}

// PrevPage moves the active counter back unless it is on page 1
func (s *Session) PrevPage(ctx context.Context) error {
	view := s.View()
	if !HasPrev(view.Page) {
		return nil
	}
	return s.SetPage(ctx, view.Page-1)
}

// Input records new query text and restarts the debounce timer
func (s *Session) Input(query string) {
	s.search.Input(query, func() {
		s.evaluateSearch(s.ctx)
	})
	s.emit()
}

// Submit evaluates the query immediately, bypassing the debounce timer
func (s *Session) Submit(ctx context.Context) error {
	s.search.CancelPending()
	return s.evaluateSearch(ctx)
}

// Search sets query and evaluates it immediately
func (s *Session) Search(ctx context.Context, query string) error {
	s.search.CancelPending()
	s.search.SetQuery(query)
	return s.evaluateSearch(ctx)
}

// ClearSearch returns to category mode with the search page reset to 1
func (s *Session) ClearSearch() {
	s.search.Clear()
	s.mu.Lock()
	s.pager.Search = 1
	s.searchErr = ""
	s.mu.Unlock()
	s.emit()
	s.commit(s.ctx)
}

// Apply runs a like, dislike or undislike for movie
func (s *Session) Apply(ctx context.Context, action domain.Action, movie domain.Movie) error {
	s.mu.Lock()
	s.mutating++
	s.mu.Unlock()
	s.emit()

	err := s.mutations.Apply(ctx, action, movie)

	var mutErr *domain.MutationError
	authErr := errors.Is(err, domain.ErrAuth)
	s.mu.Lock()
	s.mutating--
	switch {
	case authErr:
	case errors.As(err, &mutErr):
		s.actionErr = mutErr.Message
	default:
		s.actionErr = ""
	}
	s.mu.Unlock()

	if authErr {
		s.requireAuth(err)
	}
	s.emit()
	return err
}

// Reload re-reads membership and the visible list
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	return s.commit(ctx)
}

// Logout clears the credential and tears down every cached list
func (s *Session) Logout() error {
	err := s.auth.Logout()

	s.search.Clear()
	s.categories.Reset()
	s.membership.Reset()
	s.effects.reset()

	s.mu.Lock()
	s.tab = s.opts.DefaultTab
	s.pager = NewPager()
	s.listErr, s.membershipErr, s.searchErr, s.actionErr = "", "", "", ""
	s.authRequired = true
	s.mu.Unlock()

	s.emit()
	return err
}

// Close stops the debounce timer and cancels debounced searches
func (s *Session) Close() {
	s.search.Close()
	s.cancel()
}

// OnChange registers fn to be called after every state change
func (s *Session) OnChange(fn func()) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// Tab returns the active category
func (s *Session) Tab() domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// View resolves the list currently on display
func (s *Session) View() ResolvedView {
	s.mu.RLock()
	tab, pager := s.tab, s.pager
	s.mu.RUnlock()
	return Resolve(s.search.State(), s.categories.State(tab), pager)
}

// IsLiked reports liked membership of id
func (s *Session) IsLiked(id int64) bool { return s.membership.IsLiked(id) }

// IsDisliked reports disliked membership of id
func (s *Session) IsDisliked(id int64) bool { return s.membership.IsDisliked(id) }

// Snapshot returns the render model
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Tab:          s.tab,
		Loading:      s.loading > 0,
		Searching:    s.searching > 0,
		Mutating:     s.mutating > 0,
		AuthRequired: s.authRequired,
		Notices: Notices{
			Load:   s.listErr,
			Search: s.searchErr,
			Action: s.actionErr,
		},
	}
	if snap.Notices.Load == "" {
		snap.Notices.Load = s.membershipErr
	}
	pager := s.pager
	s.mu.RUnlock()

	search := s.search.State()
	snap.Query = search.Query
	snap.SearchPhase = search.Phase
	snap.View = Resolve(search, s.categories.State(snap.Tab), pager)
	snap.Window = ComputeWindow(snap.View.Page, snap.View.TotalPages, s.opts.WindowRange)
	snap.HasPrev = HasPrev(snap.View.Page)
	snap.HasNext = HasNext(snap.View.Page, snap.View.TotalPages)
	snap.Liked, snap.Disliked = s.membership.Counts()

	snap.Rows = make([]Row, len(snap.View.Items))
	for i, m := range snap.View.Items {
		snap.Rows[i] = Row{Movie: m, Key: m.Key(i), Badge: s.membership.Badge(m)}
	}
	return snap
}

// refreshMembership implements refresher
func (s *Session) refreshMembership(ctx context.Context) error {
	return s.track(ctx, &s.loading, &s.membershipErr, s.membership.Refresh)
}

// refreshView implements refresher: the active search if any, else the active category
func (s *Session) refreshView(ctx context.Context) error {
	if s.search.State().Active {
		return s.rerunSearch(ctx)
	}
	return s.loadCategory(ctx)
}

func (s *Session) loadCategory(ctx context.Context) error {
	s.mu.RLock()
	tab, page := s.tab, s.pager.Category
	s.mu.RUnlock()

	return s.track(ctx, &s.loading, &s.listErr, func(ctx context.Context) error {
		_, err := s.categories.Load(ctx, tab, page, s.opts.PageSize)
		return err
	})
}

func (s *Session) rerunSearch(ctx context.Context) error {
	if !s.search.State().Active {
		return nil
	}
	tab := s.Tab()
	return s.track(ctx, &s.searching, &s.searchErr, func(ctx context.Context) error {
		defer s.syncSearchPage()
		return s.search.Rerun(ctx, tab)
	})
}

func (s *Session) evaluateSearch(ctx context.Context) error {
	tab := s.Tab()
	return s.track(ctx, &s.searching, &s.searchErr, func(ctx context.Context) error {
		defer s.syncSearchPage()
		return s.search.Evaluate(ctx, tab)
	})
}

// syncSearchPage copies the page the controller settled on into the pager
func (s *Session) syncSearchPage() {
	page := s.search.State().Page
	s.mu.Lock()
	s.pager.Search = page
	s.mu.Unlock()
}

// track runs fn with a busy counter raised and writes its outcome into slot.
// An auth failure leaves the slot alone and flags AuthRequired instead.
func (s *Session) track(ctx context.Context, counter *int, slot *string, fn func(context.Context) error) error {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
	s.emit()

	err := fn(ctx)

	authErr := errors.Is(err, domain.ErrAuth)
	s.mu.Lock()
	*counter--
	if !authErr {
		*slot = noticeText(err)
	}
	s.mu.Unlock()

	if authErr {
		s.requireAuth(err)
	}
	s.emit()
	return err
}

func (s *Session) requireAuth(err error) {
	s.logger.Warn("session credential rejected", "error", err)
	s.mu.Lock()
	s.authRequired = true
	s.mu.Unlock()
	s.auth.Invalidate()
}

// commit runs due effects and joins their errors in run order
func (s *Session) commit(ctx context.Context) error {
	results := s.effects.commit(ctx)
	return errors.Join(results[effectMembership], results[effectCategory], results[effectSearch])
}

func (s *Session) emit() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// noticeText is the user-facing message of err, empty for nil
func noticeText(err error) string {
	if err == nil {
		return ""
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var fErr *domain.FetchError
	if errors.As(err, &fErr) {
		return fErr.Message
	}
	var mErr *domain.MutationError
	if errors.As(err, &mErr) {
		return mErr.Message
	}
	return err.Error()
}
