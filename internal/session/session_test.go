package session

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

func newTestSession(t *testing.T, cat *fakeCatalog) (*Session, *fakeAuthority) {
	t.Helper()
	auth := &fakeAuthority{identity: "u1"}
	opts := DefaultOptions()
	opts.Debounce = 30 * time.Millisecond
	s := New(cat, auth, opts, quietLogger())
	t.Cleanup(s.Close)
	return s, auth
}

func seededCatalog() *fakeCatalog {
	cat := newFakeCatalog()
	cat.lists[domain.CategoryAll] = movies(35, "Movie", 100)
	cat.lists[domain.CategoryLiked] = movies(12, "Liked", 200)
	cat.lists[domain.CategoryDisliked] = movies(3, "Disliked", 300)
	cat.lists[domain.CategoryRecommended] = movies(25, "Rec", 400)
	return cat
}

func mount(t *testing.T, s *Session) {
	t.Helper()
	if err := s.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
}

func TestMountRefreshesMembershipBeforeLoading(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	mount(t, s)

	calls := cat.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls = %v", calls)
	}
	bulk := []string{calls[0], calls[1]}
	slices.Sort(bulk)
	want := []string{"list disliked page=1 size=1000", "list liked page=1 size=1000"}
	if !slices.Equal(bulk, want) {
		t.Errorf("bulk reads = %v, want %v", bulk, want)
	}
	if calls[2] != "list all page=1 size=10" {
		t.Errorf("category read = %q", calls[2])
	}

	snap := s.Snapshot()
	if len(snap.Rows) != 10 || snap.View.TotalPages != 4 || snap.View.Mode != ModeCategory {
		t.Errorf("view = %d rows, %d pages, mode %v", len(snap.Rows), snap.View.TotalPages, snap.View.Mode)
	}
	if snap.Liked != 12 || snap.Disliked != 3 {
		t.Errorf("membership counts = %d/%d", snap.Liked, snap.Disliked)
	}
}

func TestMountRequiresCredential(t *testing.T) {
	cat := seededCatalog()
	s, auth := newTestSession(t, cat)
	auth.checkErr = domain.ErrAuth

	err := s.Mount(context.Background())
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("Mount() error = %v, want ErrAuth", err)
	}
	if !s.Snapshot().AuthRequired {
		t.Error("AuthRequired not set")
	}
	if len(cat.Calls()) != 0 {
		t.Errorf("unexpected calls: %v", cat.Calls())
	}
}

func TestMembershipFailureDoesNotBlockLoad(t *testing.T) {
	cat := seededCatalog()
	cat.listErr[domain.CategoryDisliked] = errors.New("boom")
	s, _ := newTestSession(t, cat)

	err := s.Mount(context.Background())
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Mount() error = %v, want fetch error", err)
	}
	snap := s.Snapshot()
	if len(snap.Rows) != 10 {
		t.Errorf("rows = %d, want category loaded", len(snap.Rows))
	}
	if snap.Notices.Load != "failed to load membership" {
		t.Errorf("Load notice = %q", snap.Notices.Load)
	}
}

func TestSelectTabResetsPageAndClearsSearch(t *testing.T) {
	for _, tab := range domain.Categories {
		t.Run(string(tab), func(t *testing.T) {
			cat := seededCatalog()
			s, _ := newTestSession(t, cat)
			ctx := context.Background()
			mount(t, s)

			if err := s.SetPage(ctx, 2); err != nil {
				t.Fatalf("SetPage() error = %v", err)
			}
			if err := s.Search(ctx, "Movie"); err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if s.Snapshot().View.Mode != ModeSearch {
				t.Fatal("search not active")
			}

			if err := s.SelectTab(ctx, tab); err != nil {
				t.Fatalf("SelectTab() error = %v", err)
			}
			snap := s.Snapshot()
			if snap.Tab != tab {
				t.Errorf("Tab = %q", snap.Tab)
			}
			if snap.View.Mode != ModeCategory || snap.Query != "" {
				t.Errorf("search not cleared: mode %v query %q", snap.View.Mode, snap.Query)
			}
			if snap.View.Page != 1 {
				t.Errorf("Page = %d, want 1", snap.View.Page)
			}
		})
	}
}

func TestTabChangeRefreshesMembership(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	mount(t, s)
	cat.ResetCalls()

	if err := s.SelectTab(context.Background(), domain.CategoryRecommended); err != nil {
		t.Fatalf("SelectTab() error = %v", err)
	}
	if n := cat.countPrefix("list liked page=1 size=1000"); n != 1 {
		t.Errorf("liked bulk reads = %d, want 1", n)
	}
	calls := cat.Calls()
	if last := calls[len(calls)-1]; last != "list recommended page=1 size=10" {
		t.Errorf("last call = %q", last)
	}
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	cat := seededCatalog()
	cat.lists[domain.CategoryAll] = append(cat.lists[domain.CategoryAll], movie(7, "Batman"))
	cat.searches = make(chan string, 8)
	s, _ := newTestSession(t, cat)
	mount(t, s)

	for _, q := range []string{"b", "ba", "bat"} {
		s.Input(q)
	}

	select {
	case q := <-cat.searches:
		if q != "bat" {
			t.Fatalf("search query = %q, want bat", q)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debounced search never fired")
	}

	time.Sleep(150 * time.Millisecond)
	if n := cat.countPrefix("search "); n != 1 {
		t.Errorf("search requests = %d, want 1 (%v)", n, cat.Calls())
	}
	if got := cat.Calls()[len(cat.Calls())-1]; got != "search q=bat scope=all page=1" {
		t.Errorf("search call = %q", got)
	}

	deadline := time.Now().Add(time.Second)
	for s.Snapshot().View.Mode != ModeSearch && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	snap := s.Snapshot()
	if len(snap.Rows) != 1 || snap.Rows[0].Movie.Title != "Batman" {
		t.Errorf("rows = %+v", snap.Rows)
	}
}

func TestSearchQueryRules(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantCalls  int
		wantActive bool
		wantNotice string
		wantErr    error
	}{
		{"empty", "", 0, false, "", nil},
		{"whitespace", "   ", 0, false, "", nil},
		{"one rune", "b", 0, false, "Search query must be at least 2 characters", domain.ErrValidation},
		{"one multibyte rune", "é", 0, false, "Search query must be at least 2 characters", domain.ErrValidation},
		{"two", "ov", 1, true, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := seededCatalog()
			s, _ := newTestSession(t, cat)
			mount(t, s)
			if err := s.SelectTab(context.Background(), domain.CategoryLiked); err != nil {
				t.Fatal(err)
			}
			cat.ResetCalls()

			s.Input(tt.query)
			err := s.Submit(context.Background())
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want %v", err, tt.wantErr)
			}

			calls := cat.Calls()
			if len(calls) != tt.wantCalls {
				t.Fatalf("calls = %v", calls)
			}
			if tt.wantCalls == 1 && calls[0] != "search q=ov scope=liked page=1" {
				t.Errorf("call = %q", calls[0])
			}

			snap := s.Snapshot()
			if (snap.View.Mode == ModeSearch) != tt.wantActive {
				t.Errorf("mode = %v", snap.View.Mode)
			}
			if snap.Notices.Search != tt.wantNotice {
				t.Errorf("Search notice = %q, want %q", snap.Notices.Search, tt.wantNotice)
			}
		})
	}
}

func TestEmptyQueryRestoresCategoryView(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.Search(ctx, "Movie 1"); err != nil {
		t.Fatal(err)
	}
	if s.Snapshot().View.Mode != ModeSearch {
		t.Fatal("search not active")
	}

	s.Input("")
	if err := s.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.View.Mode != ModeCategory || len(snap.Rows) != 10 {
		t.Errorf("view = %v with %d rows", snap.View.Mode, len(snap.Rows))
	}
}

func TestSubmitCancelsPendingDebounce(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	mount(t, s)
	cat.ResetCalls()

	s.Input("Rec")
	if err := s.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if n := cat.countPrefix("search "); n != 1 {
		t.Errorf("search requests = %d, want 1", n)
	}
}

func TestSearchPaginationIsIndependent(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.SetPage(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := s.Search(ctx, "Movie"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.View.Page != 1 || snap.View.TotalPages != 4 {
		t.Fatalf("search page %d of %d", snap.View.Page, snap.View.TotalPages)
	}

	cat.ResetCalls()
	if err := s.NextPage(ctx); err != nil {
		t.Fatal(err)
	}
	if calls := cat.Calls(); len(calls) != 1 || calls[0] != "search q=Movie scope=all page=2" {
		t.Errorf("calls = %v", calls)
	}

	s.ClearSearch()
	snap = s.Snapshot()
	if snap.View.Mode != ModeCategory || snap.View.Page != 3 {
		t.Errorf("category counter = %d in mode %v, want 3", snap.View.Page, snap.View.Mode)
	}
}

func TestSetPageClampsToTotal(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.SetPage(ctx, 99); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().View.Page; got != 4 {
		t.Errorf("Page = %d, want 4", got)
	}
	if err := s.NextPage(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().View.Page; got != 4 {
		t.Errorf("NextPage past end moved to %d", got)
	}
	if err := s.SetPage(ctx, 1); err != nil {
		t.Fatal(err)
	}
	cat.ResetCalls()
	if err := s.PrevPage(ctx); err != nil {
		t.Fatal(err)
	}
	if len(cat.Calls()) != 0 {
		t.Errorf("PrevPage at page 1 issued %v", cat.Calls())
	}
}

func TestApplyLikeUpdatesMembershipAndList(t *testing.T) {
	cat := seededCatalog()
	target := movie(42, "Heat")
	cat.lists[domain.CategoryAll] = append([]domain.Movie{target}, cat.lists[domain.CategoryAll]...)
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.Apply(ctx, domain.ActionLike, target); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !s.IsLiked(42) {
		t.Error("IsLiked(42) = false after like")
	}
	if !s.Snapshot().Rows[0].Badge.Liked {
		t.Error("row badge not updated")
	}

	if err := s.SelectTab(ctx, domain.CategoryLiked); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPage(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := s.View().FindID(42); !ok {
		t.Error("liked list does not contain 42")
	}
}

func TestApplyOrder(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)
	if err := s.SelectTab(ctx, domain.CategoryRecommended); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPage(ctx, 2); err != nil {
		t.Fatal(err)
	}
	cat.ResetCalls()

	if err := s.Apply(ctx, domain.ActionLike, movie(42, "Heat")); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	calls := cat.Calls()
	if len(calls) != 4 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0] != "like 42" {
		t.Errorf("first call = %q", calls[0])
	}
	if calls[3] != "list recommended page=2 size=10" {
		t.Errorf("last call = %q", calls[3])
	}
	if !s.IsLiked(42) {
		t.Error("42 not in liked set")
	}
}

func TestApplyWithActiveSearchRerunsSearch(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)
	if err := s.Search(ctx, "Movie 2"); err != nil {
		t.Fatal(err)
	}
	cat.ResetCalls()

	if err := s.Apply(ctx, domain.ActionDislike, movie(101, "Movie 2")); err != nil {
		t.Fatal(err)
	}
	calls := cat.Calls()
	if last := calls[len(calls)-1]; last != "search q=Movie 2 scope=all page=1" {
		t.Errorf("last call = %q", last)
	}
	if cat.countPrefix("list all") != 0 {
		t.Errorf("category re-fetched during active search: %v", calls)
	}
	if !s.IsDisliked(101) {
		t.Error("101 not disliked")
	}
}

func TestUndislikeIsIdempotent(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	for i := 0; i < 2; i++ {
		if err := s.Apply(ctx, domain.ActionUndislike, movie(9999, "Never disliked")); err != nil {
			t.Fatalf("Apply(undislike) #%d error = %v", i, err)
		}
	}
	snap := s.Snapshot()
	if snap.Notices.Action != "" {
		t.Errorf("Action notice = %q", snap.Notices.Action)
	}
	if s.IsDisliked(9999) || snap.Disliked != 3 {
		t.Errorf("disliked set changed: %d", snap.Disliked)
	}
}

func TestApplyFailureSkipsRefresh(t *testing.T) {
	cat := seededCatalog()
	cat.mutateErr = errors.New("write refused")
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)
	before := s.Snapshot()
	cat.ResetCalls()

	err := s.Apply(ctx, domain.ActionLike, movie(100, "Movie 1"))
	if !errors.Is(err, domain.ErrMutation) {
		t.Fatalf("Apply() error = %v, want ErrMutation", err)
	}
	if calls := cat.Calls(); len(calls) != 1 {
		t.Errorf("calls = %v, want only the write", calls)
	}
	snap := s.Snapshot()
	if snap.Notices.Action != "failed to like" {
		t.Errorf("Action notice = %q", snap.Notices.Action)
	}
	if len(snap.Rows) != len(before.Rows) || snap.Liked != before.Liked {
		t.Error("state changed after failed write")
	}
}

func TestApplyRequiresIdentity(t *testing.T) {
	cat := seededCatalog()
	s, auth := newTestSession(t, cat)
	mount(t, s)
	auth.identity = ""
	cat.ResetCalls()

	err := s.Apply(context.Background(), domain.ActionLike, movie(1, "x"))
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("Apply() error = %v, want ErrAuth", err)
	}
	if len(cat.Calls()) != 0 {
		t.Errorf("calls = %v", cat.Calls())
	}
	snap := s.Snapshot()
	if !snap.AuthRequired || snap.Notices.Action != "" {
		t.Errorf("AuthRequired = %v, Action = %q", snap.AuthRequired, snap.Notices.Action)
	}
}

func TestApplyWithoutTMDBID(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	mount(t, s)
	cat.ResetCalls()

	err := s.Apply(context.Background(), domain.ActionLike, domain.Movie{Title: "Legacy"})
	if !errors.Is(err, domain.ErrMutation) {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(cat.Calls()) != 0 {
		t.Errorf("calls = %v", cat.Calls())
	}
}

func TestLoadFailureRetainsList(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)
	before := s.Snapshot().Rows

	cat.listErr[domain.CategoryAll] = errors.New("timeout")
	if err := s.Reload(ctx); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Reload() error = %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Rows) != len(before) || snap.Rows[0].Key != before[0].Key {
		t.Error("list blanked after failed load")
	}
	if snap.Notices.Load != "failed to load all" {
		t.Errorf("Load notice = %q", snap.Notices.Load)
	}

	delete(cat.listErr, domain.CategoryAll)
	if err := s.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Notices.Load; got != "" {
		t.Errorf("Load notice not cleared: %q", got)
	}
}

func TestSearchFailureRetainsResults(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)
	if err := s.Search(ctx, "Movie 3"); err != nil {
		t.Fatal(err)
	}
	rows := len(s.Snapshot().Rows)

	cat.searchErr = errors.New("down")
	if err := s.Search(ctx, "Movie 3"); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Search() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.View.Mode != ModeSearch || len(snap.Rows) != rows {
		t.Error("search results blanked after failure")
	}
	if snap.Notices.Search != "failed to load search" {
		t.Errorf("Search notice = %q", snap.Notices.Search)
	}
}

func TestUnauthorizedReadFlagsAuth(t *testing.T) {
	cat := seededCatalog()
	s, auth := newTestSession(t, cat)
	mount(t, s)

	cat.listErr[domain.CategoryAll] = domain.ErrAuth
	s.Reload(context.Background())

	snap := s.Snapshot()
	if !snap.AuthRequired {
		t.Error("AuthRequired not set")
	}
	if snap.Notices.Load != "" {
		t.Errorf("Load notice = %q, want untouched", snap.Notices.Load)
	}
	if auth.invalidated == 0 {
		t.Error("credential not invalidated")
	}
}

func TestLogoutTearsDownState(t *testing.T) {
	cat := seededCatalog()
	s, auth := newTestSession(t, cat)
	mount(t, s)

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if len(snap.Rows) != 0 || snap.Liked != 0 || !snap.AuthRequired {
		t.Errorf("snapshot after logout = %+v", snap)
	}
	if auth.loggedOut != 1 {
		t.Errorf("loggedOut = %d", auth.loggedOut)
	}
}

func TestOnChangeNotifies(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	var n atomic.Int32
	s.OnChange(func() { n.Add(1) })

	mount(t, s)
	if n.Load() == 0 {
		t.Error("no change notifications during mount")
	}
}

func TestNewQueryStartsAtFirstPage(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.Search(ctx, "Movie"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPage(ctx, 4); err != nil {
		t.Fatal(err)
	}

	cat.ResetCalls()
	if err := s.Search(ctx, "Movie 1"); err != nil {
		t.Fatal(err)
	}
	if calls := cat.Calls(); len(calls) != 1 || calls[0] != "search q=Movie 1 scope=all page=1" {
		t.Errorf("calls = %v", calls)
	}
	snap := s.Snapshot()
	if snap.View.Page != 1 || snap.View.TotalPages != 2 || len(snap.Rows) != 10 {
		t.Fatalf("page %d of %d with %d rows", snap.View.Page, snap.View.TotalPages, len(snap.Rows))
	}

	cat.ResetCalls()
	if err := s.NextPage(ctx); err != nil {
		t.Fatal(err)
	}
	if calls := cat.Calls(); len(calls) != 1 || calls[0] != "search q=Movie 1 scope=all page=2" {
		t.Errorf("calls = %v", calls)
	}

	// the same query again keeps its page
	cat.ResetCalls()
	if err := s.Search(ctx, " Movie 1 "); err != nil {
		t.Fatal(err)
	}
	if calls := cat.Calls(); len(calls) != 1 || calls[0] != "search q=Movie 1 scope=all page=2" {
		t.Errorf("calls = %v", calls)
	}

	// moving a fresh query to the page the previous one ended on still fetches
	if err := s.Search(ctx, "Movie"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPage(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Search(ctx, "Movi"); err != nil {
		t.Fatal(err)
	}
	cat.ResetCalls()
	if err := s.SetPage(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if calls := cat.Calls(); len(calls) != 1 || calls[0] != "search q=Movi scope=all page=4" {
		t.Errorf("calls = %v", calls)
	}
}

func TestSearchPagePastEndFallsBackToLastPage(t *testing.T) {
	cat := seededCatalog()
	s, _ := newTestSession(t, cat)
	ctx := context.Background()
	mount(t, s)

	if err := s.Search(ctx, "Movie"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPage(ctx, 4); err != nil {
		t.Fatal(err)
	}

	cat.mu.Lock()
	cat.lists[domain.CategoryAll] = movies(12, "Movie", 100)
	cat.mu.Unlock()

	cat.ResetCalls()
	if err := s.Reload(ctx); err != nil {
		t.Fatal(err)
	}

	calls := cat.Calls()
	want := []string{"search q=Movie scope=all page=4", "search q=Movie scope=all page=2"}
	if got := calls[len(calls)-2:]; got[0] != want[0] || got[1] != want[1] {
		t.Errorf("calls = %v, want suffix %v", calls, want)
	}

	snap := s.Snapshot()
	if snap.View.Page != 2 || snap.View.TotalPages != 2 || len(snap.Rows) != 2 {
		t.Fatalf("page %d of %d with %d rows", snap.View.Page, snap.View.TotalPages, len(snap.Rows))
	}
	if snap.HasNext {
		t.Error("last page should have no next")
	}
}

func TestZeroDebounceUsesDefault(t *testing.T) {
	cat := seededCatalog()
	cat.searches = make(chan string, 8)
	s := New(cat, &fakeAuthority{identity: "u1"}, Options{}, quietLogger())
	t.Cleanup(s.Close)
	mount(t, s)

	if s.opts.Debounce != DefaultDebounce {
		t.Fatalf("Debounce = %v, want %v", s.opts.Debounce, DefaultDebounce)
	}

	for _, q := range []string{"Mo", "Mov", "Movi"} {
		s.Input(q)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case q := <-cat.searches:
		if q != "Movi" {
			t.Fatalf("search query = %q, want Movi", q)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("debounced search never fired")
	}

	time.Sleep(100 * time.Millisecond)
	if n := cat.countPrefix("search "); n != 1 {
		t.Errorf("search requests = %d, want 1 (%v)", n, cat.Calls())
	}
}
