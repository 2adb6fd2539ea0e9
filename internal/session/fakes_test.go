package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func movie(id int64, title string) domain.Movie {
	return domain.Movie{TMDBID: &id, Title: title}
}

func movies(n int, prefix string, firstID int64) []domain.Movie {
	out := make([]domain.Movie, n)
	for i := range out {
		out[i] = movie(firstID+int64(i), fmt.Sprintf("%s %d", prefix, i+1))
	}
	return out
}

// fakeCatalog is an in-memory backend that applies preference writes to its
// liked and disliked lists.
type fakeCatalog struct {
	mu        sync.Mutex
	calls     []string
	lists     map[domain.Category][]domain.Movie
	listErr   map[domain.Category]error
	searchErr error
	mutateErr error
	searches  chan string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		lists:   map[domain.Category][]domain.Movie{},
		listErr: map[domain.Category]error{},
	}
}

func (f *fakeCatalog) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeCatalog) ResetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeCatalog) countPrefix(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func paginate(items []domain.Movie, page, size int) domain.Page {
	total := len(items)
	pages := max(1, (total+size-1)/size)
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return domain.Page{
		Movies:       slices.Clone(items[start:end]),
		TotalResults: total,
		TotalPages:   pages,
	}
}

func (f *fakeCatalog) ListCategory(ctx context.Context, c domain.Category, page, size int) (domain.Page, error) {
	f.record(fmt.Sprintf("list %s page=%d size=%d", c, page, size))
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[c]; err != nil {
		return domain.Page{}, err
	}
	return paginate(f.lists[c], page, size), nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string, scope domain.Category, page, size int) (domain.Page, error) {
	f.record(fmt.Sprintf("search q=%s scope=%s page=%d", query, scope, page))
	f.mu.Lock()
	err := f.searchErr
	var hits []domain.Movie
	for _, m := range f.lists[scope] {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(query)) {
			hits = append(hits, m)
		}
	}
	f.mu.Unlock()

	if f.searches != nil {
		f.searches <- query
	}
	if err != nil {
		return domain.Page{}, err
	}
	return paginate(hits, page, size), nil
}

func (f *fakeCatalog) Mutate(ctx context.Context, action domain.Action, pref domain.Preference) error {
	f.record(fmt.Sprintf("%s %d", action, pref.TMDBID))
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}

	m := movie(pref.TMDBID, pref.MovieTitle)
	switch action {
	case domain.ActionLike:
		f.lists[domain.CategoryLiked] = upsert(f.lists[domain.CategoryLiked], m)
	case domain.ActionDislike:
		f.lists[domain.CategoryDisliked] = upsert(f.lists[domain.CategoryDisliked], m)
	case domain.ActionUndislike:
		f.lists[domain.CategoryDisliked] = remove(f.lists[domain.CategoryDisliked], pref.TMDBID)
	}
	return nil
}

func upsert(list []domain.Movie, m domain.Movie) []domain.Movie {
	id, _ := m.ID()
	return append(remove(list, id), m)
}

func remove(list []domain.Movie, id int64) []domain.Movie {
	return slices.DeleteFunc(slices.Clone(list), func(m domain.Movie) bool {
		mid, ok := m.ID()
		return ok && mid == id
	})
}

// fakeAuthority is a signed-in user unless checkErr is set
type fakeAuthority struct {
	mu          sync.Mutex
	identity    string
	checkErr    error
	invalidated int
	loggedOut   int
}

func (a *fakeAuthority) Check() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checkErr
}

func (a *fakeAuthority) Identity() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity, a.identity != ""
}

func (a *fakeAuthority) Invalidate() {
	a.mu.Lock()
	a.invalidated++
	a.mu.Unlock()
}

func (a *fakeAuthority) Logout() error {
	a.mu.Lock()
	a.loggedOut++
	a.identity = ""
	a.mu.Unlock()
	return nil
}

// memCredentials is a domain.CredentialStore held in memory
type memCredentials struct {
	cred domain.Credential
	ok   bool
}

func (m *memCredentials) LoadCredential() (domain.Credential, bool) { return m.cred, m.ok }

func (m *memCredentials) SaveCredential(c domain.Credential) error {
	m.cred, m.ok = c, true
	return nil
}

func (m *memCredentials) ClearCredential() error {
	m.cred, m.ok = domain.Credential{}, false
	return nil
}
