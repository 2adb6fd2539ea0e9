package session

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
)

// ResolvedView is the list and pagination actually rendered
type ResolvedView struct {
	Mode       Mode
	Items      []domain.Movie
	TotalPages int
	Page       int
}

// Resolve picks the displayed list: search wins whenever results are present,
// otherwise the active category's state is used.
func Resolve(search SearchState, category CategoryState, pager Pager) ResolvedView {
	if search.Active {
		return ResolvedView{
			Mode:       ModeSearch,
			Items:      search.Results,
			TotalPages: max(1, search.TotalPages),
			Page:       pager.Search,
		}
	}
	return ResolvedView{
		Mode:       ModeCategory,
		Items:      category.Items,
		TotalPages: max(1, category.TotalPages),
		Page:       pager.Category,
	}
}

// Find locates a movie in the view by title: an exact (case-insensitive)
// match first, otherwise the closest fuzzy match.
func (v ResolvedView) Find(title string) (domain.Movie, int, bool) {
	title = strings.TrimSpace(title)
	if title == "" || len(v.Items) == 0 {
		return domain.Movie{}, -1, false
	}

	titles := make([]string, len(v.Items))
	for i, m := range v.Items {
		if strings.EqualFold(m.Title, title) {
			return m, i, true
		}
		titles[i] = m.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(title, titles)
	if len(ranks) == 0 {
		return domain.Movie{}, -1, false
	}
	sort.Stable(ranks)
	best := ranks[0]
	return v.Items[best.OriginalIndex], best.OriginalIndex, true
}

// FindID locates a movie in the view by tmdb id
func (v ResolvedView) FindID(id int64) (domain.Movie, int, bool) {
	for i, m := range v.Items {
		if mid, ok := m.ID(); ok && mid == id {
			return m, i, true
		}
	}
	return domain.Movie{}, -1, false
}
