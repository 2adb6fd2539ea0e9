package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Category is one of the four fixed browsing modes
type Category string

const (
	CategoryAll         Category = "all"
	CategoryLiked       Category = "liked"
	CategoryDisliked    Category = "disliked"
	CategoryRecommended Category = "recommended"
)

// Categories lists every category in tab order
var Categories = []Category{
	CategoryAll,
	CategoryLiked,
	CategoryDisliked,
	CategoryRecommended,
}

// ParseCategory converts a tag (case-insensitive) to a Category
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// Valid returns true for the four known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryAll, CategoryLiked, CategoryDisliked, CategoryRecommended:
		return true
	default:
		return false
	}
}

// Label returns the display name for a category tab
func (c Category) Label() string {
	switch c {
	case CategoryAll:
		return "All"
	case CategoryLiked:
		return "Liked"
	case CategoryDisliked:
		return "Disliked"
	case CategoryRecommended:
		return "Recommended"
	default:
		return string(c)
	}
}

// Action is a preference mutation
type Action string

const (
	ActionLike      Action = "like"
	ActionDislike   Action = "dislike"
	ActionUndislike Action = "undislike"
)

// ParseAction converts a string to an Action
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionLike, ActionDislike, ActionUndislike:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action: %q", s)
	}
}

// Poster image constants (TMDB CDN)
const (
	PosterBaseURL     = "https://image.tmdb.org/t/p/w500"
	PosterPlaceholder = "https://via.placeholder.com/500x750?text=No+Image"
)

// Movie is an immutable snapshot of a catalog row.
// TMDBID is nil for legacy rows; Score is only set on recommended and search results.
type Movie struct {
	TMDBID      *int64   `json:"tmdb_id,omitempty"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	PosterPath  string   `json:"poster_path,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// ID returns the tmdb id and whether it is present
func (m Movie) ID() (int64, bool) {
	if m.TMDBID == nil {
		return 0, false
	}
	return *m.TMDBID, true
}

// Key returns a stable list key: the tmdb id, or the list index for legacy rows
func (m Movie) Key(index int) string {
	if id, ok := m.ID(); ok {
		return strconv.FormatInt(id, 10)
	}
	return "idx:" + strconv.Itoa(index)
}

// PosterURL derives the image URL from poster_path
func (m Movie) PosterURL() string {
	if m.PosterPath == "" {
		return PosterPlaceholder
	}
	if strings.HasPrefix(m.PosterPath, "http://") || strings.HasPrefix(m.PosterPath, "https://") {
		return m.PosterPath
	}
	if !strings.HasPrefix(m.PosterPath, "/") {
		return PosterBaseURL + "/" + m.PosterPath
	}
	return PosterBaseURL + m.PosterPath
}

// FormattedScore renders the score to 3 decimals, empty when absent
func (m Movie) FormattedScore() string {
	if m.Score == nil {
		return ""
	}
	return strconv.FormatFloat(*m.Score, 'f', 3, 64)
}

// Year returns the release year prefix of release_date, empty if unknown
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		if _, err := strconv.Atoi(m.ReleaseDate[:4]); err == nil {
			return m.ReleaseDate[:4]
		}
	}
	return ""
}

// GenreList joins genres for display
func (m Movie) GenreList() string {
	return strings.Join(m.Genres, ", ")
}

// Page is one page of a remote list
type Page struct {
	Movies       []Movie
	TotalResults int
	TotalPages   int
}

// Preference is the body of a like/dislike/undislike write
type Preference struct {
	UserID     string `json:"user_id"`
	MovieTitle string `json:"movie_title"`
	TMDBID     int64  `json:"tmdb_id"`
}

// Credential is a stored session credential
type Credential struct {
	Token    string
	Username string
}
