package mcpsrv

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
)

type movieItem struct {
	TMDBID    *int64   `json:"tmdb_id,omitempty"`
	Title     string   `json:"title"`
	Year      string   `json:"year,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Overview  string   `json:"overview,omitempty"`
	PosterURL string   `json:"poster_url"`
	Score     string   `json:"score,omitempty"`
	Liked     bool     `json:"liked"`
	Disliked  bool     `json:"disliked"`
}

type viewOutput struct {
	Tab        string      `json:"tab"`
	Mode       string      `json:"mode"`
	Query      string      `json:"query,omitempty"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	HasPrev    bool        `json:"has_prev"`
	HasNext    bool        `json:"has_next"`
	LikedCount int         `json:"liked_count"`
	Disliked   int         `json:"disliked_count"`
	Notice     string      `json:"notice,omitempty"`
	Items      []movieItem `json:"items"`
}

type applyOutput struct {
	Action string     `json:"action"`
	Movie  movieItem  `json:"movie"`
	View   viewOutput `json:"view"`
}

func fromRow(row session.Row) movieItem {
	return movieItem{
		TMDBID:    row.Movie.TMDBID,
		Title:     row.Movie.Title,
		Year:      row.Movie.Year(),
		Genres:    row.Movie.Genres,
		Overview:  row.Movie.Overview,
		PosterURL: row.Movie.PosterURL(),
		Score:     row.Movie.FormattedScore(),
		Liked:     row.Badge.Liked,
		Disliked:  row.Badge.Disliked,
	}
}

func fromMovie(m domain.Movie) movieItem {
	return fromRow(session.Row{Movie: m})
}

func fromSnapshot(snap session.Snapshot) viewOutput {
	mode := "category"
	if snap.View.Mode == session.ModeSearch {
		mode = "search"
	}

	notice := snap.Notices.Load
	if snap.Notices.Search != "" {
		notice = snap.Notices.Search
	}

	items := make([]movieItem, len(snap.Rows))
	for i, row := range snap.Rows {
		items[i] = fromRow(row)
	}

	return viewOutput{
		Tab:        string(snap.Tab),
		Mode:       mode,
		Query:      snap.Query,
		Page:       snap.View.Page,
		TotalPages: snap.View.TotalPages,
		HasPrev:    snap.HasPrev,
		HasNext:    snap.HasNext,
		LikedCount: snap.Liked,
		Disliked:   snap.Disliked,
		Notice:     notice,
		Items:      items,
	}
}
