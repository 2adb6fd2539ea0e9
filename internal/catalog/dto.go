package catalog

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/mmcdole/reel/internal/domain"
)

// pageResponse accepts both list shapes the backend emits:
// {movies, total_results, total_pages} and {movies, total, page, page_size}.
type pageResponse struct {
	Movies       []movieDTO `json:"movies"`
	TotalResults *int       `json:"total_results"`
	TotalPages   *int       `json:"total_pages"`
	Total        *int       `json:"total"`
	Page         *int       `json:"page"`
	PageSize     *int       `json:"page_size"`
}

type movieDTO struct {
	TMDBID      *int64   `json:"tmdb_id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	ReleaseDate *string  `json:"release_date"`
	Overview    *string  `json:"overview"`
	PosterPath  *string  `json:"poster_path"`
	Score       *float64 `json:"score"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// parsePage decodes a list body into a domain.Page
func parsePage(body []byte, requestedSize int) (domain.Page, error) {
	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Page{}, fmt.Errorf("failed to parse page response: %w", err)
	}
	return mapPage(resp, requestedSize), nil
}

func mapPage(resp pageResponse, requestedSize int) domain.Page {
	movies := make([]domain.Movie, 0, len(resp.Movies))
	for _, m := range resp.Movies {
		movies = append(movies, mapMovie(m))
	}

	total := len(movies)
	switch {
	case resp.TotalResults != nil:
		total = *resp.TotalResults
	case resp.Total != nil:
		total = *resp.Total
	}

	pages := 0
	if resp.TotalPages != nil {
		pages = *resp.TotalPages
	} else {
		size := requestedSize
		if resp.PageSize != nil && *resp.PageSize > 0 {
			size = *resp.PageSize
		}
		if size > 0 {
			pages = (total + size - 1) / size
		}
	}
	if pages < 1 {
		pages = 1
	}

	return domain.Page{
		Movies:       movies,
		TotalResults: total,
		TotalPages:   pages,
	}
}

func mapMovie(m movieDTO) domain.Movie {
	return domain.Movie{
		TMDBID:      m.TMDBID,
		Title:       m.Title,
		Genres:      m.Genres,
		ReleaseDate: deref(m.ReleaseDate),
		Overview:    deref(m.Overview),
		PosterPath:  deref(m.PosterPath),
		Score:       m.Score,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
