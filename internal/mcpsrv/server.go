package mcpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
)

type catalogBrowseArgs struct {
	Tab  string `json:"tab,omitempty" jsonschema:"Category: all, liked, disliked, recommended. Defaults to the active tab"`
	Page int    `json:"page,omitempty" jsonschema:"Optional page number, clamped to the available pages"`
}

type catalogSearchArgs struct {
	Query string `json:"query" jsonschema:"Title search, scoped to the active tab"`
	Page  int    `json:"page,omitempty" jsonschema:"Optional results page"`
}

type preferenceApplyArgs struct {
	Action string `json:"action" jsonschema:"One of: like, dislike, undislike"`
	Title  string `json:"title,omitempty" jsonschema:"Title of a movie in the current view"`
	TMDBID int64  `json:"tmdb_id,omitempty" jsonschema:"TMDB id of a movie in the current view; takes precedence over title"`
}

// Session is the part of *session.Session the tools drive
type Session interface {
	SelectTab(ctx context.Context, tab domain.Category) error
	SetPage(ctx context.Context, page int) error
	Search(ctx context.Context, query string) error
	ClearSearch()
	Apply(ctx context.Context, action domain.Action, movie domain.Movie) error
	Reload(ctx context.Context) error
	Snapshot() session.Snapshot
}

// NewServer registers the catalog tools over s
func NewServer(s Session, version string, logger *slog.Logger) *mcp.Server {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "reel", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_browse",
		Description: "Show a page of a movie category with liked/disliked badges.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catalogBrowseArgs) (*mcp.CallToolResult, viewOutput, error) {
		return catalogBrowseHandler(ctx, req, args, s, logger)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_search",
		Description: "Search movie titles within the active category. An empty query returns to browsing.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args catalogSearchArgs) (*mcp.CallToolResult, viewOutput, error) {
		return catalogSearchHandler(ctx, req, args, s, logger)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_view",
		Description: "Return the list currently on display without fetching.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, viewOutput, error) {
		return catalogViewHandler(ctx, req, s)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "catalog_refresh",
		Description: "Re-read membership and the visible list from the server.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, viewOutput, error) {
		return catalogRefreshHandler(ctx, req, s, logger)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "preference_apply",
		Description: "Like, dislike or undislike a movie from the current view, then refresh the view.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args preferenceApplyArgs) (*mcp.CallToolResult, applyOutput, error) {
		return preferenceApplyHandler(ctx, req, args, s, logger)
	})

	return server
}

func catalogBrowseHandler(ctx context.Context, _ *mcp.CallToolRequest, args catalogBrowseArgs, s Session, logger *slog.Logger) (*mcp.CallToolResult, viewOutput, error) {
	if strings.TrimSpace(args.Tab) != "" {
		tab, err := domain.ParseCategory(args.Tab)
		if err != nil {
			return errorToolResult(fmt.Sprintf("invalid tab %q; expected all|liked|disliked|recommended", args.Tab)), viewOutput{}, nil
		}
		if err := s.SelectTab(ctx, tab); err != nil {
			if res := failure(err, logger); res != nil {
				return res, viewOutput{}, nil
			}
		}
	} else if s.Snapshot().View.Mode == session.ModeSearch {
		s.ClearSearch()
	}

	if args.Page < 0 {
		return errorToolResult("page must be positive"), viewOutput{}, nil
	}
	if args.Page > 0 {
		if err := s.SetPage(ctx, args.Page); err != nil {
			if res := failure(err, logger); res != nil {
				return res, viewOutput{}, nil
			}
		}
	}

	return nil, fromSnapshot(s.Snapshot()), nil
}

func catalogSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, args catalogSearchArgs, s Session, logger *slog.Logger) (*mcp.CallToolResult, viewOutput, error) {
	if args.Page < 0 {
		return errorToolResult("page must be positive"), viewOutput{}, nil
	}

	if err := s.Search(ctx, args.Query); err != nil {
		if res := failure(err, logger); res != nil {
			return res, viewOutput{}, nil
		}
	}

	if view := s.Snapshot().View; args.Page > 0 && view.Mode == session.ModeSearch && view.Page != args.Page {
		if err := s.SetPage(ctx, args.Page); err != nil {
			if res := failure(err, logger); res != nil {
				return res, viewOutput{}, nil
			}
		}
	}

	return nil, fromSnapshot(s.Snapshot()), nil
}

func catalogViewHandler(_ context.Context, _ *mcp.CallToolRequest, s Session) (*mcp.CallToolResult, viewOutput, error) {
	snap := s.Snapshot()
	if snap.AuthRequired {
		return errorToolResult(authMessage), viewOutput{}, nil
	}
	return nil, fromSnapshot(snap), nil
}

func catalogRefreshHandler(ctx context.Context, _ *mcp.CallToolRequest, s Session, logger *slog.Logger) (*mcp.CallToolResult, viewOutput, error) {
	if err := s.Reload(ctx); err != nil {
		if res := failure(err, logger); res != nil {
			return res, viewOutput{}, nil
		}
	}
	return nil, fromSnapshot(s.Snapshot()), nil
}

func preferenceApplyHandler(ctx context.Context, _ *mcp.CallToolRequest, args preferenceApplyArgs, s Session, logger *slog.Logger) (*mcp.CallToolResult, applyOutput, error) {
	action, err := domain.ParseAction(args.Action)
	if err != nil {
		return errorToolResult(fmt.Sprintf("invalid action %q; expected like|dislike|undislike", args.Action)), applyOutput{}, nil
	}

	view := s.Snapshot().View
	var (
		movie domain.Movie
		found bool
	)
	switch {
	case args.TMDBID != 0:
		movie, _, found = view.FindID(args.TMDBID)
		if !found {
			return errorToolResult(fmt.Sprintf("tmdb_id %d is not in the current view", args.TMDBID)), applyOutput{}, nil
		}
	case strings.TrimSpace(args.Title) != "":
		movie, _, found = view.Find(args.Title)
		if !found {
			return errorToolResult(fmt.Sprintf("no movie matching %q in the current view", args.Title)), applyOutput{}, nil
		}
	default:
		return errorToolResult("title or tmdb_id is required"), applyOutput{}, nil
	}

	err = s.Apply(ctx, action, movie)

	// a write that succeeded but whose refresh failed is still reported as applied
	var mutErr *domain.MutationError
	if errors.As(err, &mutErr) || errors.Is(err, domain.ErrAuth) {
		return failure(err, logger), applyOutput{}, nil
	}
	if err != nil {
		logger.Warn("refresh after preference write failed", "action", action, "error", err)
	}

	snap := s.Snapshot()
	item := fromMovie(movie)
	if id, ok := movie.ID(); ok {
		for _, row := range snap.Rows {
			if rid, ok := row.Movie.ID(); ok && rid == id {
				item = fromRow(row)
				break
			}
		}
	}

	return nil, applyOutput{
		Action: string(action),
		Movie:  item,
		View:   fromSnapshot(snap),
	}, nil
}

const authMessage = "session expired or missing; run `reel` to log in, then retry"

// failure converts a session error into a tool error. Fetch failures are
// reported through the view's notice instead, so it returns nil for them.
func failure(err error, logger *slog.Logger) *mcp.CallToolResult {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAuth):
		return errorToolResult(authMessage)
	case errors.Is(err, domain.ErrValidation):
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			return errorToolResult(vErr.Message)
		}
		return errorToolResult(err.Error())
	case errors.Is(err, domain.ErrFetch):
		logger.Debug("fetch failed during tool call", "error", err)
		return nil
	}

	var mutErr *domain.MutationError
	if errors.As(err, &mutErr) {
		return errorToolResult(mutErr.Message)
	}
	return errorToolResult(err.Error())
}

func errorToolResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
