package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if m.ShowHelp {
		return m.renderHelp()
	}
	if m.ConfirmLogout {
		return m.renderLogoutConfirmation()
	}

	width := m.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderSearchLine())
	b.WriteString("\n")
	if m.snap.Notices.Load != "" {
		b.WriteString(styles.BannerStyle.Render(styles.Truncate(m.snap.Notices.Load, width-2)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderRows(width))
	b.WriteString("\n")
	b.WriteString(RenderPageWindow(m.snap.Window, m.snap.HasPrev, m.snap.HasNext))
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter(width))
	return b.String()
}

func (m Model) renderTabs() string {
	parts := []string{styles.TitleStyle.Render("reel") + "  "}
	for i, c := range domain.Categories {
		label := fmt.Sprintf("%d %s", i+1, c.Label())
		switch c {
		case domain.CategoryLiked:
			label += fmt.Sprintf(" (%d)", m.snap.Liked)
		case domain.CategoryDisliked:
			label += fmt.Sprintf(" (%d)", m.snap.Disliked)
		}
		if c == m.snap.Tab {
			parts = append(parts, styles.ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, styles.InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderSearchLine() string {
	var line string
	switch {
	case m.typing:
		line = m.input.View()
	case m.snap.Query != "":
		line = styles.PromptStyle.Render("/ ") + m.snap.Query
	default:
		line = styles.DimStyle.Render("press / to search " + strings.ToLower(m.snap.Tab.Label()))
	}
	if m.snap.Searching {
		line += " " + RenderSpinner(m.SpinnerFrame)
	}
	if m.snap.Notices.Search != "" {
		line += "  " + styles.ErrorStyle.Render(m.snap.Notices.Search)
	}
	return line
}

func (m Model) renderRows(width int) string {
	if len(m.snap.Rows) == 0 {
		if m.snap.Loading || m.snap.Searching {
			return styles.DimStyle.Render("Loading...")
		}
		if m.snap.View.Mode == session.ModeSearch {
			return styles.DimStyle.Render("No results")
		}
		return styles.DimStyle.Render("Nothing here yet")
	}

	query := ""
	if m.snap.View.Mode == session.ModeSearch {
		query = strings.TrimSpace(m.snap.Query)
	}

	lines := make([]string, len(m.snap.Rows))
	for i, row := range m.snap.Rows {
		lines[i] = RenderRow(row, query, i == m.cursor, width)
	}
	return strings.Join(lines, "\n")
}

// RenderRow renders one list row: badge, title, year, genres and score
func RenderRow(row session.Row, query string, selected bool, width int) string {
	badge := styles.NoBadge
	switch {
	case row.Badge.Liked && row.Badge.Disliked:
		badge = styles.LikedBadge + styles.DislikedBadge
	case row.Badge.Liked:
		badge = styles.LikedBadge
	case row.Badge.Disliked:
		badge = styles.DislikedBadge
	}

	movie := row.Movie
	titleWidth := max(10, width/2)
	title := styles.Truncate(movie.Title, titleWidth)

	var meta []string
	if year := movie.Year(); year != "" {
		meta = append(meta, year)
	}
	if genres := movie.GenreList(); genres != "" {
		meta = append(meta, genres)
	}

	base := styles.NormalItemStyle
	if selected {
		base = styles.SelectedItemStyle
	}

	var b strings.Builder
	b.WriteString(styles.Pad(badge, 2))
	b.WriteString(" ")
	b.WriteString(highlightMatches(title, query, base))
	b.WriteString(base.Render(strings.Repeat(" ", max(1, titleWidth-lipgloss.Width(title)+1))))
	b.WriteString(styles.DimStyle.Render(styles.Truncate(strings.Join(meta, " · "), max(0, width-titleWidth-14))))
	if score := movie.FormattedScore(); score != "" {
		b.WriteString(" ")
		b.WriteString(styles.ScoreStyle.Render(score))
	}
	return b.String()
}

// highlightMatches renders text with the characters matching query emphasised
func highlightMatches(text, query string, base lipgloss.Style) string {
	matched := matchedOffsets(text, query)
	if len(matched) == 0 {
		return base.Render(text)
	}

	hl := styles.MatchHighlightStyle.Inherit(base)
	var b strings.Builder
	for i, r := range text {
		if matched[i] {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}

// matchedOffsets returns the byte offsets in text matched by query.
// fuzzy folds case itself, so offsets index text directly.
func matchedOffsets(text, query string) map[int]bool {
	if query == "" {
		return nil
	}
	matches := fuzzy.Find(query, []string{text})
	if len(matches) == 0 {
		return nil
	}
	matched := make(map[int]bool, len(matches[0].MatchedIndexes))
	for _, idx := range matches[0].MatchedIndexes {
		matched[idx] = true
	}
	return matched
}

// RenderPageWindow renders "‹ 1 … 5 6 [7] 8 9 … 20 ›"
func RenderPageWindow(window []session.PageButton, hasPrev, hasNext bool) string {
	prev := styles.DimStyle.Render("‹")
	if hasPrev {
		prev = styles.AccentStyle.Render("‹")
	}
	next := styles.DimStyle.Render("›")
	if hasNext {
		next = styles.AccentStyle.Render("›")
	}

	parts := []string{prev}
	for _, btn := range window {
		switch {
		case btn.Ellipsis:
			parts = append(parts, styles.DimStyle.Render("…"))
		case btn.Current:
			parts = append(parts, styles.CurrentPageStyle.Render(strconv.Itoa(btn.Page)))
		default:
			parts = append(parts, styles.PageStyle.Render(strconv.Itoa(btn.Page)))
		}
	}
	parts = append(parts, next)
	return strings.Join(parts, " ")
}

// renderFooter renders a single-line footer: status on the left, help hint on the right
func (m Model) renderFooter(width int) string {
	var left string
	switch {
	case m.snap.Mutating:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Saving...")
	case m.snap.Loading:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
	case m.snap.Notices.Action != "":
		left = styles.ErrorStyle.Render(m.snap.Notices.Action)
	}

	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	gap := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
BROWSE                          PREFERENCES
  j/k        Up/down              +      Like
  h/l        Previous/next page   -      Dislike
  1-4        Jump to tab          u      Undo dislike
  tab/S-tab  Cycle tabs

SEARCH                          OTHER
  /          Search this tab      r      Refresh
  enter      Search now           L      Logout
  esc        Clear search         q      Quit
                                  ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This will clear your stored session.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// RenderSpinner renders one spinner frame
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}
