package session

// DefaultWindowRange is the number of pages shown either side of the current page
const DefaultWindowRange = 2

// PageButton is one entry in a pagination window: a page number or an ellipsis
type PageButton struct {
	Page     int
	Ellipsis bool
	Current  bool
}

// ComputeWindow returns the page buttons around current. Page 1 and the last
// page are always present; an ellipsis marks a jump between an edge and the
// window.
func ComputeWindow(current, total, rng int) []PageButton {
	if total < 1 {
		total = 1
	}
	if rng < 0 {
		rng = 0
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	start := max(1, current-rng)
	end := min(total, current+rng)

	buttons := make([]PageButton, 0, end-start+5)
	if start > 1 {
		buttons = append(buttons, PageButton{Page: 1})
		if start > 2 {
			buttons = append(buttons, PageButton{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		buttons = append(buttons, PageButton{Page: p, Current: p == current})
	}
	if end < total {
		if end < total-1 {
			buttons = append(buttons, PageButton{Ellipsis: true})
		}
		buttons = append(buttons, PageButton{Page: total})
	}
	return buttons
}

// HasPrev reports whether "previous" is enabled
func HasPrev(current int) bool { return current > 1 }

// HasNext reports whether "next" is enabled
func HasNext(current, total int) bool { return current < total }

// Mode selects which page counter is active
type Mode int

const (
	ModeCategory Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "category"
}

// Pager tracks the two independent page counters. Moving one never resets the other.
type Pager struct {
	Category int
	Search   int
}

// NewPager starts both counters at page 1
func NewPager() Pager {
	return Pager{Category: 1, Search: 1}
}

// Current returns the counter for mode
func (p Pager) Current(mode Mode) int {
	if mode == ModeSearch {
		return p.Search
	}
	return p.Category
}

// With returns p with the counter for mode set to page (minimum 1)
func (p Pager) With(mode Mode, page int) Pager {
	if page < 1 {
		page = 1
	}
	if mode == ModeSearch {
		p.Search = page
	} else {
		p.Category = page
	}
	return p
}
