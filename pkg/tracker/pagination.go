package tracker

// PageSizeOptions are the page sizes offered to the user
var PageSizeOptions = []int{5, 10, 25, 50}

const (
	// DefaultPage is the first page
	DefaultPage = 1
	// DefaultLimit is the page size before the user picks one
	DefaultLimit = 10
	// MaxLimit is the largest page size the server accepts
	MaxLimit = 100
)

// Pagination mirrors the server's paging of the current list.
// Total counts every repository matching the search, not just this page.
type Pagination struct {
	Page  int
	Limit int
	Total int64
}

// TotalPages returns how many pages total rows fill, never less than one
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// TotalPages returns the page count for p
func (p Pagination) TotalPages() int {
	return TotalPages(p.Total, p.Limit)
}

// Range returns the 1-based positions of the first and last row on the page.
// Both are 0 when there are no rows.
func (p Pagination) Range() (from, to int64) {
	if p.Total <= 0 || p.Limit < 1 || p.Page < 1 {
		return 0, 0
	}
	from = min(int64(p.Page-1)*int64(p.Limit)+1, p.Total)
	to = min(int64(p.Page)*int64(p.Limit), p.Total)
	return from, to
}

// Navigation says which page controls are usable
type Navigation struct {
	First bool
	Prev  bool
	Next  bool
	Last  bool
}

// NavigationFor disables controls at the bounds and while a fetch is in flight
func NavigationFor(p Pagination, busy bool) Navigation {
	if busy {
		return Navigation{}
	}
	last := p.TotalPages()
	return Navigation{
		First: p.Page > 1,
		Prev:  p.Page > 1,
		Next:  p.Page < last,
		Last:  p.Page < last,
	}
}

// ViewState is what the list area should show
type ViewState int

const (
	// ViewRows shows the table
	ViewRows ViewState = iota
	// ViewNoResults means the search matched nothing
	ViewNoResults
	// ViewEmpty means the user tracks no repositories at all
	ViewEmpty
)

func (v ViewState) String() string {
	switch v {
	case ViewNoResults:
		return "no-results"
	case ViewEmpty:
		return "empty"
	default:
		return "rows"
	}
}

// ViewStateFor picks the view for a list of rows under the given search
func ViewStateFor(rows int, searchQuery string, total int64) ViewState {
	switch {
	case rows > 0:
		return ViewRows
	case searchQuery != "":
		return ViewNoResults
	case total == 0:
		return ViewEmpty
	default:
		return ViewRows
	}
}
