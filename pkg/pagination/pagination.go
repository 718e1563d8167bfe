package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from callers.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps the page and limit into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Result wraps a page of rows with its total count.
type Result[T any] struct {
	Items      []T   `json:"items"`
	TotalItems int64 `json:"total_items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

// TotalPages derives the page count from the total and limit.
func (r Result[T]) TotalPages() int64 {
	if r.Limit <= 0 {
		return 0
	}
	pages := r.TotalItems / int64(r.Limit)
	if r.TotalItems%int64(r.Limit) != 0 {
		pages++
	}
	return pages
}
