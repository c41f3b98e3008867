package pagination

const (
	// DefaultPageLimit is the page size for offset-paged admin listings.
	DefaultPageLimit = 50
	// MaxPageLimit caps offset-paged listings.
	MaxPageLimit = 200
)

// Page holds offset pagination inputs. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageLimit],
// using DefaultPageLimit when limit is unset.
func NormalizePage(p Page) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// TotalPages returns how many pages of limit rows hold total rows.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
