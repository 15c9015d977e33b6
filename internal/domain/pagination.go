package domain

// PageRequest selects one page of a list. Page is 1-based.
type PageRequest struct {
	Page int
	Size int
}

// Window returns the [start, end) bounds of the page within total items.
// A page past the end yields an empty window at total.
func (p PageRequest) Window(total int) (start, end int) {
	if p.Page < 1 || p.Size < 1 || p.Page > p.PageCount(total) {
		return total, total
	}
	start = (p.Page - 1) * p.Size
	return start, min(start+p.Size, total)
}

// PageCount returns how many pages of p.Size cover total items.
func (p PageRequest) PageCount(total int) int {
	if p.Size < 1 {
		return 0
	}
	return (total + p.Size - 1) / p.Size
}
