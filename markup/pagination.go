package markup

const maxVisiblePages = 5

type PageLink struct {
	Number int
	Active bool
}

// Pager describes one page of a client-side paginated table.
type Pager struct {
	Page       int
	TotalPages int
	Start, End int // slice bounds of the current page
	Links      []PageLink
	HasPrev    bool
	HasNext    bool
}

// Hidden reports whether the pagination control should be omitted.
func (p Pager) Hidden() bool { return p.TotalPages <= 1 }

func (p Pager) Prev() int { return p.Page - 1 }
func (p Pager) Next() int { return p.Page + 1 }

// Paginate computes the current page of total items. A size of zero or less
// puts everything on one page. Out of range pages are clamped.
func Paginate(total, page, size int) Pager {
	if size <= 0 || total == 0 {
		return Pager{Page: 1, TotalPages: 1, Start: 0, End: total}
	}
	pages := (total + size - 1) / size
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	p := Pager{
		Page:       page,
		TotalPages: pages,
		Start:      (page - 1) * size,
		End:        min(page*size, total),
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
	start := max(1, page-maxVisiblePages/2)
	end := min(start+maxVisiblePages-1, pages)
	if end-start+1 < maxVisiblePages {
		start = max(1, end-maxVisiblePages+1)
	}
	for i := start; i <= end; i++ {
		p.Links = append(p.Links, PageLink{Number: i, Active: i == page})
	}
	return p
}
