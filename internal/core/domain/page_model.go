package domain

const (
	defaultPageSize = 10
	// MaxPageSize caps the number of entries returned in a single page.
	MaxPageSize = 100
)

type Page struct {
	Number int
	Size   int
}

func NewPage(pageNumber, pageSize int) Page {
	pNumber := 1
	if pageNumber > 0 {
		pNumber = pageNumber
	}

	pSize := defaultPageSize
	if pageSize > 0 {
		pSize = pageSize
	}
	if pSize > MaxPageSize {
		pSize = MaxPageSize
	}

	return Page{
		Number: pNumber,
		Size:   pSize,
	}
}

// Offset returns the index of the first entry of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Bounds returns the [start, end) range of the page over a list of the given
// length.
func (p Page) Bounds(length int) (int, int) {
	start := p.Offset()
	if start > length {
		start = length
	}
	end := start + p.Size
	if end > length {
		end = length
	}
	return start, end
}

// Pagination describes a page of a longer list.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func NewPagination(page Page, total int) Pagination {
	totalPages := 0
	if page.Size > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}
	return Pagination{
		Page:       page.Number,
		Limit:      page.Size,
		Total:      total,
		TotalPages: totalPages,
	}
}
