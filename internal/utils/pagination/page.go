package pagination

// Defaults applied when a request does not specify a page size.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Params is the requested page, 1-based.
type Params struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

// Normalize clamps page and size into range using the given default and ceiling.
func (p Params) Normalize(defaultSize, maxSize int) Params {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset is the number of records to skip. Call on normalized params.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page describes where a result set sits within the full listing.
type Page struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// NewPage computes page metadata for total matching records.
func NewPage(p Params, total int) Page {
	totalPages := 0
	if total > 0 && p.PageSize > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}
	return Page{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		HasNext:     p.Page < totalPages,
		HasPrev:     p.Page > 1,
	}
}
