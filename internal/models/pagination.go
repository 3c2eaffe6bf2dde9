package models

// Page defaults shared by every paginated listing.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a single page of results, serialised in the shape the web client expects.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NormalizePage clamps page and page size into their accepted ranges.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// NewPage assembles a page; totalPages is ceil(total / pageSize).
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	page, pageSize = NormalizePage(page, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Data:       items,
		Total:      total,
		Page:       page,
		Limit:      pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}

// Paginate slices an already ordered collection into the requested page.
func Paginate[T any](all []T, page, pageSize int) Page[T] {
	page, pageSize = NormalizePage(page, pageSize)
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	return NewPage(items, len(all), page, pageSize)
}
