package model

// DefaultPageSize is used when a caller or a server omits the page size.
const DefaultPageSize = 10

// Page is a 1-based page of results.
//
// TotalPages == ceil(TotalElements/PageSize) and IsLast == (PageNo == TotalPages).
// An empty result is page 0 of 0 and is the last page.
type Page[T any] struct {
	Elements      []T  `json:"elements"`
	PageNo        int  `json:"pageNo"`
	PageSize      int  `json:"pageSize"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	IsLast        bool `json:"isLast"`
}

// NewPage builds a page and derives TotalPages and IsLast from the counts.
func NewPage[T any](elements []T, pageNo, pageSize, total int) Page[T] {
	if elements == nil {
		elements = []T{}
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	if pages == 0 {
		pageNo = 0
	} else if pageNo < 1 {
		pageNo = 1
	}
	return Page[T]{
		Elements:      elements,
		PageNo:        pageNo,
		PageSize:      pageSize,
		TotalElements: total,
		TotalPages:    pages,
		IsLast:        pageNo == pages,
	}
}

// EmptyPage is the result of a short-circuited query.
func EmptyPage[T any](pageSize int) Page[T] { return NewPage[T](nil, 0, pageSize, 0) }

// Paginate slices items locally; page is 1-based.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	start := len(items)
	if page-1 < len(items)/size+1 {
		start = min((page-1)*size, len(items))
	}
	end := start + min(size, len(items)-start)
	out := make([]T, end-start)
	copy(out, items[start:end])
	return NewPage(out, page, size, len(items))
}

// MapPage converts the elements of a page, keeping its counters.
func MapPage[T, R any](p Page[T], fn func(T) R) Page[R] {
	out := make([]R, 0, len(p.Elements))
	for _, e := range p.Elements {
		out = append(out, fn(e))
	}
	return Page[R]{
		Elements:      out,
		PageNo:        p.PageNo,
		PageSize:      p.PageSize,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		IsLast:        p.IsLast,
	}
}
