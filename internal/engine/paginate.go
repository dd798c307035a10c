package engine

// SortMode selects the result ordering for a search.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortTime      SortMode = "time"
)

// ParseSortMode validates a sort mode string, defaulting empty to relevance.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortTime:
		return SortMode(s), nil
	default:
		return "", &InvalidParameterError{Name: "sort", Reason: "must be relevance or time"}
	}
}

// paginate slices one page out of a complete result set. Pages are
// 1-indexed; out-of-range pages clamp to the nearest valid page. An empty
// set keeps the requested page number so the caller's empty shape echoes the
// request.
func paginate[T any](items []T, page, pageSize int) (slice []T, pageOut, totalPages int, hasMore bool) {
	total := len(items)
	if total == 0 {
		return []T{}, page, 0, false
	}
	totalPages = (total + pageSize - 1) / pageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], page, totalPages, page < totalPages
}
