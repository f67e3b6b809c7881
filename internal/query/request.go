package query

type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeFixed   TypeFilter = "Fixed"
	TypeDynamic TypeFilter = "Dynamic"
)

type SortKey string

const (
	SortByName      SortKey = "name"
	SortByType      SortKey = "type"
	SortByValue     SortKey = "value"
	SortByStartTime SortKey = "startTime"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListRequest describes one page fetch against the store. Pages are
// 1-indexed.
type ListRequest struct {
	Page     int
	PageSize int
	Search   string
	Status   StatusFilter
	Type     TypeFilter
	SortKey  SortKey
	SortDir  SortDirection
}

func DefaultListRequest(pageSize int) ListRequest {
	return ListRequest{
		Page:     1,
		PageSize: pageSize,
		Status:   StatusAll,
		Type:     TypeAll,
		SortKey:  SortByStartTime,
		SortDir:  SortAsc,
	}
}

// SortState implements the column-header sorting rule: toggling the
// current key flips direction, selecting a new key resets to ascending.
type SortState struct {
	Key SortKey
	Dir SortDirection
}

func (s *SortState) Toggle(key SortKey) {
	if s.Key == key {
		if s.Dir == SortAsc {
			s.Dir = SortDesc
		} else {
			s.Dir = SortAsc
		}
		return
	}
	s.Key = key
	s.Dir = SortAsc
}

// TotalPages is ceil(total/pageSize); 0 when the collection is empty.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps 1-indexed navigation inside [1, totalPages]. Requests
// beyond either edge snap to the nearest valid page; an empty collection
// always resolves to page 1.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		return 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func ParseStatusFilter(s string) StatusFilter {
	switch s {
	case "active":
		return StatusActive
	case "inactive":
		return StatusInactive
	default:
		return StatusAll
	}
}

func ParseTypeFilter(s string) TypeFilter {
	switch s {
	case "Fixed", "fixed":
		return TypeFixed
	case "Dynamic", "percentage":
		return TypeDynamic
	default:
		return TypeAll
	}
}

func ParseSortKey(s string) SortKey {
	switch s {
	case "name":
		return SortByName
	case "type":
		return SortByType
	case "value":
		return SortByValue
	default:
		return SortByStartTime
	}
}

func ParseSortDirection(s string) SortDirection {
	if s == "desc" {
		return SortDesc
	}
	return SortAsc
}
