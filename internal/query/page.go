package query

import "github.com/mealdash/surge-areas/internal/models"

// Page is one fetched page of surge areas plus collection totals.
type Page struct {
	Items       []models.SurgeArea `json:"items"`
	Total       int                `json:"total"`
	TotalPages  int                `json:"totalPages"`
	CurrentPage int                `json:"currentPage"`
}

// ApplyToggle reconciles a confirmed toggle into the already-fetched page:
// the matching row's IsActive becomes newIsActive in place, with no
// refetch. Unknown ids are ignored (the row may live on another page).
func (p Page) ApplyToggle(id string, newIsActive bool) Page {
	items := make([]models.SurgeArea, len(p.Items))
	copy(items, p.Items)
	for i := range items {
		if items[i].ID == id {
			items[i].IsActive = newIsActive
			break
		}
	}
	p.Items = items
	return p
}

// ApplyDelete reconciles a confirmed deletion: the row is removed from
// the page, the total decremented, and the page count recomputed. Called
// only after the store confirms the delete.
func (p Page) ApplyDelete(id string, pageSize int) Page {
	items := make([]models.SurgeArea, 0, len(p.Items))
	removed := false
	for _, it := range p.Items {
		if !removed && it.ID == id {
			removed = true
			continue
		}
		items = append(items, it)
	}
	p.Items = items
	if removed && p.Total > 0 {
		p.Total--
	}
	p.TotalPages = TotalPages(p.Total, pageSize)
	p.CurrentPage = ClampPage(p.CurrentPage, p.TotalPages)
	return p
}
