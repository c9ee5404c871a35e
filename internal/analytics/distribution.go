package analytics

import (
	"sort"

	"flowstate/internal/model"
)

type CategoryShare struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Color      string `json:"color"`
}

// Distribution totals completed minutes per category. Uncategorized sessions and sessions
// whose category is not among categories are left out, as are categories with no sessions.
// Largest totals come first; ties are broken by name.
func Distribution(sessions []model.FocusSession, categories []model.Category) []CategoryShare {
	byID := make(map[uint]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	totals := make(map[uint]int)
	for _, s := range sessions {
		if s.Status != model.StatusCompleted || s.CategoryID == nil {
			continue
		}
		if _, ok := byID[*s.CategoryID]; !ok {
			continue
		}
		totals[*s.CategoryID] += s.DurationMinutes
	}

	out := make([]CategoryShare, 0, len(totals))
	for id, minutes := range totals {
		c := byID[id]
		out = append(out, CategoryShare{CategoryID: id, Name: c.Name, Value: minutes, Color: c.Color})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

// categoryIDs lists the distinct category ids referenced by sessions.
func categoryIDs(sessions []model.FocusSession) []uint {
	seen := make(map[uint]struct{})
	ids := make([]uint, 0)
	for _, s := range sessions {
		if s.CategoryID == nil {
			continue
		}
		if _, ok := seen[*s.CategoryID]; ok {
			continue
		}
		seen[*s.CategoryID] = struct{}{}
		ids = append(ids, *s.CategoryID)
	}
	return ids
}
