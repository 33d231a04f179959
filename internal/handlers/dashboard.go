package handlers

import (
	"net/http"
)

// StatsCategoryItem represents a category with its spending statistics.
type StatsCategoryItem struct {
	Category      string
	Total         float64
	Count         int
	Percentage    float64
	CategoryStyle CategoryStyle
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	MonthName      string
	Year           int
	MonthTotal     float64
	TotalTasks     int
	CompletedTasks int
	PendingTasks   int
	CompletionRate float64
	// AllTimeTotal is the sum over Categories.
	AllTimeTotal float64
	Categories   []StatsCategoryItem
}

// Dashboard renders the monthly summary, checklist progress and category breakdown.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context(), GetUserFromContext(r).ID)
	if err != nil {
		h.serverError(w, r, "Dashboard error", err)
		return
	}

	var total float64
	for _, ct := range d.Categories {
		total += ct.Total
	}

	categoryItems := make([]StatsCategoryItem, 0, len(d.Categories))
	for _, ct := range d.Categories {
		percentage := 0.0
		if total > 0 {
			percentage = (ct.Total / total) * 100
		}
		categoryItems = append(categoryItems, StatsCategoryItem{
			Category:      ct.Category,
			Total:         ct.Total,
			Count:         ct.Count,
			Percentage:    percentage,
			CategoryStyle: getCategoryStyle(ct.Category),
		})
	}

	completionRate := 0.0
	if d.Tasks.Total > 0 {
		completionRate = float64(d.Tasks.Completed) / float64(d.Tasks.Total) * 100
	}

	now := h.now()
	h.render(w, r, "dashboard.html", "Dashboard", DashboardViewModel{
		MonthName:      now.Month().String(),
		Year:           now.Year(),
		MonthTotal:     d.MonthTotal,
		TotalTasks:     d.Tasks.Total,
		CompletedTasks: d.Tasks.Completed,
		PendingTasks:   d.Tasks.Pending(),
		CompletionRate: completionRate,
		AllTimeTotal:   total,
		Categories:     categoryItems,
	})
}
