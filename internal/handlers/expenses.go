package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"personal-tracker/internal/models"
	"personal-tracker/internal/tracker"
)

// ExpenseItem represents an expense in the list view.
type ExpenseItem struct {
	models.Expense
	CategoryStyle CategoryStyle
}

// ExpensesViewModel is the data passed to the expenses template.
type ExpensesViewModel struct {
	Expenses   []ExpenseItem
	Total      float64
	Category   string
	Categories []string
	Today      string
}

// ListExpenses renders the ledger, optionally filtered by ?category=.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	list, err := h.svc.Expenses(r.Context(), user.ID, r.URL.Query().Get("category"))
	if err != nil {
		h.serverError(w, r, "ListExpenses error", err)
		return
	}

	items := make([]ExpenseItem, 0, len(list.Expenses))
	for _, e := range list.Expenses {
		items = append(items, ExpenseItem{Expense: e, CategoryStyle: getCategoryStyle(e.Category)})
	}

	h.render(w, r, "expenses.html", "Expenses", ExpensesViewModel{
		Expenses:   items,
		Total:      list.Total,
		Category:   list.Category,
		Categories: list.Categories,
		Today:      models.NewDate(h.now()).String(),
	})
}

// CreateExpense handles the creation of a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/expenses", FlashError, "Invalid form submission")
		return
	}

	e, err := h.svc.AddExpense(r.Context(), GetUserFromContext(r).ID, tracker.ExpenseInput{
		Category: r.FormValue("category"),
		Amount:   r.FormValue("amount"),
		Date:     r.FormValue("date"),
		Note:     r.FormValue("note"),
	})
	if err != nil {
		if ve, ok := tracker.IsValidation(err); ok {
			h.redirectWithFlash(w, r, "/expenses", FlashError, ve.Message)
			return
		}
		h.serverError(w, r, "CreateExpense error", err)
		return
	}

	h.redirectWithFlash(w, r, "/expenses", FlashSuccess,
		fmt.Sprintf("Expense of ₹%s added to %s", formatAmount(e.Amount), e.Category))
}

// DeleteExpense removes one of the caller's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, err := h.svc.DeleteExpense(r.Context(), GetUserFromContext(r).ID, id); err != nil {
		h.serverError(w, r, "DeleteExpense error", err)
		return
	}
	h.redirectWithFlash(w, r, "/expenses", FlashSuccess, "Expense deleted successfully")
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}
