package tracker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"personal-tracker/internal/models"
)

// Input length limits, in characters.
const (
	MaxCategoryLength = 64
	MaxNoteLength     = 500
	MaxTitleLength    = 200
	MaxUsernameLength = 64
)

// ExpenseInput is the raw form data of a new expense.
type ExpenseInput struct {
	Category string
	Amount   string
	Date     string
	Note     string
}

// ExpenseList is a filtered view of a user's ledger.
type ExpenseList struct {
	Expenses []models.Expense
	Total    float64
	// Category is the active filter, empty for all categories.
	Category   string
	Categories []string
}

// AddExpense validates in and records it for userID.
func (s *Service) AddExpense(ctx context.Context, userID int64, in ExpenseInput) (*models.Expense, error) {
	category := strings.TrimSpace(in.Category)
	amountStr := strings.TrimSpace(in.Amount)
	dateStr := strings.TrimSpace(in.Date)
	note := strings.TrimSpace(in.Note)

	if category == "" || amountStr == "" || dateStr == "" {
		return nil, invalid("Category, amount, and date are required")
	}

	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return nil, invalid(fmt.Sprintf("Category must be at most %d characters", MaxCategoryLength))
	}
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, invalid(fmt.Sprintf("Note must be at most %d characters", MaxNoteLength))
	}

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, invalid("Amount must be a valid number")
	}
	if amount <= 0 {
		return nil, invalid("Amount must be greater than zero")
	}

	date, err := models.ParseDate(dateStr)
	if err != nil {
		return nil, invalid("Date must be in YYYY-MM-DD format")
	}

	e := &models.Expense{
		UserID:   userID,
		Category: category,
		Amount:   amount,
		Date:     date,
		Note:     note,
	}
	if err := s.db.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"expense_id": e.ID,
		"category":   e.Category,
	}).Debug("Expense created")
	return e, nil
}

// Expenses lists the user's ledger, optionally filtered by category, with its total.
func (s *Service) Expenses(ctx context.Context, userID int64, category string) (*ExpenseList, error) {
	category = strings.TrimSpace(category)

	expenses, err := s.db.ListExpenses(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	total, err := s.db.ExpenseTotal(ctx, userID, category)
	if err != nil {
		return nil, err
	}
	categories, err := s.db.ExpenseCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ExpenseList{
		Expenses:   expenses,
		Total:      total,
		Category:   category,
		Categories: categories,
	}, nil
}

// DeleteExpense removes an expense owned by userID. Other users' expenses are left untouched.
func (s *Service) DeleteExpense(ctx context.Context, userID, id int64) (bool, error) {
	return s.db.DeleteExpense(ctx, id, userID)
}
