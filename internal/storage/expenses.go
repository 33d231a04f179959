package storage

import (
	"context"
	"fmt"

	"personal-tracker/internal/models"
)

// CreateExpense inserts e and sets its ID.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	err := db.queryRow(ctx,
		"INSERT INTO expenses (user_id, category, amount, date, note) VALUES (?, ?, ?, ?, ?) RETURNING id",
		e.UserID, e.Category, e.Amount, e.Date, e.Note,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListExpenses returns the user's expenses, newest first. An empty category
// lists every category.
func (db *DB) ListExpenses(ctx context.Context, userID int64, category string) ([]models.Expense, error) {
	query := "SELECT id, user_id, category, amount, date, note FROM expenses WHERE user_id = ?"
	args := []any{userID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &e.Date, &e.Note); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// ExpenseTotal sums the user's expenses, optionally restricted to one category.
func (db *DB) ExpenseTotal(ctx context.Context, userID int64, category string) (float64, error) {
	query := "SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ?"
	args := []any{userID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	var total float64
	if err := db.queryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// ExpenseTotalBetween sums the user's expenses dated in [from, to).
func (db *DB) ExpenseTotalBetween(ctx context.Context, userID int64, from, to models.Date) (float64, error) {
	var total float64
	err := db.queryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE user_id = ? AND date >= ? AND date < ?",
		userID, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expenses between %s and %s: %w", from, to, err)
	}
	return total, nil
}

// CategoryTotals aggregates the user's expenses per category, largest first.
func (db *DB) CategoryTotals(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	rows, err := db.query(ctx, `
		SELECT category, SUM(amount) AS total, COUNT(*) AS count
		FROM expenses
		WHERE user_id = ?
		GROUP BY category
		ORDER BY total DESC, category`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	var totals []models.CategoryTotal
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, ct)
	}

	return totals, rows.Err()
}

// ExpenseCategories lists the distinct categories the user has spent in.
func (db *DB) ExpenseCategories(ctx context.Context, userID int64) ([]string, error) {
	rows, err := db.query(ctx,
		"SELECT DISTINCT category FROM expenses WHERE user_id = ? ORDER BY category",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// DeleteExpense removes an expense owned by userID. It reports whether a row was deleted.
func (db *DB) DeleteExpense(ctx context.Context, id, userID int64) (bool, error) {
	res, err := db.exec(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
