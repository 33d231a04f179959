package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"personal-tracker/internal/models"
)

// CreateTask inserts t and sets its ID. New tasks start uncompleted.
func (db *DB) CreateTask(ctx context.Context, t *models.StudyTask) error {
	err := db.queryRow(ctx,
		"INSERT INTO study_tasks2 (user_id, title, description, due_date) VALUES (?, ?, ?, ?) RETURNING id",
		t.UserID, t.Title, t.Description, t.DueDate,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	t.Completed = false
	return nil
}

// GetTask returns a task owned by userID.
func (db *DB) GetTask(ctx context.Context, id, userID int64) (*models.StudyTask, error) {
	var t models.StudyTask
	err := db.queryRow(ctx,
		"SELECT id, user_id, title, description, due_date, completed FROM study_tasks2 WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// ListTasks returns the user's tasks, open ones first, each group by due date.
func (db *DB) ListTasks(ctx context.Context, userID int64) ([]models.StudyTask, error) {
	rows, err := db.query(ctx,
		"SELECT id, user_id, title, description, due_date, completed FROM study_tasks2 WHERE user_id = ? ORDER BY completed, due_date, id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.StudyTask
	for rows.Next() {
		var t models.StudyTask
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.DueDate, &t.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ToggleTask flips the completed flag of a task owned by userID.
// It returns ErrNotFound when no such task exists.
func (db *DB) ToggleTask(ctx context.Context, id, userID int64) error {
	res, err := db.exec(ctx,
		"UPDATE study_tasks2 SET completed = NOT completed WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task owned by userID. It reports whether a row was deleted.
func (db *DB) DeleteTask(ctx context.Context, id, userID int64) (bool, error) {
	res, err := db.exec(ctx, "DELETE FROM study_tasks2 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TaskCounts counts the user's tasks and how many are completed.
func (db *DB) TaskCounts(ctx context.Context, userID int64) (models.TaskCounts, error) {
	var c models.TaskCounts
	err := db.queryRow(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) FROM study_tasks2 WHERE user_id = ?",
		userID,
	).Scan(&c.Total, &c.Completed)
	if err != nil {
		return c, fmt.Errorf("failed to count tasks: %w", err)
	}
	return c, nil
}
