package tracker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"personal-tracker/internal/models"
)

// TaskInput is the raw form data of a new study task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     string
}

// AddTask validates in and adds it to the user's checklist.
func (s *Service) AddTask(ctx context.Context, userID int64, in TaskInput) (*models.StudyTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("Task title is required")
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, invalid(fmt.Sprintf("Task title must be at most %d characters", MaxTitleLength))
	}

	dueStr := strings.TrimSpace(in.DueDate)
	if dueStr == "" {
		return nil, invalid("Due date is required")
	}
	due, err := models.ParseDate(dueStr)
	if err != nil {
		return nil, invalid("Due date must be in YYYY-MM-DD format")
	}

	t := &models.StudyTask{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     due,
	}
	if err := s.db.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Tasks lists the user's checklist, open tasks first, then by due date.
func (s *Service) Tasks(ctx context.Context, userID int64) ([]models.StudyTask, error) {
	return s.db.ListTasks(ctx, userID)
}

// ToggleTask flips the completion of a task owned by userID, or returns ErrNotFound.
func (s *Service) ToggleTask(ctx context.Context, userID, id int64) error {
	return s.db.ToggleTask(ctx, id, userID)
}

// DeleteTask removes a task owned by userID.
func (s *Service) DeleteTask(ctx context.Context, userID, id int64) (bool, error) {
	return s.db.DeleteTask(ctx, id, userID)
}
