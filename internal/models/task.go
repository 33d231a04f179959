package models

// StudyTask is an entry of a user's study checklist.
type StudyTask struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     Date   `json:"due_date"`
	Completed   bool   `json:"completed"`
}

// TaskCounts summarises a checklist.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Pending returns the number of tasks not yet completed.
func (c TaskCounts) Pending() int {
	return c.Total - c.Completed
}
