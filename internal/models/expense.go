package models

// Expense represents a financial expense record owned by a single user.
type Expense struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Date     Date    `json:"date"`
	Note     string  `json:"note,omitempty"`
}

// CategoryTotal is the aggregated spending of one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}
