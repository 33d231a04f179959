package models

// Dashboard is the per-user overview shown on the home page.
type Dashboard struct {
	MonthTotal float64
	Tasks      TaskCounts
	Categories []CategoryTotal
}
