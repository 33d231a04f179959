package tracker

import (
	"context"

	"golang.org/x/sync/errgroup"

	"personal-tracker/internal/models"
)

// Dashboard aggregates the current month's spending, the checklist counts and
// the all-time per-category totals of userID.
func (s *Service) Dashboard(ctx context.Context, userID int64) (*models.Dashboard, error) {
	from, to := models.MonthRange(s.now())

	var d models.Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := s.db.ExpenseTotalBetween(ctx, userID, from, to)
		d.MonthTotal = total
		return err
	})
	g.Go(func() error {
		counts, err := s.db.TaskCounts(ctx, userID)
		d.Tasks = counts
		return err
	})
	g.Go(func() error {
		totals, err := s.db.CategoryTotals(ctx, userID)
		d.Categories = totals
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
