package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/models"
)

// statsService computes financial aggregates. It is purely read-and-reduce
// and never mutates state.
type statsService struct {
	db *gorm.DB
}

// NewStatsService creates a new StatsServicer.
func NewStatsService(db *gorm.DB) StatsServicer {
	return &statsService{db: db}
}

// ComputeMonthlyStats aggregates the user's transactions over the calendar
// month containing monthRef: expenses add to the total and their category
// bucket, income adds to the income total. An empty window yields zero-valued
// stats with an empty category map.
func (s *statsService) ComputeMonthlyStats(userID string, monthRef time.Time) (*MonthlyStats, error) {
	start, end := monthWindow(monthRef)

	var transactions []models.Transaction
	if err := s.db.
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &MonthlyStats{
		ByCategory:       make(map[string]int64),
		TransactionCount: len(transactions),
	}
	for _, t := range transactions {
		if t.Type == models.TransactionTypeExpense {
			stats.TotalExpenses += t.Amount
			stats.ByCategory[t.Category] += t.Amount
		} else {
			stats.TotalIncome += t.Amount
		}
	}

	return stats, nil
}

// AccountMonthlyExpenses sums the expense transactions of one account over
// the calendar month containing monthRef.
func (s *statsService) AccountMonthlyExpenses(userID, accountID string, monthRef time.Time) (int64, error) {
	start, end := monthWindow(monthRef)

	var total int64
	err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND account_id = ? AND type = ? AND date BETWEEN ? AND ?",
			userID, accountID, models.TransactionTypeExpense, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return total, nil
}

// monthWindow returns the inclusive [first instant, last instant] bounds of
// the calendar month containing ref.
func monthWindow(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, -1)
	end = time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999999, ref.Location())
	return start, end
}
