package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/insights"
	"fintra/internal/logger"
	"fintra/internal/mailer"
	"fintra/internal/models"
)

// reportService assembles and emails monthly financial reports.
type reportService struct {
	db        *gorm.DB
	stats     StatsServicer
	generator *insights.Generator
	sender    mailer.Sender
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, stats StatsServicer, generator *insights.Generator, sender mailer.Sender) ReportServicer {
	return &reportService{
		db:        db,
		stats:     stats,
		generator: generator,
		sender:    sender,
	}
}

// SendMonthlyReports emails every active user a report covering the calendar
// month before now. Per-user failures are logged and do not stop the sweep.
func (s *reportService) SendMonthlyReports(ctx context.Context, now time.Time) error {
	log := logger.Get()

	reportMonth := now.AddDate(0, -1, 0)

	var users []models.User
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&users).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.sendReport(ctx, &user, reportMonth); err != nil {
			log.Errorw("monthly report failed",
				"user_id", user.ID, "error", err)
		}
	}

	return nil
}

func (s *reportService) sendReport(ctx context.Context, user *models.User, reportMonth time.Time) error {
	stats, err := s.stats.ComputeMonthlyStats(user.ID, reportMonth)
	if err != nil {
		return err
	}

	monthLabel := reportMonth.Format("January")
	tips := s.generator.Generate(ctx, insights.Stats{
		TotalIncome:   stats.TotalIncome,
		TotalExpenses: stats.TotalExpenses,
		ByCategory:    stats.ByCategory,
	}, monthLabel)

	subject := "Your Monthly Financial Report - " + monthLabel
	body := buildReportBody(user, stats, tips, monthLabel)

	return s.sender.Send(user.Email, subject, body)
}

func buildReportBody(user *models.User, stats *MonthlyStats, tips []string, monthLabel string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hello %s,\n\nHere's your financial summary for %s:\n\n", user.Name(), monthLabel)
	fmt.Fprintf(&b, "Total Income: %s\n", formatAmount(stats.TotalIncome))
	fmt.Fprintf(&b, "Total Expenses: %s\n", formatAmount(stats.TotalExpenses))
	fmt.Fprintf(&b, "Net: %s\n", formatAmount(stats.TotalIncome-stats.TotalExpenses))

	if len(stats.ByCategory) > 0 {
		b.WriteString("\nExpenses by category:\n")
		categories := make([]string, 0, len(stats.ByCategory))
		for category := range stats.ByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Fprintf(&b, "  %s: %s\n", category, formatAmount(stats.ByCategory[category]))
		}
	}

	if len(tips) > 0 {
		b.WriteString("\nInsights:\n")
		for _, tip := range tips {
			fmt.Fprintf(&b, "  - %s\n", tip)
		}
	}

	return b.String()
}

// formatAmount renders cents as a currency string.
func formatAmount(cents int64) string {
	return fmt.Sprintf("₹%.2f", float64(cents)/100)
}
