package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "fintra/internal/errors"
	"fintra/internal/logger"
	"fintra/internal/mailer"
	"fintra/internal/models"
)

// budgetAlertThreshold is the percentage of budget used at which an alert
// is sent.
const budgetAlertThreshold = 80.0

// alertService evaluates budgets against default-account spending and emails
// users who cross the alert threshold.
type alertService struct {
	db     *gorm.DB
	stats  StatsServicer
	sender mailer.Sender
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB, stats StatsServicer, sender mailer.Sender) AlertServicer {
	return &alertService{
		db:     db,
		stats:  stats,
		sender: sender,
	}
}

// CheckBudgetAlerts walks every budget, computes the current month's expenses
// on the owner's default account and sends at most one alert per user per
// calendar month once usage reaches the threshold. A failed send leaves the
// alert stamp untouched so the next sweep retries it. Per-user failures are
// logged and do not stop the sweep.
func (s *alertService) CheckBudgetAlerts(ctx context.Context, now time.Time) error {
	log := logger.Get()

	var budgets []models.Budget
	if err := s.db.WithContext(ctx).Preload("User").Find(&budgets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, budget := range budgets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.checkBudget(ctx, &budget, now); err != nil {
			log.Errorw("budget alert check failed",
				"user_id", budget.UserID, "error", err)
		}
	}

	return nil
}

func (s *alertService) checkBudget(ctx context.Context, budget *models.Budget, now time.Time) error {
	log := logger.Get()

	if budget.Amount <= 0 {
		return nil
	}
	if budget.User.DefaultAccountID == nil {
		log.Debugw("user has no default account, skipping budget alert",
			"user_id", budget.UserID)
		return nil
	}
	if alertedThisMonth(budget.LastAlertSent, now) {
		return nil
	}

	expenses, err := s.stats.AccountMonthlyExpenses(budget.UserID, *budget.User.DefaultAccountID, now)
	if err != nil {
		return err
	}

	pct := float64(expenses) / float64(budget.Amount) * 100
	if pct < budgetAlertThreshold {
		return nil
	}

	subject := "Budget Alert"
	body := fmt.Sprintf(
		"Hello %s,\n\nYou've used %.1f%% of your monthly budget.\n\nBudget: %s\nSpent so far: %s\nRemaining: %s\n",
		budget.User.Name(), pct,
		formatAmount(budget.Amount), formatAmount(expenses), formatAmount(budget.Amount-expenses))

	if err := s.sender.Send(budget.User.Email, subject, body); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(budget).
		Update("last_alert_sent", now).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log.Infow("budget alert sent",
		"user_id", budget.UserID, "percentage_used", pct)
	return nil
}

// alertedThisMonth reports whether an alert was already sent within the
// calendar month containing now.
func alertedThisMonth(lastAlertSent *time.Time, now time.Time) bool {
	if lastAlertSent == nil {
		return false
	}
	return lastAlertSent.Year() == now.Year() && lastAlertSent.Month() == now.Month()
}
